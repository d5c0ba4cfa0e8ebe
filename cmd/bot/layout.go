package main

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"beltline.ai/internal/protocol"
)

// Layout is a list of structures to place, in order.
type Layout struct {
	Placements []LayoutPlacement `yaml:"placements"`
}

type LayoutPlacement struct {
	Structure string            `yaml:"structure"`
	Pos       [2]int            `yaml:"pos"`
	Facing    string            `yaml:"facing"`
	Resource  string            `yaml:"resource"`
	Recipe    string            `yaml:"recipe"`
	Items     map[string]uint32 `yaml:"items"`
}

func loadLayout(path string) (Layout, error) {
	var l Layout
	raw, err := os.ReadFile(path)
	if err != nil {
		return l, err
	}
	if err := yaml.Unmarshal(raw, &l); err != nil {
		return l, fmt.Errorf("%s: %w", path, err)
	}
	if len(l.Placements) == 0 {
		return l, fmt.Errorf("%s: no placements", path)
	}
	return l, nil
}

// placeMessages turns a layout into PLACE messages with refs p0, p1, ...
func (l Layout) placeMessages() []protocol.PlaceMsg {
	out := make([]protocol.PlaceMsg, 0, len(l.Placements))
	for i, p := range l.Placements {
		m := protocol.PlaceMsg{
			Type:            protocol.TypePlace,
			ProtocolVersion: protocol.Version,
			Ref:             fmt.Sprintf("p%d", i),
			Structure:       p.Structure,
			Pos:             p.Pos,
			Facing:          p.Facing,
			Resource:        p.Resource,
			Recipe:          p.Recipe,
		}
		items := make([]string, 0, len(p.Items))
		for it := range p.Items {
			items = append(items, it)
		}
		sort.Strings(items)
		for _, it := range items {
			m.Items = append(m.Items, protocol.ItemCount{Item: it, Amount: p.Items[it]})
		}
		out = append(out, m)
	}
	return out
}
