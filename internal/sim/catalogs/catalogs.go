package catalogs

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"beltline.ai/internal/sim/logistics/rotation"
)

type Catalogs struct {
	Items      ItemCatalog
	Recipes    RecipeCatalog
	Structures StructureCatalog
}

type ItemCatalog struct {
	Palette       []string
	Index         map[string]uint16
	Defs          map[string]ItemDef
	PaletteDigest string
	DefsDigest    string
}

type ItemDef struct {
	ID   string `json:"id"`
	Kind string `json:"kind"` // "RESOURCE","INTERMEDIATE","STRUCTURE"
	Fuel bool   `json:"fuel,omitempty"`
}

type StructureCatalog struct {
	ByID   map[string]StructureDef
	IDs    []string
	Digest string
}

type RecipeCatalog struct {
	ByID   map[string]RecipeDef
	IDs    []string
	Digest string
}

type RecipeItem struct {
	Item   string `json:"item"`
	Amount uint32 `json:"amount"`
}

type RecipeDef struct {
	ID          string       `json:"id"`
	Category    string       `json:"category"` // "smelting","assembling"
	TimeMs      int          `json:"time_ms"`
	Ingredients []RecipeItem `json:"ingredients"`
	Products    []RecipeItem `json:"products"`
}

// InCategory returns the ids of every recipe in category, sorted.
func (c RecipeCatalog) InCategory(category string) []string {
	var out []string
	for _, id := range c.IDs {
		if c.ByID[id].Category == category {
			out = append(out, id)
		}
	}
	return out
}

// Component types understood by the world.
const (
	ComponentStorage       = "storage"
	ComponentFuel          = "fuel"
	ComponentSource        = "source"
	ComponentOutput        = "output"
	ComponentTransportBelt = "transport_belt"
	ComponentInserter      = "inserter"
	ComponentMiner         = "miner"
	ComponentBurner        = "burner"
	ComponentSmelter       = "smelter"
	ComponentAssembler     = "assembler"
)

type StructureDef struct {
	ID         string         `json:"id" jsonschema:"required,pattern=^[A-Z][A-Z0-9_]*$"`
	Size       [2]int         `json:"size,omitempty" jsonschema:"description=footprint in tiles as [width height]; defaults to [1 1]"`
	Sides      int            `json:"sides" jsonschema:"required,minimum=1,maximum=8"`
	Components []ComponentDef `json:"components" jsonschema:"required"`
}

type ComponentDef struct {
	Type string `json:"type" jsonschema:"required,enum=storage,enum=fuel,enum=source,enum=output,enum=transport_belt,enum=inserter,enum=miner,enum=burner,enum=smelter,enum=assembler"`

	// Inventories.
	Slots  int      `json:"slots,omitempty" jsonschema:"minimum=1,maximum=64"`
	Filter []string `json:"filter,omitempty"`

	// Inserters.
	Speed    float64 `json:"speed,omitempty"`
	Capacity uint32  `json:"capacity,omitempty" jsonschema:"minimum=1,maximum=1000"`

	// Miners.
	IntervalMs int    `json:"interval_ms,omitempty" jsonschema:"minimum=1"`
	Resource   string `json:"resource,omitempty"`

	// Burners.
	BurnMs int `json:"burn_ms,omitempty" jsonschema:"minimum=1"`

	// Smelters pick any recipe of Category; assemblers run Recipe unless the
	// placement names another.
	Category string `json:"category,omitempty"`
	Recipe   string `json:"recipe,omitempty"`
}

// Footprint is Size with the [1 1] default applied.
func (d StructureDef) Footprint() (w, h int) {
	w, h = d.Size[0], d.Size[1]
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return w, h
}

func (d StructureDef) Has(componentType string) bool {
	for _, c := range d.Components {
		if c.Type == componentType {
			return true
		}
	}
	return false
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadItems(filepath.Join(configDir, "items.json"), &c.Items); err != nil {
		return nil, err
	}
	if err := loadRecipes(filepath.Join(configDir, "recipes.json"), c.Items, &c.Recipes); err != nil {
		return nil, err
	}
	if err := loadStructures(filepath.Join(configDir, "structures.json"), c, &c.Structures); err != nil {
		return nil, err
	}
	return &c, nil
}

// FuelItems lists the items a fuel inventory accepts by default.
func (c ItemCatalog) FuelItems() []string {
	var out []string
	for _, id := range c.Palette {
		if c.Defs[id].Fuel {
			out = append(out, id)
		}
	}
	return out
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadItems(path string, out *ItemCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.DefsDigest = sha256Hex(raw)

	var defs []ItemDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	out.Defs = map[string]ItemDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("items.json: empty id")
		}
		if _, dup := out.Defs[d.ID]; dup {
			return fmt.Errorf("items.json: duplicate id %s", d.ID)
		}
		out.Defs[d.ID] = d
	}

	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	for i, id := range ids {
		out.Index[id] = uint16(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

// loadRecipes reads recipes.json. A missing file leaves the catalog empty.
func loadRecipes(path string, items ItemCatalog, out *RecipeCatalog) error {
	out.ByID = map[string]RecipeDef{}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var defs []RecipeDef
	if err := dec.Decode(&defs); err != nil {
		return fmt.Errorf("recipes.json: %w", err)
	}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("recipes.json: empty id")
		}
		if _, dup := out.ByID[d.ID]; dup {
			return fmt.Errorf("recipes.json: duplicate id %s", d.ID)
		}
		if err := checkRecipe(d, items); err != nil {
			return fmt.Errorf("recipes.json: %s: %w", d.ID, err)
		}
		out.ByID[d.ID] = d
		out.IDs = append(out.IDs, d.ID)
	}
	sort.Strings(out.IDs)
	return nil
}

func checkRecipe(d RecipeDef, items ItemCatalog) error {
	if d.Category == "" {
		return fmt.Errorf("no category")
	}
	if d.TimeMs < 0 {
		return fmt.Errorf("time_ms must be >= 0")
	}
	if len(d.Ingredients) == 0 || len(d.Products) == 0 {
		return fmt.Errorf("needs ingredients and products")
	}
	for _, list := range [][]RecipeItem{d.Ingredients, d.Products} {
		for _, ri := range list {
			if ri.Amount == 0 {
				return fmt.Errorf("%s: amount must be > 0", ri.Item)
			}
			if err := items.requireItem(ri.Item); err != nil {
				return err
			}
		}
	}
	return nil
}

func loadStructures(path string, cats Catalogs, out *StructureCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	if err := validateStructuresJSON(raw); err != nil {
		return fmt.Errorf("structures.json: %w", err)
	}
	var defs []StructureDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("structures.json: %w", err)
	}
	out.ByID = map[string]StructureDef{}
	for _, d := range defs {
		if _, dup := out.ByID[d.ID]; dup {
			return fmt.Errorf("structures.json: duplicate id %s", d.ID)
		}
		if err := checkStructure(d, cats.Items, cats.Recipes); err != nil {
			return fmt.Errorf("structures.json: %s: %w", d.ID, err)
		}
		out.ByID[d.ID] = d
		out.IDs = append(out.IDs, d.ID)
	}
	sort.Strings(out.IDs)
	return nil
}

// checkStructure covers what the schema cannot: side counts, item and
// recipe references and component combinations.
func checkStructure(d StructureDef, items ItemCatalog, recipes RecipeCatalog) error {
	if _, err := rotation.ParseSideCount(d.Sides); err != nil {
		return err
	}
	if len(d.Components) == 0 {
		return fmt.Errorf("no components")
	}
	seen := map[string]bool{}
	behaviours := 0
	for _, c := range d.Components {
		if seen[c.Type] {
			return fmt.Errorf("component %s listed twice", c.Type)
		}
		seen[c.Type] = true
		switch c.Type {
		case ComponentStorage, ComponentFuel, ComponentSource, ComponentOutput:
			if c.Slots <= 0 {
				return fmt.Errorf("component %s: slots must be > 0", c.Type)
			}
		case ComponentTransportBelt:
			behaviours++
			if w, h := d.Footprint(); w != 1 || h != 1 {
				return fmt.Errorf("transport belts must be 1x1")
			}
		case ComponentInserter:
			behaviours++
			if c.Speed <= 0 || c.Capacity == 0 {
				return fmt.Errorf("inserter needs speed > 0 and capacity > 0")
			}
		case ComponentMiner:
			behaviours++
			if c.IntervalMs <= 0 {
				return fmt.Errorf("miner needs interval_ms > 0")
			}
			if err := items.requireItem(c.Resource); err != nil {
				return fmt.Errorf("miner resource: %w", err)
			}
		case ComponentBurner:
			if c.BurnMs <= 0 {
				return fmt.Errorf("burner needs burn_ms > 0")
			}
		case ComponentSmelter:
			behaviours++
			if len(recipes.InCategory(c.Category)) == 0 {
				return fmt.Errorf("smelter: no recipes in category %q", c.Category)
			}
		case ComponentAssembler:
			behaviours++
			if c.Recipe != "" {
				if _, ok := recipes.ByID[c.Recipe]; !ok {
					return fmt.Errorf("assembler: unknown recipe %q", c.Recipe)
				}
			}
		default:
			return fmt.Errorf("unknown component type %q", c.Type)
		}
		for _, it := range c.Filter {
			if err := items.requireItem(it); err != nil {
				return fmt.Errorf("component %s filter: %w", c.Type, err)
			}
		}
	}
	if behaviours > 1 {
		return fmt.Errorf("at most one of transport_belt, inserter, miner, smelter, assembler")
	}
	if seen[ComponentBurner] && !seen[ComponentFuel] {
		return fmt.Errorf("burner needs a fuel inventory")
	}
	if (seen[ComponentSmelter] || seen[ComponentAssembler]) && (!seen[ComponentSource] || !seen[ComponentOutput]) {
		return fmt.Errorf("crafting needs source and output inventories")
	}
	return nil
}

func (c ItemCatalog) requireItem(id string) error {
	if _, ok := c.Defs[id]; ok {
		return nil
	}
	if s := Suggest(id, c.Palette); s != "" {
		return fmt.Errorf("unknown item %q (did you mean %q?)", id, s)
	}
	return fmt.Errorf("unknown item %q", id)
}
