package belt

import "beltline.ai/internal/sim/logistics/model"

// Lane is a processing order for one chain of belts, most-downstream belt
// first.
type Lane []model.EntityID

// BuildLanes partitions the network into lanes. Every terminal belt (no
// downstream) starts a lane that walks upstream; where several belts feed
// the same belt, an active feeder (exit slot occupied) is preferred, ties
// going to registration order. The feeders not taken start their own lanes
// after the current one. Belts that never reach a terminal sit on a loop;
// those lanes start at the first belt of the loop found by walking
// downstream from the earliest unvisited belt.
//
// Each belt appears in exactly one lane.
func (n *Network) BuildLanes() []Lane {
	prev := n.previousIndex()
	visited := make(map[model.EntityID]bool, len(n.belts))
	var lanes []Lane

	for _, id := range n.order {
		if n.isTerminal(id) && !visited[id] {
			lanes = n.walkLane(id, prev, visited, lanes)
		}
	}
	for _, id := range n.order {
		if visited[id] {
			continue
		}
		lanes = n.walkLane(n.loopHead(id, visited), prev, visited, lanes)
	}
	return lanes
}

func (n *Network) previousIndex() map[model.EntityID][]model.EntityID {
	prev := map[model.EntityID][]model.EntityID{}
	for _, id := range n.order {
		next := n.belts[id].next
		if next == 0 {
			continue
		}
		if _, ok := n.belts[next]; !ok {
			continue
		}
		prev[next] = append(prev[next], id)
	}
	return prev
}

func (n *Network) walkLane(head model.EntityID, prev map[model.EntityID][]model.EntityID, visited map[model.EntityID]bool, lanes []Lane) []Lane {
	lane := Lane{head}
	visited[head] = true
	var branches []model.EntityID

	cur := head
	for {
		var cands []model.EntityID
		for _, p := range prev[cur] {
			if !visited[p] {
				cands = append(cands, p)
			}
		}
		if len(cands) == 0 {
			break
		}
		chosen := cands[0]
		for _, c := range cands {
			if n.belts[c].Active() {
				chosen = c
				break
			}
		}
		for _, c := range cands {
			if c != chosen {
				branches = append(branches, c)
			}
		}
		visited[chosen] = true
		lane = append(lane, chosen)
		cur = chosen
	}
	lanes = append(lanes, lane)

	for _, b := range branches {
		if !visited[b] {
			lanes = n.walkLane(b, prev, visited, lanes)
		}
	}
	return lanes
}

// loopHead follows next-links from start until it would revisit a belt of
// this walk or step onto an already-laned belt.
func (n *Network) loopHead(start model.EntityID, visited map[model.EntityID]bool) model.EntityID {
	seen := map[model.EntityID]bool{start: true}
	cur := start
	for {
		next := n.belts[cur].next
		if _, ok := n.belts[next]; !ok || next == 0 || visited[next] || seen[next] {
			return cur
		}
		seen[next] = true
		cur = next
	}
}
