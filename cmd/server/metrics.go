package main

import (
	"fmt"
	"io"

	"beltline.ai/internal/persistence/indexdb"
	"beltline.ai/internal/sim/world"
)

// writeWorldMetrics emits the Prometheus text exposition for one world.
func writeWorldMetrics(out io.Writer, worldID string, tick uint64, m world.WorldMetrics) {
	if m.Tick != 0 {
		tick = m.Tick
	}

	fmt.Fprintf(out, "# HELP beltline_world_tick Current world tick.\n")
	fmt.Fprintf(out, "# TYPE beltline_world_tick gauge\n")
	fmt.Fprintf(out, "beltline_world_tick{world=%q} %d\n", worldID, tick)

	fmt.Fprintf(out, "# HELP beltline_world_entities Placed entities by kind.\n")
	fmt.Fprintf(out, "# TYPE beltline_world_entities gauge\n")
	fmt.Fprintf(out, "beltline_world_entities{world=%q,kind=%q} %d\n", worldID, "structure", m.Structures)
	fmt.Fprintf(out, "beltline_world_entities{world=%q,kind=%q} %d\n", worldID, "belt", m.Belts)
	fmt.Fprintf(out, "beltline_world_entities{world=%q,kind=%q} %d\n", worldID, "inserter", m.Inserters)
	fmt.Fprintf(out, "beltline_world_entities{world=%q,kind=%q} %d\n", worldID, "miner", m.Miners)
	fmt.Fprintf(out, "beltline_world_entities{world=%q,kind=%q} %d\n", worldID, "crafter", m.Crafters)

	fmt.Fprintf(out, "# HELP beltline_world_lanes Belt lanes in the current lane set.\n")
	fmt.Fprintf(out, "# TYPE beltline_world_lanes gauge\n")
	fmt.Fprintf(out, "beltline_world_lanes{world=%q} %d\n", worldID, m.Lanes)

	fmt.Fprintf(out, "# HELP beltline_world_observers Connected observer sessions.\n")
	fmt.Fprintf(out, "# TYPE beltline_world_observers gauge\n")
	fmt.Fprintf(out, "beltline_world_observers{world=%q} %d\n", worldID, m.Observers)

	fmt.Fprintf(out, "# HELP beltline_world_queue_depth Channel backlog depth.\n")
	fmt.Fprintf(out, "# TYPE beltline_world_queue_depth gauge\n")
	fmt.Fprintf(out, "beltline_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "place", m.QueueDepths.Place)
	fmt.Fprintf(out, "beltline_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "remove", m.QueueDepths.Remove)
	fmt.Fprintf(out, "beltline_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "admin", m.QueueDepths.Admin)

	fmt.Fprintf(out, "# HELP beltline_world_step_ms Last tick step duration in milliseconds.\n")
	fmt.Fprintf(out, "# TYPE beltline_world_step_ms gauge\n")
	fmt.Fprintf(out, "beltline_world_step_ms{world=%q} %.3f\n", worldID, m.StepMS)

	fmt.Fprintf(out, "# HELP beltline_inserter_transfers_total Inserter pickups and dropoffs since start.\n")
	fmt.Fprintf(out, "# TYPE beltline_inserter_transfers_total counter\n")
	fmt.Fprintf(out, "beltline_inserter_transfers_total{world=%q} %d\n", worldID, m.Transfers)

	fmt.Fprintf(out, "# HELP beltline_produced_total Units mined or crafted since start.\n")
	fmt.Fprintf(out, "# TYPE beltline_produced_total counter\n")
	fmt.Fprintf(out, "beltline_produced_total{world=%q} %d\n", worldID, m.Produced)

	fmt.Fprintf(out, "# HELP beltline_consumed_total Fuel burnt and crafting ingredients used since start.\n")
	fmt.Fprintf(out, "# TYPE beltline_consumed_total counter\n")
	fmt.Fprintf(out, "beltline_consumed_total{world=%q} %d\n", worldID, m.Consumed)

	fmt.Fprintf(out, "# HELP beltline_items Units held anywhere in the world, by item.\n")
	fmt.Fprintf(out, "# TYPE beltline_items gauge\n")
	for _, it := range m.Items {
		fmt.Fprintf(out, "beltline_items{world=%q,item=%q} %d\n", worldID, it.Item, it.Amount)
	}
}

func writeIndexMetrics(out io.Writer, worldID string, s indexdb.Stats) {
	fmt.Fprintf(out, "# HELP beltline_index_queue_depth Current index writer queue depth.\n")
	fmt.Fprintf(out, "# TYPE beltline_index_queue_depth gauge\n")
	fmt.Fprintf(out, "beltline_index_queue_depth{world=%q} %d\n", worldID, s.QueueDepth)

	fmt.Fprintf(out, "# HELP beltline_index_queue_capacity Index writer queue capacity.\n")
	fmt.Fprintf(out, "# TYPE beltline_index_queue_capacity gauge\n")
	fmt.Fprintf(out, "beltline_index_queue_capacity{world=%q} %d\n", worldID, s.QueueCapacity)

	fmt.Fprintf(out, "# HELP beltline_index_dropped_total Index writes dropped because the queue was full.\n")
	fmt.Fprintf(out, "# TYPE beltline_index_dropped_total counter\n")
	fmt.Fprintf(out, "beltline_index_dropped_total{world=%q,kind=%q} %d\n", worldID, "tick", s.DropTickTotal)
	fmt.Fprintf(out, "beltline_index_dropped_total{world=%q,kind=%q} %d\n", worldID, "audit", s.DropAuditTotal)
	fmt.Fprintf(out, "beltline_index_dropped_total{world=%q,kind=%q} %d\n", worldID, "snapshot", s.DropSnapshotTotal)
}
