package observerproto

// Version is the observer protocol version.
const Version = "0.1"

const (
	TypeSubscribe = "SUBSCRIBE"
	TypeFrame     = "FRAME"
)

// Client -> Server. First message on the observer WS connection, and can be re-sent to update settings.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`

	// EveryTicks thins the stream to one frame per N ticks; 0 uses the
	// server default.
	EveryTicks int `json:"every_ticks,omitempty"`
}

// HTTP response for GET /v1/observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	SessionHint     string      `json:"session_hint,omitempty"`
	WorldID         string      `json:"world_id"`
	Tick            uint64      `json:"tick"`
	WorldParams     WorldParams `json:"world_params"`
	ItemPalette     []string    `json:"item_palette"`
	Structures      []string    `json:"structures"`
}

type WorldParams struct {
	TickRateHz         int   `json:"tick_rate_hz"`
	BeltIntervalMs     int64 `json:"belt_interval_ms"`
	ObserverEveryTicks int   `json:"observer_every_ticks"`
}

// Server -> Client. A read-only copy of what a renderer needs to draw belts,
// inserters and miners. Nothing in a frame refers back into the world.
type Frame struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`

	Structures []StructureState `json:"structures"`
	Belts      []BeltState      `json:"belts,omitempty"`
	Inserters  []InserterState  `json:"inserters,omitempty"`
	Miners     []MinerState     `json:"miners,omitempty"`
	Crafters   []CrafterState   `json:"crafters,omitempty"`
}

type StructureState struct {
	ID     uint64 `json:"id"`
	Def    string `json:"def"`
	Pos    [2]int `json:"pos"`
	Size   [2]int `json:"size"`
	Facing string `json:"facing"`
	// Radians is the render angle of the facing.
	Radians float64 `json:"radians"`
}

type BeltState struct {
	ID    uint64    `json:"id"`
	Slots [3]string `json:"slots"`
	Next  uint64    `json:"next,omitempty"`
}

type InserterState struct {
	ID        uint64  `json:"id"`
	Arm       float64 `json:"arm"`
	TargetArm float64 `json:"target_arm"`
	Holding   string  `json:"holding,omitempty"`
	Amount    uint32  `json:"amount,omitempty"`
	Working   bool    `json:"working"`
	Pickup    [2]int  `json:"pickup"`
	Dropoff   [2]int  `json:"dropoff"`
}

type MinerState struct {
	ID       uint64  `json:"id"`
	Resource string  `json:"resource"`
	Working  bool    `json:"working"`
	Progress float64 `json:"progress"`
	Powered  bool    `json:"powered"`
}

// CrafterState is a smelter or assembler. Recipe is empty while idle.
type CrafterState struct {
	ID       uint64  `json:"id"`
	Recipe   string  `json:"recipe,omitempty"`
	Progress float64 `json:"progress"`
	Powered  bool    `json:"powered"`
}
