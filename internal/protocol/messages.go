package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type" jsonschema:"required,enum=HELLO"`
	ProtocolVersion string `json:"protocol_version" jsonschema:"required"`
	ClientName      string `json:"client_name,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type" jsonschema:"required,enum=WELCOME"`
	ProtocolVersion string         `json:"protocol_version" jsonschema:"required"`
	SessionID       string         `json:"session_id" jsonschema:"required"`
	WorldID         string         `json:"world_id" jsonschema:"required"`
	Tick            uint64         `json:"tick"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type CatalogDigests struct {
	ItemPalette      PaletteInfo `json:"item_palette"`
	StructuresDigest string      `json:"structures_digest"`
	Structures       []string    `json:"structures,omitempty"`
}

type PaletteInfo struct {
	Digest string `json:"digest"`
	Count  int    `json:"count"`
}

type ItemCount struct {
	Item   string `json:"item" jsonschema:"required,pattern=^[A-Z][A-Z0-9_]*$"`
	Amount uint32 `json:"amount" jsonschema:"required,minimum=1,maximum=1000000"`
}

// PLACE (client -> server). Applied at the next tick boundary; the server
// answers with a RESULT carrying the same Ref.
type PlaceMsg struct {
	Type            string      `json:"type" jsonschema:"required,enum=PLACE"`
	ProtocolVersion string      `json:"protocol_version" jsonschema:"required"`
	Ref             string      `json:"ref" jsonschema:"required"`
	Structure       string      `json:"structure" jsonschema:"required"`
	Pos             [2]int      `json:"pos" jsonschema:"required"`
	Facing          string      `json:"facing,omitempty" jsonschema:"enum=N,enum=NE,enum=E,enum=SE,enum=S,enum=SW,enum=W,enum=NW"`
	Resource        string      `json:"resource,omitempty"`
	Recipe          string      `json:"recipe,omitempty"`
	Items           []ItemCount `json:"items,omitempty"`
}

// REMOVE (client -> server)
type RemoveMsg struct {
	Type            string `json:"type" jsonschema:"required,enum=REMOVE"`
	ProtocolVersion string `json:"protocol_version" jsonschema:"required"`
	Ref             string `json:"ref" jsonschema:"required"`
	Entity          uint64 `json:"entity" jsonschema:"required,minimum=1"`
}

// RESULT (server -> client)
type ResultMsg struct {
	Type            string      `json:"type" jsonschema:"required,enum=RESULT"`
	ProtocolVersion string      `json:"protocol_version" jsonschema:"required"`
	Ref             string      `json:"ref" jsonschema:"required"`
	OK              bool        `json:"ok"`
	Entity          uint64      `json:"entity,omitempty"`
	Items           []ItemCount `json:"items,omitempty"`
	Code            string      `json:"code,omitempty"`
	Message         string      `json:"message,omitempty"`
}
