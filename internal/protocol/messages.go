package protocol

import "meadowgen/internal/gen/daycycle"

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	WorldParams     WorldParams    `json:"world_params"`
	Counts          map[string]int `json:"counts"`
}

// WorldParams captures the generation parameters a client needs to make
// sense of the streamed data.
type WorldParams struct {
	Seed             int64   `json:"seed"`
	TerrainSize      float64 `json:"terrain_size"`
	TerrainSegments  int     `json:"terrain_segments"`
	DayLengthSeconds float64 `json:"day_length_seconds"`
	TickRateHz       int     `json:"tick_rate_hz"`
}

// PARAMS (server -> client, streamed every tick)
type ParamsMsg struct {
	Type            string              `json:"type"`
	ProtocolVersion string              `json:"protocol_version"`
	Tick            uint64              `json:"tick"`
	Params          daycycle.Parameters `json:"params"`
}

// ASSETS_REQUEST (client -> server)
type AssetsRequestMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
}

// ASSETS (server -> client)
type AssetsMsg struct {
	Type            string           `json:"type"`
	ProtocolVersion string           `json:"protocol_version"`
	Terrain         TerrainSummary   `json:"terrain"`
	Instances       []InstanceRecord `json:"instances"`
}

type TerrainSummary struct {
	Size      float64 `json:"size"`
	Segments  int     `json:"segments"`
	Vertices  int     `json:"vertices"`
	Triangles int     `json:"triangles"`
}

// InstanceRecord is the wire form of one placed object. Mesh geometry
// stays server-side; clients rebuild it from the seed or fetch snapshots.
type InstanceRecord struct {
	Category  string     `json:"category"`
	Variant   string     `json:"variant"`
	Position  [3]float64 `json:"position"`
	Scale     float64    `json:"scale"`
	RotationY float64    `json:"rotation_y"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}
