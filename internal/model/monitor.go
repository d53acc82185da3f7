package model

// MonitorResponse is the main response for the monitor API
type MonitorResponse struct {
	Status      string          `json:"status"` // "healthy" or "idle"
	Connections ConnectionStats `json:"connections"`
	Rooms       RoomStats       `json:"rooms"`
	Clients     []ClientInfo    `json:"clients"`
}

// ConnectionStats holds connection-related statistics
type ConnectionStats struct {
	TotalConnected int `json:"totalConnected"` // Total clients currently connected
	ActiveFeeds    int `json:"activeFeeds"`    // Store observations currently running
}

// RoomStats holds room statistics
type RoomStats struct {
	TotalRooms  int        `json:"totalRooms"`
	RoomDetails []RoomInfo `json:"roomDetails"`
}

// RoomInfo contains information about a single room
type RoomInfo struct {
	Room      string   `json:"room"`      // "conv:<id>" or "user:<key>"
	Clients   int      `json:"clients"`   // Connected clients in this room
	ClientIDs []string `json:"clientIds"` // Their connection IDs
}

// ClientInfo contains information about a connected client
type ClientInfo struct {
	ClientID string `json:"clientId"`
	UserKey  string `json:"userKey"`
	Room     string `json:"room"`
}
