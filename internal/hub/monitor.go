package hub

import (
	"ChatSync/internal/model"
)

// MonitorService provides methods to gather hub statistics
type MonitorService struct {
	hub *Hub
}

// NewMonitorService creates a new monitor service
func NewMonitorService(hub *Hub) *MonitorService {
	return &MonitorService{hub: hub}
}

// GetStats gathers and returns all hub statistics
func (ms *MonitorService) GetStats() model.MonitorResponse {
	roomStats, clients := ms.getRoomStats()

	// Determine overall health status
	status := "healthy"
	if len(clients) == 0 {
		status = "idle"
	}

	return model.MonitorResponse{
		Status: status,
		Connections: model.ConnectionStats{
			TotalConnected: len(clients),
			ActiveFeeds:    ms.getFeedCount(),
		},
		Rooms:   roomStats,
		Clients: clients,
	}
}

// getRoomStats walks all shards and collects room membership
func (ms *MonitorService) getRoomStats() (model.RoomStats, []model.ClientInfo) {
	stats := model.RoomStats{
		RoomDetails: make([]model.RoomInfo, 0),
	}
	clients := make([]model.ClientInfo, 0)

	for _, bucket := range ms.hub.shards {
		bucket.RLock()
		for room, members := range bucket.rooms {
			ids := make([]string, 0, len(members))
			for id, c := range members {
				ids = append(ids, id)
				clients = append(clients, model.ClientInfo{
					ClientID: id,
					UserKey:  c.session.Key(),
					Room:     room,
				})
			}

			stats.RoomDetails = append(stats.RoomDetails, model.RoomInfo{
				Room:      room,
				Clients:   len(members),
				ClientIDs: ids,
			})
			stats.TotalRooms++
		}
		bucket.RUnlock()
	}

	return stats, clients
}

func (ms *MonitorService) getFeedCount() int {
	ms.hub.feedsMu.Lock()
	defer ms.hub.feedsMu.Unlock()
	return len(ms.hub.feeds)
}
