package hub

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"ChatSync/internal/event"
	"ChatSync/internal/identity"
	"ChatSync/internal/model"
	"ChatSync/internal/service"

	"github.com/gorilla/websocket"
)

const (
	shardCount = 64 // tune: 16/64/128 depending on load

	// room prefixes: a room is either one conversation's message feed or
	// one user's conversation-list feed
	roomConversation = "conv:"
	roomUser         = "user:"
)

// ConversationRoom and UserRoom build the room key for ServeWS.
func ConversationRoom(conversationID string) string { return roomConversation + conversationID }
func UserRoom(userKey string) string                { return roomUser + userKey }

type inboundMessage struct {
	event  event.WsEvent
	client *Client
}

type clientBucket struct {
	sync.RWMutex
	rooms map[string]map[string]*Client
}

// Hub fans engine observations out to websocket clients. Each room is backed
// by at most one store observation, started when the first client joins and
// cancelled when the last one leaves.
type Hub struct {
	shards     [shardCount]*clientBucket
	register   chan *Client
	unregister chan *Client
	inbound    chan inboundMessage

	chat service.ChatService

	feedsMu sync.Mutex
	feeds   map[string]*feed

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

type feed struct {
	refs   int
	cancel context.CancelFunc
}

func NewHub(chat service.ChatService) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		register:   make(chan *Client, 1024),
		unregister: make(chan *Client, 1024),
		inbound:    make(chan inboundMessage, 4096), // buffer for burst handling
		chat:       chat,
		feeds:      make(map[string]*feed),
		ctx:        ctx,
		cancel:     cancel,
	}

	for i := 0; i < shardCount; i++ {
		h.shards[i] = &clientBucket{
			rooms: make(map[string]map[string]*Client),
		}
	}

	// run manager loop
	go h.run()

	// start worker loop
	for i := 0; i < workerPoolSize; i++ {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			for {
				select {
				case <-h.ctx.Done():
					return
				case in, ok := <-h.inbound:
					if !ok {
						return
					}

					h.handleEvent(in.event, in.client)
				}
			}
		}()
	}

	return h
}

func (h *Hub) handleEvent(ev event.WsEvent, c *Client) {
	switch ev.Event {
	case event.EventClientMessage:
		if !strings.HasPrefix(c.room, roomConversation) {
			log.Printf("client %s sent a message outside a conversation room", c.ID)
			return
		}
		conversationID := strings.TrimPrefix(c.room, roomConversation)

		var msg event.ClientMessage
		if err := json.Unmarshal(ev.Message, &msg); err != nil {
			log.Printf("failed to unmarshal client message: %v", err)
			return
		}

		ctx, cancel := context.WithTimeout(h.ctx, 15*time.Second)
		defer cancel()

		var err error
		switch msg.Type {
		case string(model.KindPhoto):
			photo := model.Message{
				ID:       identity.MessageID(msg.OtherUserEmail, c.session.Email, time.Now()),
				Kind:     model.KindPhoto,
				MediaURL: msg.FileLink,
				SentAt:   time.Now(),
			}
			err = h.chat.Send(ctx, c.session, conversationID, msg.OtherUserEmail, msg.Name, photo)
		default:
			err = h.chat.SendText(ctx, c.session, conversationID, msg.OtherUserEmail, msg.Name, msg.Body)
		}
		if err != nil {
			log.Printf("send from client %s failed: %v", c.ID, err)
			c.Send(errorEvent(c.room, "send_failed", err))
		}
	default:
		log.Printf("unknown event type: %s", ev.Event)
	}
}

func errorEvent(room, code string, err error) event.WsEvent {
	raw, _ := json.Marshal(event.ErrorPayload{Code: code, Message: err.Error()})
	return event.WsEvent{Event: event.EventError, Room: room, Message: raw}
}

func (h *Hub) publishToRoom(ev event.WsEvent, room string) {
	sh := getShard(room)
	b := h.shards[sh]

	// collect clients while holding RLock
	b.RLock()
	clients := make([]*Client, 0, len(b.rooms[room]))
	for _, c := range b.rooms[room] {
		clients = append(clients, c)
	}
	b.RUnlock()

	// deliver to clients without holding lock
	for _, c := range clients {
		select {
		case c.egress <- ev:
			// enqueued
		case <-time.After(sendTimeout):
			// egress full -> apply policy
			log.Printf("egress full for client %s in room %s", c.ID, room)
			if kickOnFull {
				h.unregister <- c
			}
		}
	}
}

func getShard(room string) uint32 {
	if room == "" {
		return 0
	}

	h := sha1.Sum([]byte(room))
	return binary.BigEndian.Uint32(h[:4]) % shardCount
}

func (h *Hub) addClient(c *Client) {
	sh := getShard(c.room)
	b := h.shards[sh]
	b.Lock()
	room, ok := b.rooms[c.room]
	if !ok {
		room = make(map[string]*Client)
		b.rooms[c.room] = room
	}
	room[c.ID] = c
	b.Unlock()

	h.acquireFeed(c.room)
	log.Printf("client %s registered in room %s (shard %d)", c.ID, c.room, sh)
}

func (h *Hub) removeClient(c *Client) {
	sh := getShard(c.room)
	b := h.shards[sh]
	b.Lock()
	removed := false
	if room, ok := b.rooms[c.room]; ok {
		if _, exists := room[c.ID]; exists {
			delete(room, c.ID)
			removed = true
		}
		if len(room) == 0 {
			delete(b.rooms, c.room)
		}
	}
	b.Unlock()

	if removed {
		h.releaseFeed(c.room)
		c.Close()
		log.Printf("client %s removed from room %s (shard %d)", c.ID, c.room, sh)
	}
}

// acquireFeed starts the room's store observation on first use.
func (h *Hub) acquireFeed(room string) {
	h.feedsMu.Lock()
	defer h.feedsMu.Unlock()

	if f, ok := h.feeds[room]; ok {
		f.refs++
		return
	}

	ctx, cancel := context.WithCancel(h.ctx)
	h.feeds[room] = &feed{refs: 1, cancel: cancel}
	go h.runFeed(ctx, room)
}

func (h *Hub) releaseFeed(room string) {
	h.feedsMu.Lock()
	defer h.feedsMu.Unlock()

	f, ok := h.feeds[room]
	if !ok {
		return
	}
	f.refs--
	if f.refs <= 0 {
		f.cancel()
		delete(h.feeds, room)
	}
}

// runFeed pumps one observation into the room until its context ends.
func (h *Hub) runFeed(ctx context.Context, room string) {
	switch {
	case strings.HasPrefix(room, roomConversation):
		conversationID := strings.TrimPrefix(room, roomConversation)
		ch, err := h.chat.ObserveMessages(ctx, conversationID)
		if err != nil {
			log.Printf("failed to observe %s: %v", conversationID, err)
			return
		}
		for snapshot := range ch {
			raw, err := json.Marshal(event.MessagesSnapshot{
				ConversationID: conversationID,
				Messages:       snapshot,
			})
			if err != nil {
				log.Printf("failed to marshal snapshot for %s: %v", conversationID, err)
				continue
			}
			h.publishToRoom(event.WsEvent{Event: event.EventMessagesSnapshot, Room: room, Message: raw}, room)
		}
	case strings.HasPrefix(room, roomUser):
		userKey := strings.TrimPrefix(room, roomUser)
		ch, err := h.chat.ObserveConversations(ctx, userKey)
		if err != nil {
			log.Printf("failed to observe conversations of %s: %v", userKey, err)
			return
		}
		for snapshot := range ch {
			raw, err := json.Marshal(event.ConversationsSnapshot{
				UserKey:       userKey,
				Conversations: snapshot,
			})
			if err != nil {
				log.Printf("failed to marshal conversations for %s: %v", userKey, err)
				continue
			}
			h.publishToRoom(event.WsEvent{Event: event.EventConversationsSnapshot, Room: room, Message: raw}, room)
		}
	default:
		log.Printf("unknown room kind: %s", room)
	}
}

func (h *Hub) Stop() {
	h.cancel()

	// Close all client connections
	for _, shard := range h.shards {
		shard.RLock()
		for _, room := range shard.rooms {
			for _, client := range room {
				client.Close()
			}
		}
		shard.RUnlock()
	}

	close(h.inbound)
	h.wg.Wait()
}

func (h *Hub) run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		}
	}
}

var (
	websocketUpgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin,
	}
)

func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	switch origin {
	case "", "http://localhost:3000", "http://localhost:4200":
		return true
	default:
		return false
	}
}

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, session model.Session, room string) {
	conn, err := websocketUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	RegisterClient(session, room, conn, h)
}
