package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/moodlabs/moodchat/domain"
	"github.com/moodlabs/moodchat/usecase"
	"github.com/moodlabs/moodchat/utils/log"
)

const (
	RepliesTopic = "chat.replies"
	SystemTopic  = "chat.system"
)

// ChatFrame is what a connected client sends to request a reply.
type ChatFrame struct {
	Type           string                    `json:"type"`
	ConversationID string                    `json:"conversation_id,omitempty"`
	Message        string                    `json:"message"`
	Mood           domain.Mood               `json:"mood,omitempty"`
	History        []domain.ConversationTurn `json:"history,omitempty"`
}

// Server owns the hub and bridges chat generation to websocket
// delivery. Replies are not written back directly: every generated
// reply goes through the broker, and the reply listener fans it out to
// all of the user's open connections.
type Server struct {
	upgrader      websocket.Upgrader
	svc           *usecase.ChatService
	messageBroker domain.MessageBroker
	hub           *Hub
}

func NewServer(svc *usecase.ChatService, messageBroker domain.MessageBroker) *Server {
	hub := NewHub()

	server := &Server{
		upgrader:      websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		svc:           svc,
		messageBroker: messageBroker,
		hub:           hub,
	}

	go server.startReplyListener()
	go server.startSystemListener()

	return server
}

func (s *Server) RunWebsocketHub() {
	s.hub.Run()
}

func (s *Server) GetHub() *Hub {
	return s.hub
}

// serveClient consumes chat frames from one connection until it closes.
func (s *Server) serveClient(client *Client) {
	for {
		select {
		case payload := <-client.Receive():
			s.handleFrame(client, payload)
		case <-client.Context().Done():
			return
		}
	}
}

func (s *Server) handleFrame(client *Client, payload []byte) {
	ctx := client.Context()

	var frame ChatFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		log.WithCtx(ctx).Warn("Dropping malformed chat frame", zap.Error(err))
		return
	}
	if frame.Type != "" && frame.Type != "chat" {
		log.WithCtx(ctx).Warn("Dropping frame of unknown type", zap.String("type", frame.Type))
		return
	}
	if frame.Message == "" {
		log.WithCtx(ctx).Warn("Dropping chat frame without message")
		return
	}

	// Generation blocks on the remote model; run it off the frame loop
	// so one slow reply does not stall the connection's other frames.
	go func() {
		reply := s.svc.GenerateReply(ctx, frame.Message, frame.History, frame.Mood)

		event := domain.ReplyEvent{
			ConversationID: frame.ConversationID,
			UserID:         client.UserID(),
			Mood:           frame.Mood,
			Message:        frame.Message,
			Reply:          reply,
			Timestamp:      time.Now().UTC(),
		}
		payload, err := json.Marshal(event)
		if err != nil {
			log.WithCtx(ctx).Error("Failed to marshal reply event", zap.Error(err))
			return
		}

		if err := s.messageBroker.Publish(ctx, RepliesTopic, "", payload); err != nil {
			log.WithCtx(ctx).Error("Failed to publish reply event", zap.Error(err))
		}
	}()
}

// startReplyListener fans generated replies out to the websocket
// clients of the user they belong to.
func (s *Server) startReplyListener() {
	ctx := context.Background()

	messageChan, err := s.messageBroker.Subscribe(ctx, RepliesTopic, "")
	if err != nil {
		log.WithCtx(ctx).Error("Failed to subscribe to replies topic", zap.Error(err))
		return
	}

	log.WithCtx(ctx).Info("🎧 WebSocket server listening for generated replies")

	for {
		select {
		case msg := <-messageChan:
			var event domain.ReplyEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				log.WithCtx(ctx).Error("Failed to unmarshal reply event", zap.Error(err))
				continue
			}

			wsMessage := map[string]interface{}{
				"type":            "reply",
				"conversation_id": event.ConversationID,
				"mood":            event.Mood,
				"message":         event.Message,
				"reply":           event.Reply,
				"timestamp":       event.Timestamp,
			}
			jsonData, err := json.Marshal(wsMessage)
			if err != nil {
				log.WithCtx(ctx).Error("Failed to marshal websocket frame", zap.Error(err))
				continue
			}

			if err := s.hub.SendToUser(event.UserID, jsonData); err != nil {
				log.WithCtx(ctx).Debug("No websocket delivery for reply",
					zap.Int("user_id", event.UserID),
					zap.Error(err))
			}

		case <-ctx.Done():
			log.WithCtx(ctx).Info("🔒 Reply listener stopped")
			return
		}
	}
}

// startSystemListener fans operator notices out to every connected
// client.
func (s *Server) startSystemListener() {
	ctx := context.Background()

	messageChan, err := s.messageBroker.Subscribe(ctx, SystemTopic, "")
	if err != nil {
		log.WithCtx(ctx).Error("Failed to subscribe to system topic", zap.Error(err))
		return
	}

	for {
		select {
		case msg := <-messageChan:
			var notice domain.SystemNotice
			if err := json.Unmarshal(msg.Payload, &notice); err != nil {
				log.WithCtx(ctx).Error("Failed to unmarshal system notice", zap.Error(err))
				continue
			}

			wsMessage := map[string]interface{}{
				"type":      "system",
				"message":   notice.Message,
				"timestamp": notice.Timestamp,
			}
			jsonData, err := json.Marshal(wsMessage)
			if err != nil {
				log.WithCtx(ctx).Error("Failed to marshal websocket frame", zap.Error(err))
				continue
			}

			s.hub.Broadcast(jsonData)
			log.WithCtx(ctx).Info("📢 Broadcasted system notice",
				zap.Int("clients", s.hub.ClientCount()))

		case <-ctx.Done():
			log.WithCtx(ctx).Info("🔒 System listener stopped")
			return
		}
	}
}
