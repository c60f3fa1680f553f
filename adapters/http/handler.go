package http

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/moodlabs/moodchat/adapters/websocket"
	"github.com/moodlabs/moodchat/config"
	"github.com/moodlabs/moodchat/domain"
	"github.com/moodlabs/moodchat/usecase"
	"github.com/moodlabs/moodchat/utils/log"
)

const (
	// JWT settings
	JWTExpiry = 24 * time.Hour

	// Generation routes share one bounded pool so a burst of slow
	// model calls cannot pile up without limit.
	MaxConcurrentGenerations = 10

	MaxMessageLength = 8 * 1024
)

// ChatHandler serves the REST chat surface: token issuance, reply
// generation, and title generation.
type ChatHandler struct {
	chatService   *usecase.ChatService
	messageBroker domain.MessageBroker
	hasher        domain.Hasher
	jwtSecret     []byte
	apiKey        string
	apiSecretHash string
}

type ChatRequest struct {
	ConversationID string                    `json:"conversation_id,omitempty"`
	Message        string                    `json:"message"`
	Mood           domain.Mood               `json:"mood,omitempty"`
	History        []domain.ConversationTurn `json:"history,omitempty"`
}

type ChatResponse struct {
	ConversationID string      `json:"conversation_id,omitempty"`
	Mood           domain.Mood `json:"mood"`
	Reply          string      `json:"reply"`
	Timestamp      time.Time   `json:"timestamp"`
}

type TitleRequest struct {
	FirstMessage string `json:"first_message"`
}

type TitleResponse struct {
	Title string `json:"title"`
}

type TokenRequest struct {
	UserID int `json:"user_id"`
}

type SystemNoticeRequest struct {
	Message string `json:"message"`
}

type JWTClaims struct {
	UserID   int    `json:"user_id"`
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}

func NewChatHandler(chatService *usecase.ChatService, messageBroker domain.MessageBroker, hash domain.Hasher, cfg *config.Config) *ChatHandler {
	return &ChatHandler{
		chatService:   chatService,
		messageBroker: messageBroker,
		hasher:        hash,
		jwtSecret:     []byte(cfg.JWTSecret),
		apiKey:        cfg.APIKey,
		apiSecretHash: cfg.APISecretHash,
	}
}

// GenerateJWT creates a JWT token for authenticated clients. Callers
// present the shared API key and secret; only the secret's SHA-256
// digest is held in configuration.
func (h *ChatHandler) GenerateJWT(c echo.Context) error {
	apiKey := c.Request().Header.Get("X-API-Key")
	apiSecret := c.Request().Header.Get("X-API-Secret")

	keyOK := subtle.ConstantTimeCompare([]byte(apiKey), []byte(h.apiKey)) == 1
	secretOK := h.hasher.Verify([]byte(apiSecret), h.apiSecretHash)
	if !keyOK || !secretOK {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	var req TokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.UserID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	clientID, err := generateClientID()
	if err != nil {
		log.WithCtx(c.Request().Context()).Error("Failed to generate client id", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}

	claims := &JWTClaims{
		UserID:   req.UserID,
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(JWTExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "moodchat",
			Subject:   "chat",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(h.jwtSecret)
	if err != nil {
		log.WithCtx(c.Request().Context()).Error("Failed to sign JWT", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"token": tokenString,
		"type":  "Bearer",
	})
}

// JWTMiddleware authenticates bearer tokens and stashes the caller's
// identity in both the echo context and the request context, so the
// logger picks it up downstream.
func (h *ChatHandler) JWTMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization header")
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization format")
		}

		token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return h.jwtSecret, nil
		})
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		}

		claims, ok := token.Claims.(*JWTClaims)
		if !ok || !token.Valid {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token claims")
		}

		c.Set("user_id", claims.UserID)
		c.Set("client_id", claims.ClientID)

		ctx := c.Request().Context()
		ctx = context.WithValue(ctx, "user_id", claims.UserID)
		ctx = context.WithValue(ctx, "client_id", claims.ClientID)
		c.SetRequest(c.Request().WithContext(ctx))

		return next(c)
	}
}

// RateLimitMiddleware bounds in-flight generation requests.
func (h *ChatHandler) RateLimitMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	semaphore := make(chan struct{}, MaxConcurrentGenerations)
	return func(c echo.Context) error {
		select {
		case semaphore <- struct{}{}:
			defer func() { <-semaphore }()
			return next(c)
		default:
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many concurrent requests")
		}
	}
}

// Chat generates a reply for the caller's message. The response is
// always 200 with a reply string; generation failures surface as the
// service's fallback sentences, never as HTTP errors.
func (h *ChatHandler) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}
	if len(req.Message) > MaxMessageLength {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "message is too long")
	}

	ctx := c.Request().Context()
	if req.ConversationID != "" {
		ctx = context.WithValue(ctx, "conversation_id", req.ConversationID)
	}

	reply := h.chatService.GenerateReply(ctx, req.Message, req.History, req.Mood)
	now := time.Now().UTC()

	h.publishReply(ctx, domain.ReplyEvent{
		ConversationID: req.ConversationID,
		UserID:         c.Get("user_id").(int),
		Mood:           req.Mood,
		Message:        req.Message,
		Reply:          reply,
		Timestamp:      now,
	})

	return c.JSON(http.StatusOK, ChatResponse{
		ConversationID: req.ConversationID,
		Mood:           req.Mood,
		Reply:          reply,
		Timestamp:      now,
	})
}

// ChatTitle generates a short title for a conversation's opening
// message.
func (h *ChatHandler) ChatTitle(c echo.Context) error {
	var req TitleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.FirstMessage == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "first_message is required")
	}

	title := h.chatService.GenerateTitle(c.Request().Context(), req.FirstMessage)

	return c.JSON(http.StatusOK, TitleResponse{Title: title})
}

// SystemNotice broadcasts an operator announcement to every connected
// websocket client. Guarded by the same shared API credentials as
// token issuance; this is an operator surface, not a user one.
func (h *ChatHandler) SystemNotice(c echo.Context) error {
	apiKey := c.Request().Header.Get("X-API-Key")
	apiSecret := c.Request().Header.Get("X-API-Secret")

	keyOK := subtle.ConstantTimeCompare([]byte(apiKey), []byte(h.apiKey)) == 1
	secretOK := h.hasher.Verify([]byte(apiSecret), h.apiSecretHash)
	if !keyOK || !secretOK {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	var req SystemNoticeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}

	notice := domain.SystemNotice{
		Message:   req.Message,
		Timestamp: time.Now().UTC(),
	}
	payload, err := json.Marshal(notice)
	if err != nil {
		log.WithCtx(c.Request().Context()).Error("Failed to marshal system notice", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to publish notice")
	}
	if err := h.messageBroker.Publish(c.Request().Context(), websocket.SystemTopic, "", payload); err != nil {
		log.WithCtx(c.Request().Context()).Error("Failed to publish system notice", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to publish notice")
	}

	return c.JSON(http.StatusAccepted, map[string]string{"status": "published"})
}

// publishReply notifies websocket listeners about a generated reply.
// Delivery is best effort; a full or closed broker never fails the
// HTTP request.
func (h *ChatHandler) publishReply(ctx context.Context, event domain.ReplyEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.WithCtx(ctx).Error("Failed to marshal reply event", zap.Error(err))
		return
	}
	if err := h.messageBroker.Publish(ctx, websocket.RepliesTopic, "", payload); err != nil {
		log.WithCtx(ctx).Warn("Failed to publish reply event", zap.Error(err))
	}
}

// Health check endpoint
func (h *ChatHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "moodchat",
	})
}

// generateClientID creates a unique identifier for one token's
// websocket connections.
func generateClientID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", bytes), nil
}
