package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"messenger/internal/domain"
	"messenger/internal/event"
	"messenger/internal/service"
)

// Inbound event types accepted on a connection. The envelope below is the
// closed inbound contract; unknown types are logged and ignored.
const (
	inboundSendMessage = "message:send"
	inboundMarkRead    = "message:read"
	inboundTyping      = "typing"
)

type inboundEnvelope struct {
	Type           string  `json:"type"`
	ConversationID int64   `json:"conversation_id"`
	MessageID      int64   `json:"message_id"`
	Content        string  `json:"content"`
	FilePath       *string `json:"file_path,omitempty"`
	FileType       *string `json:"file_type,omitempty"`
	IsTyping       bool    `json:"is_typing"`
}

func normalizeAllowedOrigins(origins []string) map[string]struct{} {
	res := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		o := strings.TrimSpace(strings.ToLower(origin))
		if o != "" {
			res[o] = struct{}{}
		}
	}
	return res
}

func makeCheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := normalizeAllowedOrigins(allowedOrigins)
	if len(allowed) == 0 {
		return func(r *http.Request) bool {
			return false
		}
	}

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
		if origin == "" {
			return false
		}
		if _, ok := allowed[origin]; ok {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		normalized := strings.ToLower(fmt.Sprintf("%s://%s", u.Scheme, u.Host))
		_, ok := allowed[normalized]
		return ok
	}
}

// extractToken pulls the bearer credential from the Authorization header or
// from the Sec-WebSocket-Protocol list ("bearer, <token>"), which browser
// clients use because the WebSocket API cannot set arbitrary headers.
func extractToken(r *http.Request) string {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		if token := strings.TrimSpace(authHeader[len("Bearer "):]); token != "" {
			return token
		}
	}

	protocolHeader := r.Header.Get("Sec-WebSocket-Protocol")
	if protocolHeader != "" {
		parts := strings.Split(protocolHeader, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) >= 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	return ""
}

// MakeHandler returns the HTTP handler for the /ws endpoint. It drives the
// connection lifecycle: authenticate, register, announce presence, dispatch
// inbound events, and clean up exactly once on close.
func MakeHandler(
	registry *Registry,
	auth *service.AuthService,
	users domain.UserRepository,
	delivery *service.DeliveryService,
	relay *service.SignalRelay,
	presence *service.PresenceBroadcaster,
	log *zap.Logger,
	allowedOrigins []string,
	sendBuffer int,
) http.HandlerFunc {
	checkOrigin := makeCheckOrigin(allowedOrigins)
	upgrader := websocket.Upgrader{
		CheckOrigin:  checkOrigin,
		Subprotocols: []string{"bearer"},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if !checkOrigin(r) {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}

		user, err := auth.ValidateCredential(r.Context(), extractToken(r))
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		client := NewClient(user.ID, conn, sendBuffer, log)
		cameOnline, err := registry.Register(user.ID, client)
		if err != nil {
			log.Error("register connection", zap.Int64("user_id", user.ID), zap.Error(err))
			client.Close()
			return
		}

		go client.WritePump()

		// After the upgrade the request context lives until this handler
		// returns, so in-flight persistence writes are never cancelled by
		// a dying socket. Cleanup below runs on its own context.
		ctx := r.Context()

		if err := users.TouchLastSeen(ctx, user.ID); err != nil {
			log.Warn("touch last seen", zap.Int64("user_id", user.ID), zap.Error(err))
		}
		if cameOnline {
			presence.AnnounceOnline(ctx, user.ID)
		}
		log.Info("connection established",
			zap.Int64("user_id", user.ID),
			zap.String("conn_id", client.ID))

		defer func() {
			client.Close()
			if wentOffline := registry.Deregister(client); wentOffline {
				presence.AnnounceOffline(context.Background(), user.ID)
			}
			log.Info("connection closed",
				zap.Int64("user_id", user.ID),
				zap.String("conn_id", client.ID))
		}()

		for {
			var in inboundEnvelope
			if err := conn.ReadJSON(&in); err != nil {
				return
			}

			switch in.Type {
			case inboundSendMessage:
				_, err := delivery.SendMessage(ctx, user.ID, service.SendMessageInput{
					ConversationID: in.ConversationID,
					Content:        in.Content,
					FilePath:       in.FilePath,
					FileType:       in.FileType,
				})
				if err != nil {
					log.Debug("send message", zap.Int64("user_id", user.ID), zap.Error(err))
					sendError(client, userFacing(err, "failed to send message"))
				}

			case inboundMarkRead:
				if err := delivery.MarkRead(ctx, user.ID, in.ConversationID, in.MessageID); err != nil {
					log.Debug("mark read", zap.Int64("user_id", user.ID), zap.Error(err))
					sendError(client, userFacing(err, "failed to mark message as read"))
				}

			case inboundTyping:
				relay.RelayTyping(ctx, user.ID, in.ConversationID, in.IsTyping)

			default:
				log.Debug("unknown inbound event",
					zap.String("event", in.Type),
					zap.Int64("user_id", user.ID))
			}
		}
	}
}

// userFacing maps domain sentinels to messages safe to echo back; anything
// else gets the generic fallback.
func userFacing(err error, fallback string) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not found"
	case errors.Is(err, domain.ErrInvalidInput):
		return err.Error()
	default:
		return fallback
	}
}

func sendError(c *Client, msg string) {
	payload, err := event.Marshal(event.NewError(msg))
	if err != nil {
		return
	}
	c.Enqueue(payload)
}
