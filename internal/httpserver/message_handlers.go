package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"messenger/internal/service"
)

type sendMessageRequest struct {
	Content  string  `json:"content"`
	FilePath *string `json:"file_path,omitempty"`
	FileType *string `json:"file_type,omitempty"`
}

// handleSendMessage is the HTTP entry into the same delivery pipeline the
// socket uses, so status transitions and fan-out behave identically on both
// paths.
func handleSendMessage(deliverySvc *service.DeliveryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		conversationID, err := int64URLParam(r, "conversationID")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid conversation id"})
			return
		}
		var req sendMessageRequest
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, err)
			return
		}

		msg, err := deliverySvc.SendMessage(r.Context(), user.ID, service.SendMessageInput{
			ConversationID: conversationID,
			Content:        req.Content,
			FilePath:       req.FilePath,
			FileType:       req.FileType,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, deliverySvc.ToResponse(r.Context(), msg))
	}
}

func handleListMessages(deliverySvc *service.DeliveryService, pageSize int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		conversationID, err := int64URLParam(r, "conversationID")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid conversation id"})
			return
		}

		limit := pageSize
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= pageSize {
				limit = n
			}
		}
		var before time.Time
		if raw := r.URL.Query().Get("before"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid before timestamp, expected RFC3339"})
				return
			}
			before = t
		}

		msgs, err := deliverySvc.ListMessages(r.Context(), user.ID, conversationID, before, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
	}
}

func handleMarkRead(deliverySvc *service.DeliveryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		conversationID, err := int64URLParam(r, "conversationID")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid conversation id"})
			return
		}
		messageID, err := int64URLParam(r, "messageID")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid message id"})
			return
		}

		if err := deliverySvc.MarkRead(r.Context(), user.ID, conversationID, messageID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func int64URLParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
