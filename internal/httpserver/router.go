package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"messenger/internal/config"
	"messenger/internal/domain"
	"messenger/internal/security"
	"messenger/internal/service"
	"messenger/internal/ws"
)

var validate = validator.New()

// NewRouter constructs the main HTTP router and wires routes, services, and
// middleware.
func NewRouter(
	cfg *config.Config,
	stores *domain.Stores,
	registry *ws.Registry,
	tokenSvc *security.TokenService,
	passwordHasher *security.PasswordHasher,
	encryptor *security.Encryptor,
	log *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Services
	guard := service.NewAccessGuard(stores.Conversations)
	authSvc := service.NewAuthService(stores.Users, tokenSvc, passwordHasher)
	userSvc := service.NewUserService(stores.Users)
	deliverySvc := service.NewDeliveryService(guard, stores.Conversations, stores.Messages, stores.Users, encryptor, registry, log, cfg.MessageMaxLength)
	convSvc := service.NewConversationService(guard, stores.Conversations, stores.Messages, stores.Users, deliverySvc)
	contactSvc := service.NewContactService(stores.Contacts, stores.Users, registry)
	relaySvc := service.NewSignalRelay(guard, registry, log)
	presenceSvc := service.NewPresenceBroadcaster(stores.Contacts, registry, log)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": cfg.AppName, "version": "1.0.0"})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Auth routes (no auth required)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", handleRegister(authSvc))
			r.Post("/login", handleLogin(authSvc))
			r.Post("/refresh", handleRefresh(authSvc))
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(authSvc))

			r.Get("/auth/me", handleMe())

			r.Route("/users", func(r chi.Router) {
				r.Get("/search", handleSearchUsers(userSvc))
				r.Get("/{userID}", handleGetUser(userSvc))
				r.Patch("/me", handleUpdateProfile(userSvc))
			})

			r.Route("/contacts", func(r chi.Router) {
				r.Get("/", handleListContacts(contactSvc))
				r.Get("/online", handleListOnlineContacts(contactSvc))
				r.Post("/", handleAddContact(contactSvc))
				r.Delete("/{contactID}", handleRemoveContact(contactSvc))
			})

			r.Route("/conversations", func(r chi.Router) {
				r.Post("/", handleCreateConversation(convSvc))
				r.Get("/", handleListConversations(convSvc))
				r.Get("/{conversationID}/messages", handleListMessages(deliverySvc, cfg.MessagePageSize))
				r.Post("/{conversationID}/messages", handleSendMessage(deliverySvc))
				r.Post("/{conversationID}/messages/{messageID}/read", handleMarkRead(deliverySvc))
			})

			r.Mount("/uploads", UploadRoutes(cfg))
		})
	})

	// WebSocket endpoint
	r.Get("/ws", ws.MakeHandler(registry, authSvc, stores.Users, deliverySvc, relaySvc, presenceSvc, log, cfg.CORSOrigins, cfg.SendBufferPerSocket))

	return r
}

// writeJSON is a small helper to send JSON responses.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps domain sentinels to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, domain.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func decodeAndValidate(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ErrInvalidInput
	}
	if err := validate.Struct(v); err != nil {
		return domain.ErrInvalidInput
	}
	return nil
}
