package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/handlers"

	"github.com/campusconnect/campus-connect/internal/config"
	"github.com/campusconnect/campus-connect/internal/database"
	"github.com/campusconnect/campus-connect/internal/notify"
	"github.com/campusconnect/campus-connect/internal/realtime"
)

type App struct {
	log            *log.Logger
	db             database.Repository
	srv            *http.Server
	hub            *realtime.Hub
	notifier       *notify.Service
	validate       *validator.Validate
	signingKey     []byte
	tokenTTL       time.Duration
	allowedOrigins []string
}

func NewApp(mux *http.ServeMux, logger *log.Logger, hub *realtime.Hub, db database.Repository, notifier *notify.Service, cfg *config.Config) *App {
	tokenTTL := cfg.TokenExpiration
	if tokenTTL == 0 {
		tokenTTL = config.DefaultTokenExpiration
	}

	s := &App{
		log:            logger,
		db:             db,
		hub:            hub,
		notifier:       notifier,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		signingKey:     cfg.SigningKey,
		tokenTTL:       tokenTTL,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)

	mux.HandleFunc("POST /api/auth/register", s.register)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("POST /api/auth/logout", s.authMiddleware(s.logout))
	mux.HandleFunc("GET /api/auth/me", s.authMiddleware(s.me))

	mux.HandleFunc("GET /api/users/online", s.authMiddleware(s.onlineUsers))

	mux.HandleFunc("GET /api/messages/conversations", s.authMiddleware(s.listConversations))
	mux.HandleFunc("POST /api/messages/conversation", s.authMiddleware(s.getOrCreateConversation))
	mux.HandleFunc("POST /api/messages", s.authMiddleware(s.sendMessage))
	mux.HandleFunc("GET /api/messages/{conversationId}", s.authMiddleware(s.getMessages))
	mux.HandleFunc("PUT /api/messages/{conversationId}/read", s.authMiddleware(s.markMessagesRead))

	mux.HandleFunc("GET /api/notifications", s.authMiddleware(s.listNotifications))
	mux.HandleFunc("PUT /api/notifications/read-all", s.authMiddleware(s.markAllNotificationsRead))
	mux.HandleFunc("PUT /api/notifications/{id}/read", s.authMiddleware(s.markNotificationRead))
	mux.HandleFunc("DELETE /api/notifications/{id}", s.authMiddleware(s.deleteNotification))

	mux.HandleFunc("POST /api/admin/notifications", s.authMiddleware(s.adminMiddleware(s.createNotification)))

	mux.HandleFunc("GET /ws", s.authMiddleware(s.serveWs))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "Authorization"}),
		handlers.AllowCredentials(),
	)(mux)

	s.srv = &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: s.errorHandler(h),
	}

	return s
}

func (s *App) Handler() http.Handler {
	return s.srv.Handler
}

func (s *App) Start() error {
	s.log.Printf("starting server on %s", s.srv.Addr)
	return s.srv.ListenAndServe()
}

func (s *App) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
