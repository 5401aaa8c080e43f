package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"

	"github.com/example/go-chatapp/internal/account"
	"github.com/example/go-chatapp/internal/chat"
	"github.com/example/go-chatapp/internal/config"
	"github.com/example/go-chatapp/internal/server"
)

type ChatApp struct {
	log            *log.Logger
	mux            *http.Server
	hub            *server.Hub
	router         *chat.Router
	accounts       *account.Manager
	friends        *chat.FriendshipGraph
	messages       *chat.MessageLog
	signingKey     []byte
	allowedOrigins []string
}

func NewChatApp(mux *http.ServeMux, logger *log.Logger, hub *server.Hub, router *chat.Router,
	accounts *account.Manager, friends *chat.FriendshipGraph, messages *chat.MessageLog,
	cfg *config.Config) *ChatApp {
	s := &ChatApp{
		log:            logger,
		hub:            hub,
		router:         router,
		accounts:       accounts,
		friends:        friends,
		messages:       messages,
		signingKey:     cfg.SigningKey,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("POST /api/auth/register", s.register)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.Handle("GET /api/auth/logout", s.authMiddleware(s.logout))
	mux.Handle("GET /api/auth/session", s.authMiddleware(s.session))
	mux.Handle("POST /api/friends/add", s.authMiddleware(s.addFriend))
	mux.Handle("GET /api/friends/list", s.authMiddleware(s.listFriends))
	mux.Handle("GET /api/friends/chatroom-id", s.authMiddleware(s.chatroomId))
	mux.Handle("GET /api/messages/history", s.authMiddleware(s.messageHistory))
	mux.Handle("GET /ws", s.authMiddleware(s.serveWs))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *ChatApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *ChatApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
