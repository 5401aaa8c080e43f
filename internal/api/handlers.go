package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/example/go-chatapp/internal/account"
	"github.com/example/go-chatapp/internal/server"
)

const defaultHistoryLimit = 50

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AddFriendRequest struct {
	UserA string `json:"userA"`
	UserB string `json:"userB"`
}

// StatusResponse is the success-flag body shared by the auth and friend
// endpoints.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *ChatApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *ChatApp) register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	err := s.accounts.Register(req.Username, req.Password)
	switch {
	case err == nil:
		s.log.Printf("registered user via API: %q", req.Username)
		s.writeJson(w, http.StatusOK, StatusResponse{
			Success: true,
			Message: "Registration successful",
		})
	case errors.Is(err, account.ErrUserExists):
		s.writeJson(w, http.StatusConflict, StatusResponse{
			Success: false,
			Message: "Username already exists. Please choose a different username.",
		})
	default:
		s.writeJson(w, http.StatusBadRequest, StatusResponse{
			Success: false,
			Message: "Invalid username or password. Username and password cannot be empty.",
		})
	}
}

func (s *ChatApp) login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !s.accounts.Login(req.Username, req.Password) {
		s.writeJson(w, http.StatusUnauthorized, StatusResponse{
			Success: false,
			Message: "Invalid username or password",
		})
		return
	}

	token, err := s.createJwtForSession(req.Username, defaultJwtExpiration)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	http.SetCookie(w, createJwtCookie(token, defaultJwtExpiration))

	s.log.Printf("login successful for %q", req.Username)
	s.writeJson(w, http.StatusOK, StatusResponse{
		Success: true,
		Message: "Login successful",
	})
}

func (s *ChatApp) logout(w http.ResponseWriter, _ *http.Request) {
	// instruct browser to delete cookie by overwriting it with an expired token
	http.SetCookie(w, createJwtCookie("", 0))
	w.WriteHeader(http.StatusNoContent)
}

func (s *ChatApp) session(w http.ResponseWriter, r *http.Request) {
	username, ok := Username(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]any{
		"username": username,
	})
}

func (s *ChatApp) addFriend(w http.ResponseWriter, r *http.Request) {
	var req AddFriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.UserA == "" {
		// default the requesting side to the session user
		if username, ok := Username(r.Context()); ok {
			req.UserA = username
		}
	}

	created, reason := s.router.AddFriend(req.UserA, req.UserB)

	// always 200 OK; the success flag carries the result
	s.writeJson(w, http.StatusOK, StatusResponse{
		Success: created,
		Message: reason,
	})
}

func (s *ChatApp) listFriends(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	friends := s.friends.Friends(username)

	s.writeJson(w, http.StatusOK, map[string]any{
		"username": username,
		"friends":  friends,
		"count":    len(friends),
	})
}

func (s *ChatApp) chatroomId(w http.ResponseWriter, r *http.Request) {
	userA := r.URL.Query().Get("userA")
	userB := r.URL.Query().Get("userB")

	id, err := s.friends.ChatroomId(userA, userB)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]string{
		"chatroomId": id,
	})
}

func (s *ChatApp) messageHistory(w http.ResponseWriter, r *http.Request) {
	chatroomId := r.URL.Query().Get("chatroomId")
	if chatroomId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	limit := defaultHistoryLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil {
			errResp := NewBadRequestError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
	}

	messages := s.messages.LoadRecent(chatroomId, limit)

	s.writeJson(w, http.StatusOK, map[string]any{
		"chatroomId": chatroomId,
		"count":      len(messages),
		"messages":   messages,
	})
}

func (s *ChatApp) serveWs(w http.ResponseWriter, r *http.Request) {
	username, ok := Username(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// if no origin header, allow the request
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := server.NewClient(username, conn, s.hub, s.router, s.log)

	s.hub.Register(client)
	go client.Write()
	go client.Read()
}
