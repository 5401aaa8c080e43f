package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/go-chatapp/internal/account"
	"github.com/example/go-chatapp/internal/chat"
	"github.com/example/go-chatapp/internal/config"
	"github.com/example/go-chatapp/internal/server"
	"github.com/example/go-chatapp/internal/stats"
	"github.com/example/go-chatapp/internal/store"
	"github.com/example/go-chatapp/internal/testutil"
	"github.com/example/go-chatapp/internal/types"
)

type testApp struct {
	*ChatApp
	mux      *http.ServeMux
	accounts *account.Manager
	messages *chat.MessageLog
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	logger := testutil.TestLogger(t)
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err, "expected file store in temp dir")

	accounts := account.NewManager(logger, st)
	friends := chat.NewFriendshipGraph(logger, st)
	messages := chat.NewMessageLog(logger, st)

	hub := server.NewHub(logger, stats.NopStats{})
	router := chat.NewRouter(logger, chat.NewPresenceRegistry(), friends, messages,
		accounts, hub, stats.NopStats{})

	cfg := &config.Config{
		ServerAddr:     "localhost:0",
		SigningKey:     []byte("test-signing-key"),
		AllowedOrigins: []string{"http://localhost:3000"},
	}

	mux := http.NewServeMux()
	app := NewChatApp(mux, logger, hub, router, accounts, friends, messages, cfg)

	return &testApp{ChatApp: app, mux: mux, accounts: accounts, messages: messages}
}

func (a *testApp) do(t *testing.T, method, target string, body any, asUser string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body), "expected request body to encode")
	}

	req := httptest.NewRequest(method, target, &buf)
	if asUser != "" {
		token, err := a.createJwtForSession(asUser, defaultJwtExpiration)
		require.NoError(t, err, "expected a session token")
		req.AddCookie(createJwtCookie(token, defaultJwtExpiration))
	}

	rec := httptest.NewRecorder()
	a.mux.ServeHTTP(rec, req)
	return rec
}

func decodeStatus(t *testing.T, rec *httptest.ResponseRecorder) StatusResponse {
	t.Helper()

	var resp StatusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp), "expected a status body")
	return resp
}

func TestRegister(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/api/auth/register",
		CredentialsRequest{Username: "alice", Password: "secret"}, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeStatus(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "Registration successful", resp.Message)
	assert.True(t, app.accounts.Exists("alice"), "expected the account to exist")
}

func TestRegisterDuplicate(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.accounts.Register("alice", "secret"))

	rec := app.do(t, http.MethodPost, "/api/auth/register",
		CredentialsRequest{Username: "Alice", Password: "other"}, "")

	assert.Equal(t, http.StatusConflict, rec.Code, "expected conflict for an existing username")
	resp := decodeStatus(t, rec)
	assert.False(t, resp.Success)
}

func TestRegisterInvalid(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/api/auth/register",
		CredentialsRequest{Username: "alice"}, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code, "expected bad request for a blank password")
	resp := decodeStatus(t, rec)
	assert.False(t, resp.Success)
}

func TestLogin(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.accounts.Register("alice", "secret"))

	rec := app.do(t, http.MethodPost, "/api/auth/login",
		CredentialsRequest{Username: "alice", Password: "secret"}, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeStatus(t, rec).Success)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1, "expected a session cookie")
	assert.Equal(t, tokenCookieKey, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly, "expected an http-only cookie")

	username, err := app.extractUsernameFromToken(cookies[0].Value)
	require.NoError(t, err, "expected the cookie to hold a valid token")
	assert.Equal(t, "alice", username)
}

func TestLoginBadCredentials(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.accounts.Register("alice", "secret"))

	rec := app.do(t, http.MethodPost, "/api/auth/login",
		CredentialsRequest{Username: "alice", Password: "wrong"}, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies(), "expected no cookie on failed login")
}

func TestSession(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/api/auth/session", nil, "alice")

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "alice", resp["username"])
}

func TestSessionUnauthenticated(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/api/auth/session", nil, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code, "expected 401 without a session cookie")
}

func TestLogout(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/api/auth/logout", nil, "alice")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1, "expected the cookie to be overwritten")
	assert.Empty(t, cookies[0].Value, "expected an emptied cookie value")
}

func TestAddFriend(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.accounts.Register("alice", "secret"))
	require.NoError(t, app.accounts.Register("bob", "secret"))

	// userA left blank defaults to the session user
	rec := app.do(t, http.MethodPost, "/api/friends/add",
		AddFriendRequest{UserB: "bob"}, "alice")

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeStatus(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "friendship created", resp.Message)

	rec = app.do(t, http.MethodPost, "/api/friends/add",
		AddFriendRequest{UserA: "bob", UserB: "alice"}, "bob")

	assert.Equal(t, http.StatusOK, rec.Code, "duplicate friendship still answers 200")
	resp = decodeStatus(t, rec)
	assert.False(t, resp.Success, "expected the duplicate to be refused")
}

func TestAddFriendUnknownUser(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.accounts.Register("alice", "secret"))

	rec := app.do(t, http.MethodPost, "/api/friends/add",
		AddFriendRequest{UserB: "nobody"}, "alice")

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeStatus(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "user does not exist", resp.Message)
}

func TestListFriends(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.accounts.Register("alice", "secret"))
	require.NoError(t, app.accounts.Register("bob", "secret"))

	app.do(t, http.MethodPost, "/api/friends/add", AddFriendRequest{UserB: "bob"}, "alice")

	rec := app.do(t, http.MethodGet, "/api/friends/list?username=alice", nil, "alice")

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Username string   `json:"username"`
		Friends  []string `json:"friends"`
		Count    int      `json:"count"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, []string{"bob"}, resp.Friends)
	assert.Equal(t, 1, resp.Count)
}

func TestListFriendsMissingUsername(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/api/friends/list", nil, "alice")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatroomId(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/api/friends/chatroom-id?userA=Bob&userB=alice", nil, "alice")

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "alice_bob", resp["chatroomId"], "expected the ordered pair room id")
}

func TestChatroomIdMissingUser(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/api/friends/chatroom-id?userA=alice", nil, "alice")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMessageHistory(t *testing.T) {
	app := newTestApp(t)

	for _, text := range []string{"one", "two", "three"} {
		app.messages.Append(types.Message{Sender: "alice", Text: text, Timestamp: chat.Now(), RoomId: "alice_bob"})
	}

	rec := app.do(t, http.MethodGet, "/api/messages/history?chatroomId=alice_bob&limit=2", nil, "alice")

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		ChatroomId string          `json:"chatroomId"`
		Count      int             `json:"count"`
		Messages   []types.Message `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "alice_bob", resp.ChatroomId)
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, "two", resp.Messages[0].Text, "expected the two most recent, oldest first")
	assert.Equal(t, "three", resp.Messages[1].Text)
}

func TestMessageHistoryBadLimit(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/api/messages/history?chatroomId=public&limit=abc", nil, "alice")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeWsUnauthenticated(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/ws", nil, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code, "expected 401 without a session")
}
