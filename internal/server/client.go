package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/teris-io/shortid"

	"github.com/example/go-chatapp/internal/chat"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// Client is one websocket connection. The username comes from the
// authenticated session; one user may hold several connections.
type Client struct {
	conn      *websocket.Conn
	hub       *Hub
	router    *chat.Router
	log       *log.Logger
	username  string
	sessionId string
	send      chan *ServerFrame
	stop      chan struct{}
	stopOnce  sync.Once
}

func NewClient(username string, conn *websocket.Conn, hub *Hub, router *chat.Router, l *log.Logger) *Client {
	sid, err := shortid.Generate()
	if err != nil {
		l.Println("generate session id:", err)
	}

	return &Client{
		conn:      conn,
		hub:       hub,
		router:    router,
		log:       l,
		username:  username,
		sessionId: sid,
		send:      make(chan *ServerFrame, 256),
		stop:      make(chan struct{}),
	}
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.log.Printf("write exiting for session %s", c.sessionId)
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(frame)
			if err != nil {
				c.log.Println("failed to serialize frame:", err)
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
		c.log.Printf("read exiting for session %s", c.sessionId)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var frame ClientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.log.Println("error parsing frame:", err)
			c.queueFrame(ErrInvalidFrame())
			continue
		}

		c.dispatch(&frame)
	}
}

func (c *Client) dispatch(frame *ClientFrame) {
	switch {
	case frame.Connect != nil:
		if frame.Connect.Username != "" && frame.Connect.Username != c.username {
			c.log.Printf("connect frame for %q on session of %q, using session identity",
				frame.Connect.Username, c.username)
		}
		c.router.Connect(c.username)
		// a connected user always sees presence, the public stream, and
		// their own friend notifications
		c.hub.Subscribe(c, chat.TopicUsers)
		c.hub.Subscribe(c, chat.TopicMessages)
		c.hub.Subscribe(c, chat.FriendsTopic(c.username))
	case frame.Disconnect != nil:
		c.router.Disconnect(c.username)
	case frame.Publish != nil:
		msg := frame.Publish.Message
		if msg.Sender == "" {
			msg.Sender = c.username
		}
		c.router.PublicMessage(msg)
	case frame.Private != nil:
		msg := frame.Private.Message
		if msg.Sender == "" {
			msg.Sender = c.username
		}
		c.router.PrivateMessage(msg, frame.Private.RoomId)
	case frame.Subscribe != nil:
		c.hub.Subscribe(c, frame.Subscribe.Topic)
	case frame.Unsubscribe != nil:
		c.hub.Unsubscribe(c, frame.Unsubscribe.Topic)
	default:
		c.log.Println("frame with no event set, dropping")
		c.queueFrame(ErrInvalidFrame())
	}
}

func (c *Client) queueFrame(frame *ServerFrame) bool {
	select {
	case c.send <- frame:
	default:
		c.log.Printf("send queue full for session %s, dropping frame", c.sessionId)
		return false
	}

	return true
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

func (c *Client) stopClient() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

// cleanup runs when the read pump exits: the connection is gone, so the
// user's presence for this session ends too.
func (c *Client) cleanup() {
	c.hub.Unregister(c)
	c.router.Disconnect(c.username)
	c.stopClient()
}
