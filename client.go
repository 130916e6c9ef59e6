package main

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 50
	maxNameLen        = 16
	maxSessionNameLen = 30
)

// Client represents a WebSocket connection
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	id         string
	name       string
	sessionID  string
	seat       *Seat // nil for spectators
	remoteAddr string
	msgCount   int
	msgResetAt time.Time
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		id:         GenerateID(4),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Printf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		c.handleMessage(message)
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Check for binary marker (0xFF prefix from SendBinary)
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message
// Prefixes with 0xFF marker byte so WritePump can distinguish from text
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF // binary marker
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) sendError(msg string) {
	c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: msg}})
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("unmarshal error: %v", err)
		return
	}

	switch env.T {
	case MsgList:
		c.handleList()
	case MsgCreate:
		c.handleCreate(env.D)
	case MsgJoin:
		c.handleJoin(env.D)
	case MsgResume:
		c.handleResume(env.D)
	case MsgCheck:
		c.handleCheck(env.D)
	case MsgLeave:
		c.leaveSession()
	case MsgStart, MsgAdvance, MsgSpin, MsgMenu, MsgStones, MsgRelease, MsgOut, MsgCollide, MsgGesture:
		c.handleControl(env.T, env.D)
	}
}

func (c *Client) handleList() {
	sessions := c.hub.sessions.ListSessions()
	c.SendJSON(Envelope{T: MsgSessions, Data: sessions})
}

func (c *Client) handleCreate(data json.RawMessage) {
	var msg CreateMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sname := msg.SessionName
	if sname == "" {
		sname = "Sheet"
	}
	if len(sname) > maxSessionNameLen {
		sname = sname[:maxSessionNameLen]
	}
	mode := GameMode(msg.Mode)
	if mode != ModeCasual && mode != ModeWild {
		mode = ModeCasual
	}
	pinHash, err := HashPIN(msg.PIN)
	if err != nil {
		c.sendError(err.Error())
		return
	}

	sess := c.hub.sessions.CreateSession(sname, mode, pinHash)
	if sess == nil {
		c.sendError("too many active sessions")
		return
	}
	if c.hub.analytics != nil {
		c.hub.analytics.Track(EvtSessionStart, sess.ID, "")
	}
	c.SendJSON(Envelope{T: MsgCreated, Data: map[string]string{"sid": sess.ID}})
}

func (c *Client) handleJoin(data json.RawMessage) {
	var msg JoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	name := msg.Name
	if name == "" {
		name = "Skip"
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}

	sess := c.hub.sessions.GetSession(msg.SessionID)
	if sess == nil {
		c.sendError("session not found")
		return
	}
	if err := c.hub.auth.CheckPIN(sess, msg.PIN, c.remoteAddr); err != nil {
		c.sendError(err.Error())
		return
	}

	var seat *Seat
	if team, ok := ParseTeam(msg.Team); ok {
		seat = &Seat{SessionID: sess.ID, Name: name, Team: team}
	}
	c.seatIn(sess, name, seat)
}

func (c *Client) handleResume(data json.RawMessage) {
	var msg ResumeMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	seat, err := c.hub.auth.ValidateSeat(msg.Token)
	if err != nil {
		c.sendError("invalid token")
		return
	}
	sess := c.hub.sessions.GetSession(seat.SessionID)
	if sess == nil {
		c.sendError("session not found")
		return
	}
	c.seatIn(sess, seat.Name, &seat)
}

// seatIn attaches the client to a session, as a player when seat is set
func (c *Client) seatIn(sess *Session, name string, seat *Seat) {
	if c.sessionID != "" && c.sessionID != sess.ID {
		c.leaveSession()
	}
	if !sess.clients.Add(c.id, c) {
		c.sendError("session full")
		return
	}
	c.sessionID = sess.ID
	c.name = name
	c.seat = seat

	joined := JoinedMsg{SID: sess.ID}
	if seat != nil {
		token, err := c.hub.auth.IssueSeat(*seat)
		if err != nil {
			log.Printf("issue seat: %v", err)
		}
		joined.Token = token
		joined.Team = seat.Team.String()
	}
	c.SendJSON(Envelope{T: MsgJoined, Data: joined})
}

func (c *Client) handleCheck(data json.RawMessage) {
	var msg CheckMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess := c.hub.sessions.GetSession(msg.SID)
	if sess == nil {
		c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{SID: msg.SID, Exists: false}})
		return
	}
	c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{
		SID:     msg.SID,
		Exists:  true,
		Name:    sess.Name,
		Players: sess.clients.Len(),
	}})
}

func (c *Client) leaveSession() {
	if c.sessionID == "" {
		return
	}
	sid := c.sessionID
	c.sessionID = ""
	c.seat = nil
	c.hub.sessions.RemoveClient(sid, c.id)
	if c.hub.analytics != nil && c.hub.sessions.GetSession(sid) == nil {
		c.hub.analytics.Track(EvtSessionEnd, sid, "")
	}
}

// handleControl applies match input from a seated player
func (c *Client) handleControl(t string, data json.RawMessage) {
	if c.sessionID == "" || c.seat == nil {
		c.sendError("not seated")
		return
	}
	sess := c.hub.sessions.GetSession(c.sessionID)
	if sess == nil {
		return
	}
	g := sess.Game

	switch t {
	case MsgStart:
		mode := sess.Mode
		var msg StartMsg
		if len(data) > 0 && json.Unmarshal(data, &msg) == nil && msg.Mode != nil {
			if m := GameMode(*msg.Mode); m == ModeCasual || m == ModeWild {
				mode = m
			}
		}
		g.StartMatch(mode)
	case MsgAdvance:
		g.AdvanceTurn()
	case MsgSpin:
		g.SpinWheel()
	case MsgMenu:
		g.ReturnToMenu()
	case MsgStones:
		var msg StonesMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
		for _, s := range msg.Stones {
			g.UpdateStone(s.ID, Vec3{s.X, s.Y, s.Z})
		}
	case MsgRelease:
		var msg StoneRefMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
		g.ReleaseStone(msg.ID)
	case MsgOut:
		var msg StoneRefMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
		g.StoneOutOfPlay(msg.ID)
	case MsgCollide:
		var msg CollideMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
		g.ReportCollision(msg.A, msg.B, msg.Speed)
	case MsgGesture:
		var msg GestureMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
		g.HandleGesture(msg.Sample())
	}
}
