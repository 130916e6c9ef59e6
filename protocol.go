package main

import "encoding/json"

// Client -> Server message types
const (
	MsgJoin    = "join"
	MsgLeave   = "leave"
	MsgCreate  = "create"  // create session
	MsgList    = "list"    // list sessions
	MsgCheck   = "check"   // check if session exists
	MsgResume  = "resume"  // reclaim a seat with a token
	MsgStart   = "start"   // start or restart the match
	MsgAdvance = "advance" // delivery finished
	MsgSpin    = "spin"    // spin the wheel by hand
	MsgMenu    = "menu"    // back to the main menu after game over
	MsgStones  = "stones"  // physics position report
	MsgRelease = "release" // stone let go
	MsgOut     = "out"     // stone hit the dead zone
	MsgCollide = "collide" // stone contact
	MsgGesture = "gesture" // controller sample
)

// Server -> Client message types
const (
	MsgState    = "state"
	MsgSessions = "sessions"
	MsgJoined   = "joined"
	MsgCreated  = "created" // session created, client should navigate
	MsgError    = "error"
	MsgChecked  = "checked" // session check response
	MsgScore    = "score"
	MsgSpawn    = "spawn"
	MsgDrag     = "drag"
	MsgPush     = "push"
	MsgPowerUp  = "powerup"
	MsgOver     = "over"
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// CreateMsg is sent when a player wants to create a session
type CreateMsg struct {
	Name        string `json:"name"`
	SessionName string `json:"sname"`
	Mode        int    `json:"mode"`
	PIN         string `json:"pin,omitempty"`
}

// JoinMsg is sent when a player wants to join a session
type JoinMsg struct {
	Name      string `json:"name"`
	SessionID string `json:"sid"`
	PIN       string `json:"pin,omitempty"`
	Team      string `json:"team,omitempty"` // "red", "blue", or empty to spectate
}

// ResumeMsg reclaims a seat after reconnecting
type ResumeMsg struct {
	Token string `json:"token"`
}

// StartMsg starts a match. A nil mode uses the session's mode.
type StartMsg struct {
	Mode *int `json:"mode,omitempty"`
}

// StonePos is one stone position reported by physics
type StonePos struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
}

// StonesMsg batches position reports
type StonesMsg struct {
	Stones []StonePos `json:"s"`
}

// StoneRefMsg names one stone
type StoneRefMsg struct {
	ID string `json:"id"`
}

// CollideMsg reports two stones touching
type CollideMsg struct {
	A     string  `json:"a"`
	B     string  `json:"b"`
	Speed float64 `json:"speed"`
}

// GestureMsg is one controller sample, sent at 20Hz while sweeping
type GestureMsg struct {
	LeftGrip  float64 `json:"lg"`
	RightGrip float64 `json:"rg"`
	VX        float64 `json:"vx"`
	VY        float64 `json:"vy"`
	VZ        float64 `json:"vz"`
	Forward   float64 `json:"fwd,omitempty"`
}

// Sample converts the message to a gesture sample
func (m GestureMsg) Sample() GestureSample {
	return GestureSample{
		LeftGrip:      m.LeftGrip,
		RightGrip:     m.RightGrip,
		RightVelocity: Vec3{m.VX, m.VY, m.VZ},
		Forward:       Clamp01(m.Forward),
	}
}

// StoneState is broadcast per stone
type StoneState struct {
	ID       string       `json:"id" msgpack:"id"`
	Team     Team         `json:"tm" msgpack:"tm"`
	Variant  StoneVariant `json:"v" msgpack:"v"`
	X        float64      `json:"x" msgpack:"x"`
	Y        float64      `json:"y" msgpack:"y"`
	Z        float64      `json:"z" msgpack:"z"`
	Drag     float64      `json:"dr" msgpack:"dr"`
	Released bool         `json:"rl,omitempty" msgpack:"rl,omitempty"`
}

// MatchView is the full state broadcast
type MatchView struct {
	State        MatchState   `json:"st" msgpack:"st"`
	Mode         GameMode     `json:"m" msgpack:"m"`
	End          int          `json:"e" msgpack:"e"`
	TotalEnds    int          `json:"te" msgpack:"te"`
	Stone        int          `json:"s" msgpack:"s"`
	StonesPerEnd int          `json:"spe" msgpack:"spe"`
	Delivering   Team         `json:"d" msgpack:"d"`
	Red          int          `json:"r" msgpack:"r"`
	Blue         int          `json:"b" msgpack:"b"`
	PowerUp      PowerUp      `json:"pu" msgpack:"pu"`
	Spinning     bool         `json:"sp" msgpack:"sp"`
	WheelAngle   float64      `json:"wa" msgpack:"wa"`
	Selecting    bool         `json:"sel" msgpack:"sel"`
	Sweeping     bool         `json:"sw" msgpack:"sw"`
	Current      string       `json:"cur,omitempty" msgpack:"cur,omitempty"`
	Stones       []StoneState `json:"stones" msgpack:"stones"`
	Ends         []EndResult  `json:"ends" msgpack:"ends"`
	Tick         uint64       `json:"tick" msgpack:"tick"`
}

// JoinedMsg confirms a seat
type JoinedMsg struct {
	SID   string `json:"sid"`
	Token string `json:"token,omitempty"`
	Team  string `json:"team,omitempty"`
}

// ScoreMsg is the score display update
type ScoreMsg struct {
	Red   int `json:"red"`
	Blue  int `json:"blue"`
	End   int `json:"end"`
	Total int `json:"total"`
}

// SpawnMsg asks physics clients to create a stone body
type SpawnMsg struct {
	ID      string  `json:"id"`
	Variant string  `json:"variant"`
	Team    string  `json:"team"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	Yaw     float64 `json:"yaw"`
	Radius  float64 `json:"radius"`
	Weight  float64 `json:"weight"`
}

// DragMsg updates a stone body's drag
type DragMsg struct {
	ID   string  `json:"id"`
	Drag float64 `json:"drag"`
}

// PushMsg hands a forward velocity change to a stone body
type PushMsg struct {
	ID string  `json:"id"`
	DV float64 `json:"dv"`
}

// PowerUpMsg announces the wheel result
type PowerUpMsg struct {
	PowerUp string `json:"p"`
}

// OverMsg announces the final score
type OverMsg struct {
	Red  int `json:"red"`
	Blue int `json:"blue"`
}

// SessionInfo is used in the session list
type SessionInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Mode    string `json:"mode"`
	State   string `json:"state"`
	Players int    `json:"players"`
	Private bool   `json:"private,omitempty"`
}

// ErrorMsg sends error to client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// CheckMsg is sent by client to check if a session exists
type CheckMsg struct {
	SID string `json:"sid"`
}

// CheckedMsg is the response to a session check
type CheckedMsg struct {
	SID     string `json:"sid"`
	Exists  bool   `json:"exists"`
	Name    string `json:"name,omitempty"`
	Players int    `json:"players,omitempty"`
}
