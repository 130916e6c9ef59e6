package main

import (
	"sync"

	"github.com/google/uuid"
)

const (
	maxSessions          = 100
	maxPlayersPerSession = 16
)

// clientSet fans messages out to every client in a session
type clientSet struct {
	mu      sync.RWMutex
	clients map[string]Broadcaster
}

func newClientSet() *clientSet {
	return &clientSet{clients: make(map[string]Broadcaster)}
}

func (cs *clientSet) Add(id string, b Broadcaster) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if _, ok := cs.clients[id]; !ok && len(cs.clients) >= maxPlayersPerSession {
		return false
	}
	cs.clients[id] = b
	return true
}

func (cs *clientSet) Remove(id string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.clients, id)
}

func (cs *clientSet) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.clients)
}

// SendJSON implements Broadcaster
func (cs *clientSet) SendJSON(msg interface{}) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	for _, c := range cs.clients {
		c.SendJSON(msg)
	}
}

// SendBinary implements Broadcaster
func (cs *clientSet) SendBinary(data []byte) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	for _, c := range cs.clients {
		c.SendBinary(data)
	}
}

// netSpawner asks connected physics clients to create stone bodies
type netSpawner struct {
	out Broadcaster
}

// Spawn implements StoneSpawner
func (ns netSpawner) Spawn(id string, variant StoneVariant, team Team, pose Pose) (StoneHandle, error) {
	prof := ProfileFor(variant)
	ns.out.SendJSON(Envelope{T: MsgSpawn, Data: SpawnMsg{
		ID:      id,
		Variant: variant.String(),
		Team:    team.String(),
		X:       pose.Position.X,
		Y:       pose.Position.Y,
		Z:       pose.Position.Z,
		Yaw:     pose.Yaw,
		Radius:  prof.Radius,
		Weight:  prof.Weight,
	}})
	return &netStone{id: id, team: team, out: ns.out}, nil
}

// netStone relays handle changes to physics clients
type netStone struct {
	id   string
	team Team
	out  Broadcaster
}

func (s *netStone) SetTeam(team Team) {
	s.team = team
}

func (s *netStone) SetDrag(drag float64) {
	s.out.SendJSON(Envelope{T: MsgDrag, Data: DragMsg{ID: s.id, Drag: drag}})
}

func (s *netStone) Push(dv float64) {
	s.out.SendJSON(Envelope{T: MsgPush, Data: PushMsg{ID: s.id, DV: dv}})
}

// Session represents a curling sheet that players can join
type Session struct {
	ID      string
	Name    string
	Mode    GameMode
	Game    *Game
	clients *clientSet
	pinHash string // bcrypt, empty for public sessions
}

// Private reports whether joining needs a PIN
func (s *Session) Private() bool {
	return s.pinHash != ""
}

// SessionDeps are shared services handed to every new game
type SessionDeps struct {
	Audio   AudioCues
	Results ResultRecorder
	Events  EventTracker
}

// SessionManager handles creation and lookup of sessions
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	deps     SessionDeps
	config   MatchConfig
}

// NewSessionManager creates a new SessionManager
func NewSessionManager(cfg MatchConfig, deps SessionDeps) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		deps:     deps,
		config:   cfg,
	}
}

// CreateSession creates a new sheet. Returns nil if limit reached.
func (sm *SessionManager) CreateSession(name string, mode GameMode, pinHash string) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.sessions) >= maxSessions {
		return nil
	}

	id := uuid.NewString()
	clients := newClientSet()
	game := NewGame(id, sm.config, Services{
		Spawner: netSpawner{out: clients},
		Audio:   sm.deps.Audio,
		Clients: clients,
		Results: sm.deps.Results,
		Events:  sm.deps.Events,
	}, nil)
	sess := &Session{
		ID:      id,
		Name:    name,
		Mode:    mode,
		Game:    game,
		clients: clients,
		pinHash: pinHash,
	}
	sm.sessions[id] = sess
	go game.Run()
	return sess
}

// GetSession returns a session by ID
func (sm *SessionManager) GetSession(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// RemoveClient drops a client from a session and closes empty sessions
func (sm *SessionManager) RemoveClient(sessionID, clientID string) {
	sm.mu.RLock()
	sess, ok := sm.sessions[sessionID]
	sm.mu.RUnlock()
	if !ok {
		return
	}
	sess.clients.Remove(clientID)

	if sess.clients.Len() == 0 {
		sess.Game.Stop()
		sm.mu.Lock()
		delete(sm.sessions, sessionID)
		sm.mu.Unlock()
	}
}

// Count returns the number of active sessions
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// ListSessions returns info about all active sessions
func (sm *SessionManager) ListSessions() []SessionInfo {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	list := make([]SessionInfo, 0, len(sm.sessions))
	for _, sess := range sm.sessions {
		list = append(list, SessionInfo{
			ID:      sess.ID,
			Name:    sess.Name,
			Mode:    sess.Mode.String(),
			State:   sess.Game.State().String(),
			Players: sess.clients.Len(),
			Private: sess.Private(),
		})
	}
	return list
}
