package main

import (
	"encoding/json"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	TickRate       = 60 // ticks per second
	BroadcastRate  = 20 // state broadcasts per second
	TickDuration   = time.Second / TickRate
	BroadcastEvery = TickRate / BroadcastRate
)

// Broadcaster sends messages to connected clients
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

type selectionPhase int

const (
	selectPreSpin selectionPhase = iota
	selectSpinning
	selectReveal
)

// selection is the deferred spawn waiting on the wheel
type selection struct {
	phase selectionPhase
	timer float64
}

// Game runs one curling match: turns, ends, scoring and the power-up wheel
type Game struct {
	mu        sync.Mutex
	sessionID string
	cfg       MatchConfig
	svc       Services

	state MatchState
	mode  GameMode
	end   int
	stone int
	red   int
	blue  int
	ends  []EndResult

	registry *StoneRegistry
	scoring  *ScoringEngine
	wheel    *PowerUpWheel
	sweeper  *SweepController

	pending     *selection
	settling    bool
	settleTimer float64
	currentID   string
	gesture     GestureSample

	tick    uint64
	running bool
	stop    chan struct{}
}

// NewGame creates a match in the main menu. rng seeds the wheel; nil picks a random seed.
func NewGame(sessionID string, cfg MatchConfig, svc Services, rng *rand.Rand) *Game {
	cfg = cfg.normalize()
	g := &Game{
		sessionID: sessionID,
		cfg:       cfg,
		svc:       svc,
		state:     StateMainMenu,
		end:       1,
		registry:  NewStoneRegistry(),
		scoring:   NewScoringEngine(cfg.Center),
		wheel:     NewPowerUpWheel(rng, svc.Audio),
		stop:      make(chan struct{}),
	}
	g.wheel.Duration = cfg.SpinDuration
	g.wheel.OnSettled = g.onWheelSettled
	g.sweeper = NewSweepController(cfg.Sweep, g.registry)

	if svc.Spawner == nil {
		log.Printf("game %s: no stone spawner configured, stones are tracked without bodies", sessionID)
	}
	if svc.Renderer == nil && svc.Clients == nil {
		log.Printf("game %s: no score display configured", sessionID)
	}
	if svc.Audio == nil {
		log.Printf("game %s: no audio configured", sessionID)
	}
	return g
}

// Run starts the game loop
func (g *Game) Run() {
	g.mu.Lock()
	g.running = true
	g.mu.Unlock()

	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.update()
		case <-g.stop:
			return
		}
	}
}

// Stop terminates the game loop
func (g *Game) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		g.running = false
		close(g.stop)
	}
}

// StartMatch resets the match and spawns the first stone.
// Accepted from the main menu and after game over.
func (g *Game) StartMatch(mode GameMode) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateMainMenu && g.state != StateGameOver {
		log.Printf("game %s: start ignored in state %s", g.sessionID, g.state)
		return false
	}

	g.mode = mode
	g.state = StatePlaying
	g.end = 1
	g.stone = 0
	g.red = 0
	g.blue = 0
	g.ends = nil
	g.pending = nil
	g.settling = false
	g.registry.Clear()
	g.sweeper.SetTarget("")
	g.currentID = ""
	g.wheel.ResetPowerUp()

	g.track(EvtMatchStart, map[string]interface{}{"mode": mode.String(), "ends": g.cfg.TotalEnds})
	g.renderScore()
	g.spawnNextStone()
	return true
}

// AdvanceTurn closes the current delivery. Ignored outside play and while
// the next stone is still waiting on the wheel. A hand spin in progress does
// not block it; the next spawn waits for that spin instead.
func (g *Game) AdvanceTurn() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StatePlaying {
		return false
	}
	if g.pending != nil {
		log.Printf("game %s: advance ignored while the wheel is selecting", g.sessionID)
		return false
	}

	if g.currentID != "" {
		g.registry.Release(g.currentID)
	}
	g.stone++
	if g.stone >= g.cfg.StonesPerEnd {
		g.closeEnd()
	} else {
		g.spawnNextStone()
	}
	return true
}

// ReturnToMenu leaves a finished match
func (g *Game) ReturnToMenu() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateGameOver {
		return false
	}
	g.state = StateMainMenu
	return true
}

// SpinWheel spins the power-up wheel by hand. The result waits for the next spawn.
func (g *Game) SpinWheel() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.mode != ModeWild || g.state != StatePlaying || g.pending != nil {
		return false
	}
	return g.wheel.Spin()
}

// UpdateStone records a physics position. Stones off the sheet are destroyed.
func (g *Game) UpdateStone(id string, pos Vec3) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.registry.SetPosition(id, pos) {
		return false
	}
	if !OnSheet(pos) {
		g.removeStone(id)
	}
	return true
}

// StoneOutOfPlay destroys a stone that hit the dead zone
func (g *Game) StoneOutOfPlay(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.removeStone(id)
}

// ReleaseStone stops player push on a stone
func (g *Game) ReleaseStone(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.registry.Release(id)
}

// ReportCollision plays the contact cue for two stones
func (g *Game) ReportCollision(a, b string, relativeSpeed float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.registry.Get(a); !ok {
		return
	}
	if _, ok := g.registry.Get(b); !ok {
		return
	}
	g.playCue(CueStoneCollision, CollisionVolume(relativeSpeed))
}

// HandleGesture stores the latest controller sample from a remote player
func (g *Game) HandleGesture(s GestureSample) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gesture = s
}

// State returns the current match state
func (g *Game) State() MatchState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Snapshot returns a consistent view of the match
func (g *Game) Snapshot() MatchView {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.view()
}

func (g *Game) view() MatchView {
	ends := make([]EndResult, len(g.ends))
	copy(ends, g.ends)
	return MatchView{
		State:        g.state,
		Mode:         g.mode,
		End:          g.end,
		TotalEnds:    g.cfg.TotalEnds,
		Stone:        g.stone,
		StonesPerEnd: g.cfg.StonesPerEnd,
		Delivering:   TeamForStone(g.stone),
		Red:          g.red,
		Blue:         g.blue,
		PowerUp:      g.wheel.CurrentPowerUp(),
		Spinning:     g.wheel.IsSpinning(),
		WheelAngle:   g.wheel.Angle(),
		Selecting:    g.pending != nil,
		Sweeping:     g.sweeper.Active(),
		Current:      g.currentID,
		Stones:       g.registry.Snapshot(),
		Ends:         ends,
		Tick:         g.tick,
	}
}

// update runs one game tick
func (g *Game) update() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.tick++
	g.step(1.0 / float64(TickRate))

	if g.tick%BroadcastEvery == 0 {
		g.broadcastState()
	}
}

// step advances every timed sequence by dt seconds
func (g *Game) step(dt float64) {
	g.wheel.Update(dt)
	g.advanceSelection(dt)

	if g.settling {
		g.settleTimer -= dt
		if g.settleTimer <= 0 {
			g.startNextEnd()
		}
	}

	g.registry.Update(dt)

	in := g.gesture
	if g.svc.Gestures != nil {
		in = g.svc.Gestures.Sample()
	}
	if g.currentID != "" && in.Forward > 0 {
		if s, ok := g.registry.Get(g.currentID); ok {
			if dv := s.Push(in.Forward, dt); dv > 0 && s.handle != nil {
				s.handle.Push(dv)
			}
		}
	}
	g.sweeper.Update(dt, in)
}

func (g *Game) advanceSelection(dt float64) {
	p := g.pending
	if p == nil {
		return
	}
	switch p.phase {
	case selectPreSpin:
		p.timer -= dt
		if p.timer <= 0 {
			// a hand spin already in flight is joined, not restarted
			g.wheel.Spin()
			p.phase = selectSpinning
		}
	case selectReveal:
		p.timer -= dt
		if p.timer <= 0 {
			g.pending = nil
			g.spawnNextStone()
		}
	}
}

func (g *Game) onWheelSettled(p PowerUp) {
	log.Printf("game %s: wheel selected %s", g.sessionID, p)
	if g.svc.Clients != nil {
		g.svc.Clients.SendJSON(Envelope{T: MsgPowerUp, Data: PowerUpMsg{PowerUp: p.String()}})
	}
	g.track(EvtPowerUp, map[string]interface{}{"powerup": p.String(), "end": g.end, "stone": g.stone})
	if g.pending != nil && g.pending.phase == selectSpinning {
		g.pending.phase = selectReveal
		g.pending.timer = g.cfg.RevealDelay
	}
}

// spawnNextStone delivers the next stone, or starts a wheel selection first in wild mode
func (g *Game) spawnNextStone() {
	if g.state != StatePlaying {
		return
	}
	team := TeamForStone(g.stone)
	variant := VariantStandard

	if g.mode == ModeWild {
		if g.pending != nil {
			log.Printf("game %s: selection already in flight", g.sessionID)
			return
		}
		pu := g.wheel.CurrentPowerUp()
		if pu == PowerUpNone {
			if g.wheel.IsSpinning() {
				g.pending = &selection{phase: selectSpinning}
			} else {
				g.pending = &selection{phase: selectPreSpin, timer: g.cfg.PreSpinDelay}
			}
			return
		}
		variant = pu.Variant()
		g.wheel.ResetPowerUp()
	}

	g.spawn(variant, team)
}

func (g *Game) spawn(variant StoneVariant, team Team) {
	if g.cfg.SpawnPose == nil {
		log.Printf("game %s: skipping %s stone: %v", g.sessionID, variant, ErrNoSpawnPoint)
		g.currentID = ""
		g.sweeper.SetTarget("")
		return
	}
	drag := g.cfg.Sweep.NormalDrag
	if ProfileFor(variant).StartsFrozen {
		drag = g.cfg.Sweep.MaxDrag
	}

	s := g.registry.Add(variant, team, *g.cfg.SpawnPose, drag, nil)
	if g.svc.Spawner != nil {
		h, err := g.svc.Spawner.Spawn(s.ID, variant, team, *g.cfg.SpawnPose)
		if err != nil {
			log.Printf("game %s: spawn %s: %v", g.sessionID, s.ID, err)
		} else if h != nil {
			g.registry.Attach(s.ID, h)
			h.SetTeam(team)
			h.SetDrag(drag)
		}
	}
	g.currentID = s.ID
	g.sweeper.SetTarget(s.ID)
}

func (g *Game) removeStone(id string) bool {
	if !g.registry.Remove(id) {
		return false
	}
	if g.sweeper.Target() == id {
		g.sweeper.SetTarget("")
	}
	if g.currentID == id {
		g.currentID = ""
	}
	return true
}

// closeEnd scores the end, clears the sheet and moves to the next end or game over
func (g *Game) closeEnd() {
	g.state = StateEndOfEnd

	score := g.scoring.CalculateScore(g.registry.Snapshot())
	if score.Points > 0 {
		if score.Team == TeamRed {
			g.red += score.Points
		} else {
			g.blue += score.Points
		}
		g.playCue(CueEndScored, 1)
		log.Printf("game %s: end %d: %s scores %d", g.sessionID, g.end, score.Team, score.Points)
	} else {
		log.Printf("game %s: end %d: blank end", g.sessionID, g.end)
	}
	g.ends = append(g.ends, EndResult{End: g.end, Team: score.Team, Points: score.Points})
	g.track(EvtEndScored, map[string]interface{}{"end": g.end, "team": score.Team.String(), "points": score.Points})

	g.registry.Clear()
	g.sweeper.SetTarget("")
	g.currentID = ""

	g.end++
	g.stone = 0
	g.renderScore()

	if g.end > g.cfg.TotalEnds {
		g.endGame()
		return
	}
	g.settling = true
	g.settleTimer = g.cfg.SettleDelay
}

func (g *Game) startNextEnd() {
	g.settling = false
	g.state = StatePlaying
	g.renderScore()
	g.spawnNextStone()
}

func (g *Game) endGame() {
	g.state = StateGameOver
	log.Printf("Game Over! Final Score - Red: %d, Blue: %d", g.red, g.blue)
	g.playCue(CueGameOver, 1)

	res := MatchResult{
		SessionID: g.sessionID,
		Mode:      g.mode,
		TotalEnds: g.cfg.TotalEnds,
		Red:       g.red,
		Blue:      g.blue,
		Ends:      append([]EndResult(nil), g.ends...),
	}
	if g.svc.Clients != nil {
		g.svc.Clients.SendJSON(Envelope{T: MsgOver, Data: OverMsg{Red: g.red, Blue: g.blue}})
	}
	g.track(EvtMatchEnd, map[string]interface{}{"mode": g.mode.String(), "red": g.red, "blue": g.blue})
	if g.svc.Results != nil {
		go func() {
			if err := g.svc.Results.RecordResult(res); err != nil {
				log.Printf("game %s: record result: %v", g.sessionID, err)
			}
		}()
	}
}

// renderScore pushes the score to the display and to clients
func (g *Game) renderScore() {
	end := g.end
	if end > g.cfg.TotalEnds {
		end = g.cfg.TotalEnds
	}
	if g.svc.Renderer != nil {
		g.svc.Renderer.Render(g.red, g.blue, end, g.cfg.TotalEnds)
	}
	if g.svc.Clients != nil {
		g.svc.Clients.SendJSON(Envelope{T: MsgScore, Data: ScoreMsg{
			Red:   g.red,
			Blue:  g.blue,
			End:   end,
			Total: g.cfg.TotalEnds,
		}})
	}
}

func (g *Game) playCue(cue Cue, volume float64) {
	if g.svc.Audio == nil {
		return
	}
	if err := g.svc.Audio.Play(cue, volume); err != nil {
		log.Printf("game %s: %s cue: %v", g.sessionID, cue, err)
	}
}

func (g *Game) track(evtType string, data map[string]interface{}) {
	if g.svc.Events == nil {
		return
	}
	raw, err := json.Marshal(data)
	if err != nil {
		log.Printf("game %s: marshal %s event: %v", g.sessionID, evtType, err)
		return
	}
	g.svc.Events.Track(evtType, g.sessionID, string(raw))
}

// broadcastState sends a binary state frame to all clients
func (g *Game) broadcastState() {
	if g.svc.Clients == nil {
		return
	}
	data, err := msgpack.Marshal(g.view())
	if err != nil {
		log.Printf("game %s: marshal state: %v", g.sessionID, err)
		return
	}
	g.svc.Clients.SendBinary(data)
}
