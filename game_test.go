package main

import (
	"encoding/json"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// mockBroadcaster captures sent messages for testing
type mockBroadcaster struct {
	mu       sync.Mutex
	messages []interface{}
	frames   [][]byte
}

func (m *mockBroadcaster) SendJSON(msg interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *mockBroadcaster) SendBinary(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = append(m.frames, data)
}

// ofType returns the payloads of every envelope with type t
func (m *mockBroadcaster) ofType(t string) []interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []interface{}
	for _, msg := range m.messages {
		if env, ok := msg.(Envelope); ok && env.T == t {
			out = append(out, env.Data)
		}
	}
	return out
}

type spawnCall struct {
	id      string
	variant StoneVariant
	team    Team
	handle  *recordingHandle
}

type mockSpawner struct {
	calls []spawnCall
	err   error
}

func (m *mockSpawner) Spawn(id string, variant StoneVariant, team Team, pose Pose) (StoneHandle, error) {
	if m.err != nil {
		return nil, m.err
	}
	h := &recordingHandle{}
	m.calls = append(m.calls, spawnCall{id: id, variant: variant, team: team, handle: h})
	return h, nil
}

type renderCall struct {
	red, blue, end, total int
}

type mockRenderer struct {
	calls []renderCall
}

func (m *mockRenderer) Render(red, blue, end, total int) {
	m.calls = append(m.calls, renderCall{red, blue, end, total})
}

func (m *mockRenderer) last() renderCall {
	if len(m.calls) == 0 {
		return renderCall{}
	}
	return m.calls[len(m.calls)-1]
}

type mockRecorder struct {
	results chan MatchResult
}

func (m *mockRecorder) RecordResult(res MatchResult) error {
	m.results <- res
	return nil
}

// selectionTime covers a full wheel sequence with some slack for tick rounding
const selectionTime = PreSpinDelay + DefaultSpinDuration + RevealDelay + 0.5

type gameFixture struct {
	game     *Game
	out      *mockBroadcaster
	spawner  *mockSpawner
	renderer *mockRenderer
	audio    *mockAudio
	recorder *mockRecorder
}

func newFixture(cfg MatchConfig) *gameFixture {
	f := &gameFixture{
		out:      &mockBroadcaster{},
		spawner:  &mockSpawner{},
		renderer: &mockRenderer{},
		audio:    &mockAudio{},
		recorder: &mockRecorder{results: make(chan MatchResult, 4)},
	}
	f.game = NewGame("test", cfg, Services{
		Spawner:  f.spawner,
		Renderer: f.renderer,
		Audio:    f.audio,
		Clients:  f.out,
		Results:  f.recorder,
	}, seeded(99))
	return f
}

// run drives the tick loop for the given simulated seconds
func (f *gameFixture) run(seconds float64) {
	n := int(seconds*TickRate) + 1
	for i := 0; i < n; i++ {
		f.game.update()
	}
}

// playEnd delivers every stone of the current end
func (f *gameFixture) playEnd(t *testing.T) {
	t.Helper()
	for i := 0; i < f.game.cfg.StonesPerEnd; i++ {
		if !f.game.AdvanceTurn() {
			t.Fatalf("advance %d refused in state %s", i, f.game.State())
		}
	}
}

func TestGameStartsInMenu(t *testing.T) {
	f := newFixture(DefaultConfig())
	if f.game.State() != StateMainMenu {
		t.Errorf("expected main menu, got %s", f.game.State())
	}
	if f.game.AdvanceTurn() {
		t.Error("advance should be ignored in the menu")
	}
}

func TestStartMatchCasual(t *testing.T) {
	f := newFixture(DefaultConfig())
	if !f.game.StartMatch(ModeCasual) {
		t.Fatal("start refused")
	}
	v := f.game.Snapshot()
	if v.State != StatePlaying || v.End != 1 || v.Stone != 0 || v.Red != 0 || v.Blue != 0 {
		t.Errorf("unexpected start view %+v", v)
	}
	if len(f.spawner.calls) != 1 || f.spawner.calls[0].team != TeamRed || f.spawner.calls[0].variant != VariantStandard {
		t.Errorf("first spawn %+v, want one red standard stone", f.spawner.calls)
	}
	h := f.spawner.calls[0].handle
	if h.team != TeamRed || len(h.drags) == 0 || h.drags[0] != NormalStoneDrag {
		t.Errorf("handle team %s drags %v", h.team, h.drags)
	}
	if got := f.renderer.last(); got != (renderCall{0, 0, 1, DefaultTotalEnds}) {
		t.Errorf("render %+v", got)
	}
}

func TestStartMatchIgnoredWhilePlaying(t *testing.T) {
	f := newFixture(DefaultConfig())
	f.game.StartMatch(ModeCasual)
	f.game.AdvanceTurn()
	if f.game.StartMatch(ModeWild) {
		t.Error("start during play should be ignored")
	}
	if v := f.game.Snapshot(); v.Stone != 1 || v.Mode != ModeCasual {
		t.Errorf("match state changed: %+v", v)
	}
}

func TestTurnParity(t *testing.T) {
	f := newFixture(DefaultConfig())
	f.game.StartMatch(ModeCasual)
	for i := 0; i < DefaultStonesPerEnd-1; i++ {
		f.game.AdvanceTurn()
	}
	if len(f.spawner.calls) != DefaultStonesPerEnd {
		t.Fatalf("spawned %d stones, want %d", len(f.spawner.calls), DefaultStonesPerEnd)
	}
	for i, c := range f.spawner.calls {
		if c.team != TeamForStone(i) {
			t.Errorf("stone %d went to %s", i, c.team)
		}
	}
}

func TestAdvanceReleasesCurrentStone(t *testing.T) {
	f := newFixture(DefaultConfig())
	f.game.StartMatch(ModeCasual)
	first := f.game.Snapshot().Current
	f.game.AdvanceTurn()

	f.game.mu.Lock()
	s, ok := f.game.registry.Get(first)
	f.game.mu.Unlock()
	if !ok || !s.Released {
		t.Error("previous stone should be released")
	}
}

func TestEndClosureScoresAndSettles(t *testing.T) {
	f := newFixture(DefaultConfig())
	f.game.StartMatch(ModeCasual)

	// red's first stone on the button, everything else stays at the hack
	red := f.game.Snapshot().Current
	f.game.UpdateStone(red, Vec3{Z: TeeLine})
	f.playEnd(t)

	v := f.game.Snapshot()
	if v.State != StateEndOfEnd {
		t.Fatalf("expected end of end, got %s", v.State)
	}
	if v.Red != 1 || v.Blue != 0 {
		t.Errorf("score red %d blue %d, want 1-0", v.Red, v.Blue)
	}
	if len(v.Stones) != 0 {
		t.Errorf("%d stones left on the sheet after closure", len(v.Stones))
	}
	if len(v.Ends) != 1 || v.Ends[0] != (EndResult{End: 1, Team: TeamRed, Points: 1}) {
		t.Errorf("ends %+v", v.Ends)
	}
	if f.audio.count(CueEndScored) != 1 {
		t.Error("end scored cue should play")
	}
	if f.game.AdvanceTurn() {
		t.Error("advance during end of end should be ignored")
	}

	f.run(SettleDelay)
	v = f.game.Snapshot()
	if v.State != StatePlaying || v.End != 2 || v.Stone != 0 {
		t.Errorf("after settle: state %s end %d stone %d", v.State, v.End, v.Stone)
	}
	if len(f.spawner.calls) != DefaultStonesPerEnd+1 {
		t.Errorf("next end should spawn its first stone, got %d spawns", len(f.spawner.calls))
	}
	if got := f.renderer.last(); got.end != 2 || got.red != 1 {
		t.Errorf("render %+v", got)
	}
}

func TestBlankEnd(t *testing.T) {
	f := newFixture(DefaultConfig())
	f.game.StartMatch(ModeCasual)
	f.playEnd(t)
	v := f.game.Snapshot()
	if v.Red != 0 || v.Blue != 0 {
		t.Errorf("all stones tied at the hack, got %d-%d", v.Red, v.Blue)
	}
	if f.audio.count(CueEndScored) != 0 {
		t.Error("blank end should not play the score cue")
	}
}

func TestGameOver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TotalEnds = 2
	f := newFixture(cfg)
	f.game.StartMatch(ModeCasual)

	for end := 1; end <= 2; end++ {
		blue := ""
		for i := 0; i < cfg.StonesPerEnd; i++ {
			if i == 1 {
				blue = f.game.Snapshot().Current
				f.game.UpdateStone(blue, Vec3{Z: TeeLine + 0.1})
			}
			f.game.AdvanceTurn()
		}
		if end == 1 {
			f.run(SettleDelay)
		}
	}

	v := f.game.Snapshot()
	if v.State != StateGameOver {
		t.Fatalf("expected game over, got %s", v.State)
	}
	if v.Blue != 2 || v.Red != 0 {
		t.Errorf("final %d-%d, want 0-2", v.Red, v.Blue)
	}
	if got := f.renderer.last(); got.end != 2 || got.total != 2 {
		t.Errorf("final render %+v, end should stay within total", got)
	}
	if over := f.out.ofType(MsgOver); len(over) != 1 || over[0] != (OverMsg{Red: 0, Blue: 2}) {
		t.Errorf("over messages %v", over)
	}
	if f.audio.count(CueGameOver) != 1 {
		t.Error("game over cue should play once")
	}

	select {
	case res := <-f.recorder.results:
		if w, ok := res.Winner(); !ok || w != TeamBlue || len(res.Ends) != 2 {
			t.Errorf("recorded %+v", res)
		}
	case <-time.After(time.Second):
		t.Fatal("result was not recorded")
	}

	// terminal: ticking and advancing change nothing
	f.run(5)
	if f.game.AdvanceTurn() || f.game.State() != StateGameOver {
		t.Error("game over should be terminal until restart")
	}
}

func TestRestartAfterGameOver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TotalEnds = 1
	f := newFixture(cfg)
	f.game.StartMatch(ModeCasual)
	f.game.UpdateStone(f.game.Snapshot().Current, Vec3{Z: TeeLine})
	f.playEnd(t)
	if f.game.State() != StateGameOver {
		t.Fatal("one-end match should be over")
	}

	if !f.game.StartMatch(ModeCasual) {
		t.Fatal("restart from game over refused")
	}
	v := f.game.Snapshot()
	if v.Red != 0 || v.Blue != 0 || v.End != 1 || v.Stone != 0 || len(v.Ends) != 0 {
		t.Errorf("restart did not reset: %+v", v)
	}
	if len(v.Stones) != 1 {
		t.Errorf("restart should spawn one stone, have %d", len(v.Stones))
	}
}

func TestReturnToMenu(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TotalEnds = 1
	f := newFixture(cfg)
	if f.game.ReturnToMenu() {
		t.Error("menu from main menu should be refused")
	}
	f.game.StartMatch(ModeCasual)
	if f.game.ReturnToMenu() {
		t.Error("menu during play should be refused")
	}
	f.playEnd(t)
	if !f.game.ReturnToMenu() || f.game.State() != StateMainMenu {
		t.Error("menu after game over should work")
	}
}

func TestWildModeDefersSpawn(t *testing.T) {
	f := newFixture(DefaultConfig())
	f.game.StartMatch(ModeWild)

	v := f.game.Snapshot()
	if !v.Selecting || len(f.spawner.calls) != 0 {
		t.Fatalf("wild start should wait for the wheel: selecting=%v spawns=%d", v.Selecting, len(f.spawner.calls))
	}
	if f.game.AdvanceTurn() {
		t.Error("advance while selecting should be ignored")
	}

	f.run(PreSpinDelay)
	if !f.game.Snapshot().Spinning {
		t.Fatal("wheel should spin after the pre-spin delay")
	}

	var announced []interface{}
	f.run(DefaultSpinDuration)
	announced = f.out.ofType(MsgPowerUp)
	if len(announced) != 1 {
		t.Fatalf("expected one power-up announcement, got %d", len(announced))
	}
	if len(f.spawner.calls) != 0 {
		t.Error("stone should not spawn before the reveal finishes")
	}

	f.run(RevealDelay)
	if len(f.spawner.calls) != 1 {
		t.Fatalf("expected one spawn after reveal, got %d", len(f.spawner.calls))
	}
	picked := announced[0].(PowerUpMsg).PowerUp
	if got := f.spawner.calls[0].variant.String(); got != picked {
		t.Errorf("spawned %s, wheel picked %s", got, picked)
	}
	v = f.game.Snapshot()
	if v.PowerUp != PowerUpNone || v.Selecting {
		t.Errorf("selection should be consumed: %+v", v)
	}
	if f.audio.count(CueWheelSpin) != 1 || f.audio.count(CueWheelSelect) != 1 {
		t.Errorf("cues %v", f.audio.cues)
	}
}

func TestWildModeEveryStoneIsVariant(t *testing.T) {
	f := newFixture(DefaultConfig())
	f.game.StartMatch(ModeWild)
	for i := 0; i < 4; i++ {
		f.run(selectionTime)
		if !f.game.AdvanceTurn() {
			t.Fatalf("advance %d refused", i)
		}
	}
	for i, c := range f.spawner.calls {
		if c.variant == VariantStandard {
			t.Errorf("stone %d is standard in wild mode", i)
		}
		if c.team != TeamForStone(i) {
			t.Errorf("stone %d team %s", i, c.team)
		}
	}
}

func TestWildSelectionNotDoubled(t *testing.T) {
	f := newFixture(DefaultConfig())
	f.game.StartMatch(ModeWild)

	f.game.mu.Lock()
	first := f.game.pending
	f.game.spawnNextStone()
	same := f.game.pending == first
	f.game.mu.Unlock()
	if !same {
		t.Error("a second spawn request should not restart the selection")
	}

	f.run(selectionTime)
	if f.audio.count(CueWheelSpin) != 1 || len(f.spawner.calls) != 1 {
		t.Errorf("spins %d spawns %d, want 1 and 1", f.audio.count(CueWheelSpin), len(f.spawner.calls))
	}
}

func TestManualSpinFeedsNextStone(t *testing.T) {
	f := newFixture(DefaultConfig())
	f.game.StartMatch(ModeWild)
	f.run(selectionTime)
	first := f.game.Snapshot().Current
	f.game.ReleaseStone(first)

	if !f.game.SpinWheel() {
		t.Fatal("manual spin refused")
	}
	if f.game.SpinWheel() {
		t.Error("second spin while spinning should be refused")
	}
	if !f.game.AdvanceTurn() {
		t.Fatal("advance during a hand spin should close the delivery")
	}
	v := f.game.Snapshot()
	if v.Stone != 1 || !v.Selecting {
		t.Errorf("stone %d selecting %v, want 1 and true", v.Stone, v.Selecting)
	}
	if len(f.spawner.calls) != 1 {
		t.Fatalf("next stone spawned before the wheel stopped: %+v", f.spawner.calls)
	}
	if f.game.AdvanceTurn() {
		t.Error("advance while the next stone waits on the wheel should be ignored")
	}

	f.run(DefaultSpinDuration + RevealDelay + 0.5)
	msgs := f.out.ofType(MsgPowerUp)
	if len(msgs) != 2 {
		t.Fatalf("powerup messages %d, want 2", len(msgs))
	}
	picked := msgs[1].(PowerUpMsg).PowerUp
	if len(f.spawner.calls) != 2 || f.spawner.calls[1].variant.String() != picked {
		t.Errorf("second stone %+v, want %s", f.spawner.calls, picked)
	}
	if f.audio.count(CueWheelSpin) != 2 {
		t.Errorf("the hand spin should be joined, got %d spins", f.audio.count(CueWheelSpin))
	}
}

func TestManualSpinResultUsedOnAdvance(t *testing.T) {
	f := newFixture(DefaultConfig())
	f.game.StartMatch(ModeWild)
	f.run(selectionTime)

	f.game.SpinWheel()
	f.run(DefaultSpinDuration + 0.1)
	picked := f.game.Snapshot().PowerUp
	if picked == PowerUpNone {
		t.Fatal("manual spin should leave a selection")
	}
	if !f.game.AdvanceTurn() {
		t.Fatal("advance refused")
	}
	if len(f.spawner.calls) != 2 || f.spawner.calls[1].variant != picked.Variant() {
		t.Errorf("second stone %+v, want %s", f.spawner.calls, picked)
	}
	if f.game.Snapshot().PowerUp != PowerUpNone {
		t.Error("selection should be consumed by the spawn")
	}
}

func TestSpinWheelCasualRefused(t *testing.T) {
	f := newFixture(DefaultConfig())
	f.game.StartMatch(ModeCasual)
	if f.game.SpinWheel() {
		t.Error("casual mode never uses the wheel")
	}
}

func TestFreezeStoneStartsAtMaxDrag(t *testing.T) {
	f := newFixture(DefaultConfig())
	f.game.mu.Lock()
	f.game.state = StatePlaying
	f.game.spawn(VariantFreeze, TeamBlue)
	f.game.mu.Unlock()

	h := f.spawner.calls[0].handle
	if len(h.drags) == 0 || h.drags[0] != MaxStoneDrag {
		t.Errorf("freeze drags %v, want %v", h.drags, MaxStoneDrag)
	}
}

func TestNoSpawnPoint(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SpawnPose = nil
	f := newFixture(cfg)
	f.game.StartMatch(ModeCasual)
	if len(f.spawner.calls) != 0 || len(f.game.Snapshot().Stones) != 0 {
		t.Error("no spawn point means no stones")
	}
	f.playEnd(t)
	if f.game.State() != StateEndOfEnd {
		t.Errorf("turns should still advance, state %s", f.game.State())
	}
}

func TestNoSpawnPointDropsStaleTarget(t *testing.T) {
	f := newFixture(DefaultConfig())
	f.game.StartMatch(ModeCasual)
	first := f.game.Snapshot().Current

	f.game.mu.Lock()
	f.game.cfg.SpawnPose = nil
	f.game.mu.Unlock()
	f.game.AdvanceTurn()

	if v := f.game.Snapshot(); v.Current != "" || f.game.sweeper.Target() != "" {
		t.Fatalf("current %q target %q, want both cleared", v.Current, f.game.sweeper.Target())
	}
	f.game.HandleGesture(shake(0))
	f.run(0.1)
	if d := f.game.Snapshot().Stones[0].Drag; d != NormalStoneDrag {
		t.Errorf("released stone %s swept to %v", first, d)
	}
}

func TestPartialConfigGetsDefaults(t *testing.T) {
	g := NewGame("partial", MatchConfig{TotalEnds: 2}, Services{}, seeded(1))
	def := DefaultConfig()
	if g.cfg.TotalEnds != 2 {
		t.Errorf("total ends %d, want 2", g.cfg.TotalEnds)
	}
	if g.cfg.SettleDelay != def.SettleDelay || g.cfg.PreSpinDelay != def.PreSpinDelay || g.cfg.RevealDelay != def.RevealDelay {
		t.Errorf("delays %+v, want defaults", g.cfg)
	}
	if g.cfg.Center != def.Center || g.cfg.StonesPerEnd != def.StonesPerEnd {
		t.Errorf("center %+v stones %d, want defaults", g.cfg.Center, g.cfg.StonesPerEnd)
	}
	if g.cfg.SpawnPose != nil {
		t.Error("a missing spawn point stays missing")
	}
}

func TestSpawnerErrorKeepsStone(t *testing.T) {
	f := newFixture(DefaultConfig())
	f.spawner.err = ErrNoSpawnPoint
	f.game.StartMatch(ModeCasual)
	if len(f.game.Snapshot().Stones) != 1 {
		t.Error("stone should be tracked without a body")
	}
}

func TestUpdateStoneOffSheet(t *testing.T) {
	f := newFixture(DefaultConfig())
	f.game.StartMatch(ModeCasual)
	id := f.game.Snapshot().Current

	if !f.game.UpdateStone(id, Vec3{Z: 10}) {
		t.Fatal("position update refused")
	}
	f.game.UpdateStone(id, Vec3{X: SheetWidth, Z: 20})
	v := f.game.Snapshot()
	if len(v.Stones) != 0 || v.Current != "" {
		t.Errorf("stone off the sheet should be destroyed: %+v", v.Stones)
	}
	if f.game.UpdateStone(id, Vec3{Z: 10}) {
		t.Error("updates for destroyed stones are rejected")
	}
}

func TestStoneOutOfPlay(t *testing.T) {
	f := newFixture(DefaultConfig())
	f.game.StartMatch(ModeCasual)
	id := f.game.Snapshot().Current
	if !f.game.StoneOutOfPlay(id) || f.game.StoneOutOfPlay(id) {
		t.Error("dead zone should destroy the stone exactly once")
	}
}

func TestReportCollision(t *testing.T) {
	f := newFixture(DefaultConfig())
	f.game.StartMatch(ModeCasual)
	a := f.game.Snapshot().Current
	f.game.AdvanceTurn()
	b := f.game.Snapshot().Current

	f.game.ReportCollision(a, b, 5)
	f.game.ReportCollision(a, "ghost", 5)
	if f.audio.count(CueStoneCollision) != 1 {
		t.Fatalf("expected one collision cue, got %d", f.audio.count(CueStoneCollision))
	}
	if vol := f.audio.vols[len(f.audio.vols)-1]; vol != 0.5 {
		t.Errorf("volume %v, want 0.5", vol)
	}
}

func TestGesturePushUntilRelease(t *testing.T) {
	f := newFixture(DefaultConfig())
	f.game.StartMatch(ModeCasual)
	h := f.spawner.calls[0].handle

	f.game.HandleGesture(GestureSample{Forward: 1})
	f.run(0.1)
	if len(h.pushes) == 0 {
		t.Fatal("forward input should push the stone")
	}

	f.game.ReleaseStone(f.spawner.calls[0].id)
	n := len(h.pushes)
	f.run(0.1)
	if len(h.pushes) != n {
		t.Error("released stone should not be pushed")
	}
}

func TestGestureSweepsCurrentStone(t *testing.T) {
	f := newFixture(DefaultConfig())
	f.game.StartMatch(ModeCasual)

	f.game.HandleGesture(shake(0))
	f.game.update()
	f.game.HandleGesture(shake(1))
	f.game.update()

	v := f.game.Snapshot()
	if !v.Sweeping {
		t.Fatal("sweep should be active")
	}
	if want := NormalStoneDrag * SweepDragFactor; math.Abs(v.Stones[0].Drag-want) > 1e-12 {
		t.Errorf("drag %v, want %v", v.Stones[0].Drag, want)
	}
}

func TestBroadcastState(t *testing.T) {
	f := newFixture(DefaultConfig())
	f.game.StartMatch(ModeCasual)
	f.run(0.2)

	f.out.mu.Lock()
	frames := append([][]byte(nil), f.out.frames...)
	f.out.mu.Unlock()
	if len(frames) == 0 {
		t.Fatal("no state frames sent")
	}
	last := frames[len(frames)-1]

	var v MatchView
	if err := msgpack.Unmarshal(last, &v); err != nil {
		t.Fatalf("msgpack unmarshal: %v", err)
	}
	if v.State != StatePlaying || len(v.Stones) != 1 || v.TotalEnds != DefaultTotalEnds {
		t.Errorf("decoded view %+v", v)
	}
}

func TestScoreMessages(t *testing.T) {
	f := newFixture(DefaultConfig())
	f.game.StartMatch(ModeCasual)
	scores := f.out.ofType(MsgScore)
	if len(scores) == 0 {
		t.Fatal("start should send a score message")
	}
	raw, _ := json.Marshal(scores[0])
	var m map[string]int
	json.Unmarshal(raw, &m)
	if m["end"] != 1 || m["total"] != DefaultTotalEnds {
		t.Errorf("score message %v", m)
	}
}

func TestMissingCollaborators(t *testing.T) {
	g := NewGame("bare", DefaultConfig(), Services{}, nil)
	if !g.StartMatch(ModeWild) {
		t.Fatal("start should work without collaborators")
	}
	for i := 0; i < 10*TickRate; i++ {
		g.update()
	}
	if !g.AdvanceTurn() {
		t.Error("wild match should progress with no audio or spawner")
	}
}

func TestGameRunStop(t *testing.T) {
	f := newFixture(DefaultConfig())
	done := make(chan struct{})
	go func() {
		f.game.Run()
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)
	f.game.Stop()
	f.game.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

func TestNextSpawnRestoresSweptStone(t *testing.T) {
	f := newFixture(DefaultConfig())
	f.game.StartMatch(ModeCasual)
	first := f.spawner.calls[0]

	f.game.HandleGesture(shake(0))
	f.game.update()
	if !f.game.Snapshot().Sweeping {
		t.Fatal("sweep should start")
	}
	f.game.HandleGesture(GestureSample{})
	f.game.AdvanceTurn()
	f.run(SweepDuration + 1)

	v := f.game.Snapshot()
	if v.Stones[0].ID != first.id || v.Stones[0].Drag != NormalStoneDrag {
		t.Errorf("swept stone %+v, want drag %v", v.Stones[0], NormalStoneDrag)
	}
	if last := first.handle.drags[len(first.handle.drags)-1]; last != NormalStoneDrag {
		t.Errorf("handle last drag %v, want %v", last, NormalStoneDrag)
	}
}
