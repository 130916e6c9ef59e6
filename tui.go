package main

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
)

const (
	tuiRedraw        = 100 * time.Millisecond
	deliveryAttempts = 10
)

var (
	styleText  = tcell.StyleDefault
	styleTitle = tcell.StyleDefault.Bold(true)
	styleRed   = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleBlue  = tcell.StyleDefault.Foreground(tcell.ColorBlue)
	styleDim   = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

// TerminalBoard is a score display on a terminal screen
type TerminalBoard struct {
	mu    sync.Mutex
	red   int
	blue  int
	end   int
	total int
}

// Render implements ScoreRenderer. The values are drawn on the next redraw.
func (b *TerminalBoard) Render(red, blue, end, totalEnds int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.red, b.blue, b.end, b.total = red, blue, end, totalEnds
}

// Lines returns the score text as shown on screen
func (b *TerminalBoard) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return []string{
		fmt.Sprintf("Red: %d", b.red),
		fmt.Sprintf("Blue: %d", b.blue),
		fmt.Sprintf("End: %d/%d", b.end, b.total),
	}
}

// localSpawner hands out bodies for stones simulated by the terminal loop
type localSpawner struct{}

func (localSpawner) Spawn(id string, variant StoneVariant, team Team, pose Pose) (StoneHandle, error) {
	return &localStone{}, nil
}

type localStone struct {
	team Team
	drag float64
}

func (s *localStone) SetTeam(team Team)    { s.team = team }
func (s *localStone) SetDrag(drag float64) { s.drag = drag }
func (s *localStone) Push(dv float64)      {}

// hotSeat runs a local two-team match from one keyboard
type hotSeat struct {
	screen tcell.Screen
	game   *Game
	board  *TerminalBoard
	rng    *rand.Rand
	center Vec3
	status string
}

func newHotSeat(screen tcell.Screen, cfg MatchConfig, svc Services, rng *rand.Rand) *hotSeat {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	board := &TerminalBoard{}
	svc.Renderer = board
	svc.Spawner = localSpawner{}
	cfg = cfg.normalize()
	board.Render(0, 0, 1, cfg.TotalEnds)
	return &hotSeat{
		screen: screen,
		game:   NewGame("local", cfg, svc, rng),
		board:  board,
		rng:    rng,
		center: cfg.Center,
		status: "press 1 for casual or 2 for wild",
	}
}

// runTerminal plays a hot-seat match until the player quits
func runTerminal(cfg Config, svc Services) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("terminal init: %w", err)
	}
	defer screen.Fini()

	hs := newHotSeat(screen, cfg.Match(), svc, nil)
	go hs.game.Run()
	defer hs.game.Stop()

	hs.loop()
	return nil
}

func (hs *hotSeat) loop() {
	ticker := time.NewTicker(tuiRedraw)
	defer ticker.Stop()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := hs.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	hs.draw()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !hs.handleKey(ev) {
					return
				}
			case *tcell.EventResize:
				hs.screen.Sync()
			}
			hs.draw()
		case <-ticker.C:
			hs.draw()
		}
	}
}

// handleKey applies one key press. Returns false to quit.
func (hs *hotSeat) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyRune:
	default:
		return true
	}

	switch ev.Rune() {
	case 'q':
		return false
	case '1', '2':
		mode := ModeCasual
		if ev.Rune() == '2' {
			mode = ModeWild
		}
		if hs.game.StartMatch(mode) {
			hs.status = mode.String() + " match started"
		} else {
			hs.status = "a match is already running"
		}
	case ' ':
		hs.deliver()
	case 'w':
		if hs.game.SpinWheel() {
			hs.status = "wheel spinning"
		} else {
			hs.status = "wheel unavailable"
		}
	case 'm':
		if hs.game.ReturnToMenu() {
			hs.status = "back at the menu"
		}
	}
	return true
}

// deliver throws the current stone toward the house and ends the turn
func (hs *hotSeat) deliver() {
	v := hs.game.Snapshot()
	if v.State != StatePlaying {
		hs.status = "no delivery in " + v.State.String()
		return
	}
	if v.Selecting {
		hs.status = "wait for the wheel"
		return
	}
	if v.Current != "" {
		pos := hs.landing(v)
		hs.game.UpdateStone(v.Current, pos)
	}
	if hs.game.AdvanceTurn() {
		hs.status = fmt.Sprintf("%s delivered", v.Delivering)
	}
}

// landing picks a resting spot around the house that does not overlap a stone at rest
func (hs *hotSeat) landing(v MatchView) Vec3 {
	radius := StoneRadius
	for _, st := range v.Stones {
		if st.ID == v.Current {
			radius = ProfileFor(st.Variant).Radius
		}
	}

	var pos Vec3
	for range deliveryAttempts {
		pos = Vec3{
			X: (hs.rng.Float64()*2 - 1) * HouseRadius,
			Z: hs.center.Z + (hs.rng.Float64()*2-1)*(HouseRadius+0.6),
		}
		free := true
		for _, st := range v.Stones {
			if st.ID == v.Current {
				continue
			}
			if CheckCollision(pos, st.Position(), radius, ProfileFor(st.Variant).Radius) {
				free = false
				break
			}
		}
		if free {
			break
		}
	}
	return pos
}

func (hs *hotSeat) draw() {
	v := hs.game.Snapshot()
	s := hs.screen
	s.Clear()

	drawText(s, 0, 0, styleTitle, fmt.Sprintf("CURLING  %s  %s", v.Mode, v.State))

	for i, line := range hs.board.Lines() {
		style := styleText
		switch i {
		case 0:
			style = styleRed
		case 1:
			style = styleBlue
		}
		drawText(s, 0, 2+i, style, line)
	}

	if v.State == StatePlaying {
		drawText(s, 0, 6, styleText, fmt.Sprintf("Stone %d/%d  %s to throw", v.Stone+1, v.StonesPerEnd, v.Delivering))
	}

	wheel := "Wheel: -"
	switch {
	case v.Spinning:
		wheel = fmt.Sprintf("Wheel: spinning %3.0f", v.WheelAngle)
	case v.PowerUp != PowerUpNone:
		wheel = "Wheel: " + v.PowerUp.String()
	}
	if v.Mode == ModeWild {
		drawText(s, 0, 7, styleText, wheel)
	}

	red, blue := 0, 0
	for _, st := range v.Stones {
		if !InHouse(st, hs.center) {
			continue
		}
		if st.Team == TeamRed {
			red++
		} else {
			blue++
		}
	}
	drawText(s, 0, 8, styleText, fmt.Sprintf("In house  red %d  blue %d", red, blue))
	if v.Sweeping {
		drawText(s, 0, 9, styleText, "Sweeping")
	}

	for i, e := range v.Ends {
		drawText(s, 30, 2+i, styleDim, fmt.Sprintf("end %d  %s %d", e.End, e.Team, e.Points))
	}

	_, h := s.Size()
	drawText(s, 0, h-2, styleDim, hs.status)
	drawText(s, 0, h-1, styleDim, "space deliver  w spin  1 casual  2 wild  m menu  q quit")
	s.Show()
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}
