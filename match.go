package main

// MatchState represents the lifecycle of a match
type MatchState int

const (
	StateMainMenu MatchState = 0
	StatePlaying  MatchState = 1
	StateEndOfEnd MatchState = 2
	StateGameOver MatchState = 3
)

func (s MatchState) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StateEndOfEnd:
		return "end_of_end"
	case StateGameOver:
		return "game_over"
	default:
		return "main_menu"
	}
}

// GameMode defines the type of match
type GameMode int

const (
	ModeCasual GameMode = 0
	ModeWild   GameMode = 1 // power-up wheel before every stone
)

func (m GameMode) String() string {
	if m == ModeWild {
		return "wild"
	}
	return "casual"
}

// Match timing defaults in seconds
const (
	DefaultTotalEnds    = 4
	DefaultStonesPerEnd = 8
	SettleDelay         = 3.0 // between end closure and the next end
	PreSpinDelay        = 1.0 // before the wheel spins
	RevealDelay         = 1.5 // showing the wheel result
)

// Sheet geometry in meters, origin at the hack
const (
	SheetLength = 45.7
	SheetWidth  = 4.75
	HouseRadius = 1.83
	TeeLine     = 38.4
)

// MatchConfig holds settings for a match
type MatchConfig struct {
	TotalEnds    int
	StonesPerEnd int
	SettleDelay  float64
	PreSpinDelay float64
	RevealDelay  float64
	SpinDuration float64
	// Center is the button the scoring engine measures from
	Center Vec3
	// SpawnPose is where each stone appears. Nil means no spawn point is
	// configured and has no default: stones are skipped with a log line.
	SpawnPose *Pose
	Sweep     SweepConfig
}

// DefaultConfig returns the stock match settings
func DefaultConfig() MatchConfig {
	return MatchConfig{
		TotalEnds:    DefaultTotalEnds,
		StonesPerEnd: DefaultStonesPerEnd,
		SettleDelay:  SettleDelay,
		PreSpinDelay: PreSpinDelay,
		RevealDelay:  RevealDelay,
		SpinDuration: DefaultSpinDuration,
		Center:       Vec3{X: 0, Y: 0, Z: TeeLine},
		SpawnPose:    &Pose{Position: Vec3{X: 0, Y: 0, Z: 0}},
		Sweep:        DefaultSweepConfig(),
	}
}

// normalize fills zero values with defaults. SpawnPose is left alone.
func (c MatchConfig) normalize() MatchConfig {
	def := DefaultConfig()
	if c.TotalEnds <= 0 {
		c.TotalEnds = def.TotalEnds
	}
	if c.StonesPerEnd <= 0 {
		c.StonesPerEnd = def.StonesPerEnd
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = def.SettleDelay
	}
	if c.PreSpinDelay <= 0 {
		c.PreSpinDelay = def.PreSpinDelay
	}
	if c.RevealDelay <= 0 {
		c.RevealDelay = def.RevealDelay
	}
	if c.SpinDuration <= 0 {
		c.SpinDuration = def.SpinDuration
	}
	// the origin is the hack, never the button
	if c.Center == (Vec3{}) {
		c.Center = def.Center
	}
	if c.Sweep == (SweepConfig{}) {
		c.Sweep = def.Sweep
	}
	return c
}

// OnSheet reports whether a position is still in play
func OnSheet(p Vec3) bool {
	return p.X >= -SheetWidth/2 && p.X <= SheetWidth/2 && p.Z >= 0 && p.Z <= SheetLength
}

// EndResult records one scored end
type EndResult struct {
	End    int  `json:"end" msgpack:"end"`
	Team   Team `json:"team" msgpack:"team"`
	Points int  `json:"points" msgpack:"points"`
}

// MatchResult summarises a finished match
type MatchResult struct {
	SessionID string      `json:"sid"`
	Mode      GameMode    `json:"mode"`
	TotalEnds int         `json:"ends"`
	Red       int         `json:"red"`
	Blue      int         `json:"blue"`
	Ends      []EndResult `json:"end_results"`
}

// Winner returns the winning team, ok is false on a draw
func (r MatchResult) Winner() (Team, bool) {
	switch {
	case r.Red > r.Blue:
		return TeamRed, true
	case r.Blue > r.Red:
		return TeamBlue, true
	}
	return TeamRed, false
}
