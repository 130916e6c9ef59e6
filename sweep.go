package main

// Sweeping defaults
const (
	SweepGripThreshold  = 0.8
	SweepShakeThreshold = 1.2 // m/s change between samples
	SweepDragFactor     = 0.98
	SweepDuration       = 2.0 // seconds
	MinStoneDrag        = 0.02
	MaxStoneDrag        = 0.2
	NormalStoneDrag     = 0.1
)

// SweepConfig tunes the sweeping controller
type SweepConfig struct {
	GripThreshold  float64
	ShakeThreshold float64
	Factor         float64
	Duration       float64
	MinDrag        float64
	MaxDrag        float64
	NormalDrag     float64
}

// DefaultSweepConfig returns the stock sweeping tuning
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		GripThreshold:  SweepGripThreshold,
		ShakeThreshold: SweepShakeThreshold,
		Factor:         SweepDragFactor,
		Duration:       SweepDuration,
		MinDrag:        MinStoneDrag,
		MaxDrag:        MaxStoneDrag,
		NormalDrag:     NormalStoneDrag,
	}
}

// DragTarget is the stone storage the sweeper writes through
type DragTarget interface {
	Drag(id string) (float64, bool)
	SetDrag(id string, drag float64) bool
}

// SweepController lowers a stone's drag while players sweep in front of it.
// It knows nothing about turns, teams or scoring.
type SweepController struct {
	cfg    SweepConfig
	stones DragTarget

	targetID  string
	lastVel   Vec3
	active    bool
	timer     float64
	sweepDrag float64
}

// NewSweepController creates an idle sweeper
func NewSweepController(cfg SweepConfig, stones DragTarget) *SweepController {
	return &SweepController{cfg: cfg, stones: stones}
}

// SetTarget points the sweeper at a stone. An active sweep on the previous
// stone ends and that stone goes back to normal drag.
func (sc *SweepController) SetTarget(id string) {
	if sc.targetID == id {
		return
	}
	if sc.active {
		sc.stop()
	}
	sc.targetID = id
	sc.lastVel = Vec3{}
}

// Target returns the ID of the targeted stone
func (sc *SweepController) Target() string {
	return sc.targetID
}

// Active reports whether a sweep is running
func (sc *SweepController) Active() bool {
	return sc.active
}

// Update consumes one input sample and advances the sweep timer
func (sc *SweepController) Update(dt float64, in GestureSample) {
	gripped := in.LeftGrip > sc.cfg.GripThreshold && in.RightGrip > sc.cfg.GripThreshold
	if gripped && sc.targetID != "" {
		if in.RightVelocity.Sub(sc.lastVel).Len() > sc.cfg.ShakeThreshold {
			sc.trigger()
		}
		sc.lastVel = in.RightVelocity
	} else {
		sc.lastVel = Vec3{}
	}

	if sc.active {
		sc.timer -= dt
		if sc.timer <= 0 {
			sc.stop()
		}
	}
}

func (sc *SweepController) trigger() {
	if !sc.active {
		drag, ok := sc.stones.Drag(sc.targetID)
		if !ok {
			sc.targetID = ""
			return
		}
		sc.sweepDrag = Clamp(drag*sc.cfg.Factor, sc.cfg.MinDrag, sc.cfg.MaxDrag)
	}
	sc.active = true
	sc.timer = sc.cfg.Duration
	if !sc.stones.SetDrag(sc.targetID, sc.sweepDrag) {
		sc.active = false
		sc.targetID = ""
	}
}

func (sc *SweepController) stop() {
	sc.active = false
	sc.timer = 0
	sc.stones.SetDrag(sc.targetID, sc.cfg.NormalDrag)
}
