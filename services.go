package main

import "errors"

// Collaborator errors. None of them are fatal to a match.
var (
	ErrNoSpawnPoint  = errors.New("no spawn point configured")
	ErrAudioDisabled = errors.New("audio channel disabled")
	ErrUnknownCue    = errors.New("unknown audio cue")
)

// StoneHandle is the physics-side object behind a registered stone
type StoneHandle interface {
	SetTeam(team Team)
	SetDrag(drag float64)
	// Push hands a forward velocity change to the physics body
	Push(dv float64)
}

// StoneSpawner creates the physics/visual body for a stone
type StoneSpawner interface {
	Spawn(id string, variant StoneVariant, team Team, pose Pose) (StoneHandle, error)
}

// ScoreRenderer displays the running score. Fire and forget.
type ScoreRenderer interface {
	Render(redScore, blueScore, end, totalEnds int)
}

// Cue identifies an audio cue
type Cue int

const (
	CueWheelSpin Cue = iota
	CueWheelSelect
	CueStoneCollision
	CueEndScored
	CueGameOver
)

func (c Cue) String() string {
	switch c {
	case CueWheelSpin:
		return "wheel_spin"
	case CueWheelSelect:
		return "wheel_select"
	case CueStoneCollision:
		return "stone_collision"
	case CueEndScored:
		return "end_scored"
	case CueGameOver:
		return "game_over"
	}
	return "unknown"
}

// AudioCues plays short sounds. Errors are logged by callers and never abort a sequence.
type AudioCues interface {
	Play(cue Cue, volume float64) error
}

// GestureSample is one tick of controller input
type GestureSample struct {
	LeftGrip      float64 // 0..1
	RightGrip     float64 // 0..1
	RightVelocity Vec3
	// Forward is the delivery push input, 0..1
	Forward float64
}

// GestureSource supplies controller input once per tick
type GestureSource interface {
	Sample() GestureSample
}

// Services bundles the collaborators a Game calls into. Any of them may be nil.
type Services struct {
	Spawner  StoneSpawner
	Renderer ScoreRenderer
	Audio    AudioCues
	Gestures GestureSource
	// Clients receives protocol messages for connected players
	Clients Broadcaster
	// Results persists finished matches
	Results ResultRecorder
	// Events receives analytics events
	Events EventTracker
}

// ResultRecorder stores a finished match
type ResultRecorder interface {
	RecordResult(res MatchResult) error
}

// EventTracker receives analytics events without blocking
type EventTracker interface {
	Track(evtType string, sessionID string, data string)
}
