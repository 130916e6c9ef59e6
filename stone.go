package main

import "math"

// Team owns stones and score buckets
type Team int

const (
	TeamRed  Team = 0
	TeamBlue Team = 1
)

func (t Team) String() string {
	if t == TeamBlue {
		return "blue"
	}
	return "red"
}

// Other returns the opposing team
func (t Team) Other() Team {
	if t == TeamBlue {
		return TeamRed
	}
	return TeamBlue
}

// ParseTeam maps a wire name to a team. ok is false for spectators.
func ParseTeam(s string) (Team, bool) {
	switch s {
	case "red":
		return TeamRed, true
	case "blue":
		return TeamBlue, true
	}
	return TeamRed, false
}

// TeamForStone returns the delivering team for a stone index: even → red, odd → blue
func TeamForStone(index int) Team {
	if index%2 == 0 {
		return TeamRed
	}
	return TeamBlue
}

// StoneVariant is the shape a stone is spawned with
type StoneVariant int

const (
	VariantStandard StoneVariant = 0
	VariantJumbo    StoneVariant = 1
	VariantMini     StoneVariant = 2
	VariantFreeze   StoneVariant = 3
)

func (v StoneVariant) String() string {
	switch v {
	case VariantJumbo:
		return "jumbo"
	case VariantMini:
		return "mini"
	case VariantFreeze:
		return "freeze"
	default:
		return "standard"
	}
}

// Stone physical defaults
const (
	StoneRadius       = 0.145 // meters
	StoneWeight       = 20.0
	StoneAcceleration = 5.0
	StoneSpinRate     = 1.0 // degrees/s applied while in play
)

// VariantProfile holds the spawn-time properties of a stone variant
type VariantProfile struct {
	Radius float64
	Weight float64
	// StartsFrozen stones start at the maximum drag
	StartsFrozen bool
}

// ProfileFor returns the spawn profile of a variant
func ProfileFor(v StoneVariant) VariantProfile {
	switch v {
	case VariantJumbo:
		return VariantProfile{Radius: StoneRadius * 1.5, Weight: 30}
	case VariantMini:
		return VariantProfile{Radius: StoneRadius * 0.7, Weight: 12}
	case VariantFreeze:
		return VariantProfile{Radius: StoneRadius, Weight: StoneWeight, StartsFrozen: true}
	default:
		return VariantProfile{Radius: StoneRadius, Weight: StoneWeight}
	}
}

// Vec3 is a position or velocity on the sheet
type Vec3 struct {
	X, Y, Z float64
}

// Sub returns v - o
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Len returns the euclidean length of v
func (v Vec3) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Distance3 returns the euclidean distance between two points
func Distance3(a, b Vec3) float64 {
	return a.Sub(b).Len()
}

// Pose is a spawn position plus heading in degrees
type Pose struct {
	Position Vec3
	Yaw      float64
}

// Stone is one delivered stone
type Stone struct {
	ID       string
	Team     Team
	Variant  StoneVariant
	Pos      Vec3
	Yaw      float64
	Drag     float64
	Weight   float64
	Radius   float64
	Released bool

	handle StoneHandle
}

// NewStone creates a stone at the given pose
func NewStone(id string, variant StoneVariant, team Team, pose Pose, drag float64) *Stone {
	prof := ProfileFor(variant)
	return &Stone{
		ID:      id,
		Team:    team,
		Variant: variant,
		Pos:     pose.Position,
		Yaw:     pose.Yaw,
		Drag:    drag,
		Weight:  prof.Weight,
		Radius:  prof.Radius,
	}
}

// Push applies the player's forward input. Released stones ignore it.
// Returns the velocity change to hand to the physics collaborator.
func (s *Stone) Push(input, dt float64) float64 {
	if s.Released || input <= 0 {
		return 0
	}
	return StoneAcceleration * input * dt
}

// Update rotates the stone slowly while it is on the sheet
func (s *Stone) Update(dt float64) {
	s.Yaw = math.Mod(s.Yaw+StoneSpinRate*dt, 360)
}

// ToState converts to protocol state
func (s *Stone) ToState() StoneState {
	return StoneState{
		ID:       s.ID,
		Team:     s.Team,
		Variant:  s.Variant,
		X:        s.Pos.X,
		Y:        s.Pos.Y,
		Z:        s.Pos.Z,
		Drag:     s.Drag,
		Released: s.Released,
	}
}

// Position returns the stone center as a vector
func (st StoneState) Position() Vec3 {
	return Vec3{st.X, st.Y, st.Z}
}
