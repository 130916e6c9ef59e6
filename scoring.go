package main

import "math"

// EndScore is the outcome of one end. Points == 0 means nobody scored,
// whatever Team says.
type EndScore struct {
	Team   Team `json:"team" msgpack:"team"`
	Points int  `json:"points" msgpack:"points"`
}

// ScoringEngine resolves an end from stone positions
type ScoringEngine struct {
	Center Vec3
}

// NewScoringEngine creates a scoring engine measuring from center
func NewScoringEngine(center Vec3) *ScoringEngine {
	return &ScoringEngine{Center: center}
}

// CalculateScore awards the end to the team with the stone closest to the
// center. That team counts every stone closer than the opponent's best.
// Equal best distances, including no stones at all, return (red, 0).
func (se *ScoringEngine) CalculateScore(stones []StoneState) EndScore {
	dists := make([]float64, len(stones))
	minRed := math.Inf(1)
	minBlue := math.Inf(1)

	for i, st := range stones {
		d := Distance3(st.Position(), se.Center)
		dists[i] = d
		switch st.Team {
		case TeamRed:
			if d < minRed {
				minRed = d
			}
		case TeamBlue:
			if d < minBlue {
				minBlue = d
			}
		}
	}

	var winner Team
	var bar float64
	switch {
	case minRed < minBlue:
		winner, bar = TeamRed, minBlue
	case minBlue < minRed:
		winner, bar = TeamBlue, minRed
	default:
		return EndScore{Team: TeamRed, Points: 0}
	}

	points := 0
	for i, st := range stones {
		if st.Team == winner && dists[i] < bar {
			points++
		}
	}
	return EndScore{Team: winner, Points: points}
}
