package main

import "testing"

func TestCheckCollision(t *testing.T) {
	// Overlapping stones
	if !CheckCollision(Vec3{}, Vec3{X: 0.2}, StoneRadius, StoneRadius) {
		t.Error("stones should collide (overlapping)")
	}

	// Touching stones
	if !CheckCollision(Vec3{}, Vec3{Z: 2 * StoneRadius}, StoneRadius, StoneRadius) {
		t.Error("stones should collide (touching)")
	}

	// Apart
	if CheckCollision(Vec3{}, Vec3{X: 1}, StoneRadius, StoneRadius) {
		t.Error("stones should not collide")
	}

	// Height is ignored on the ice plane
	if !CheckCollision(Vec3{}, Vec3{Y: 5}, StoneRadius, StoneRadius) {
		t.Error("height should not separate stones")
	}
}

func TestCollisionVolume(t *testing.T) {
	tests := []struct {
		speed float64
		want  float64
	}{
		{0, 0},
		{5, 0.5},
		{MaxCollisionVelocity, MaxCollisionVolume},
		{25, MaxCollisionVolume},
		{-3, 0},
	}
	for _, tt := range tests {
		if got := CollisionVolume(tt.speed); got != tt.want {
			t.Errorf("CollisionVolume(%v) = %v, want %v", tt.speed, got, tt.want)
		}
	}
}

func TestInHouse(t *testing.T) {
	center := Vec3{Z: TeeLine}
	in := StoneState{Z: TeeLine + HouseRadius}
	out := StoneState{Z: TeeLine + HouseRadius + 2*StoneRadius}
	if !InHouse(in, center) {
		t.Error("stone on the rim counts")
	}
	if InHouse(out, center) {
		t.Error("stone beyond the rim does not count")
	}
}

func TestOnSheet(t *testing.T) {
	if !OnSheet(Vec3{Z: TeeLine}) {
		t.Error("tee line is on the sheet")
	}
	if OnSheet(Vec3{X: SheetWidth, Z: 10}) || OnSheet(Vec3{Z: SheetLength + 1}) || OnSheet(Vec3{Z: -1}) {
		t.Error("outside positions should be off the sheet")
	}
}
