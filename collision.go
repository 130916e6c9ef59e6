package main

const (
	MaxCollisionVelocity = 10.0 // m/s at which the clack is loudest
	MaxCollisionVolume   = 1.0
)

// CheckCollision checks if two stones overlap on the ice plane
func CheckCollision(a, b Vec3, ra, rb float64) bool {
	dx := b.X - a.X
	dz := b.Z - a.Z
	dist2 := dx*dx + dz*dz
	radSum := ra + rb
	return dist2 <= radSum*radSum
}

// CollisionVolume scales the collision cue with impact speed
func CollisionVolume(relativeSpeed float64) float64 {
	return Clamp01(relativeSpeed/MaxCollisionVelocity) * MaxCollisionVolume
}

// InHouse reports whether a stone touches the house around center
func InHouse(st StoneState, center Vec3) bool {
	return CheckCollision(st.Position(), center, ProfileFor(st.Variant).Radius, HouseRadius)
}
