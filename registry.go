package main

// StoneRegistry owns the live stones of a match. Not safe for concurrent
// use; the owning Game serializes access.
type StoneRegistry struct {
	stones map[string]*Stone
	order  []string
}

// NewStoneRegistry creates an empty registry
func NewStoneRegistry() *StoneRegistry {
	return &StoneRegistry{
		stones: make(map[string]*Stone),
	}
}

// Add registers a new stone. handle may be nil when no spawner is configured.
func (r *StoneRegistry) Add(variant StoneVariant, team Team, pose Pose, drag float64, handle StoneHandle) *Stone {
	id := GenerateID(4)
	for r.stones[id] != nil {
		id = GenerateID(4)
	}
	s := NewStone(id, variant, team, pose, drag)
	s.handle = handle
	r.stones[id] = s
	r.order = append(r.order, id)
	return s
}

// Attach sets the physics handle for a registered stone
func (r *StoneRegistry) Attach(id string, handle StoneHandle) {
	if s, ok := r.stones[id]; ok {
		s.handle = handle
	}
}

// Get returns a stone by ID
func (r *StoneRegistry) Get(id string) (*Stone, bool) {
	s, ok := r.stones[id]
	return s, ok
}

// Remove destroys a stone. Returns false if it was not registered.
func (r *StoneRegistry) Remove(id string) bool {
	if _, ok := r.stones[id]; !ok {
		return false
	}
	delete(r.stones, id)
	for i, sid := range r.order {
		if sid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Clear destroys every stone
func (r *StoneRegistry) Clear() {
	clear(r.stones)
	r.order = r.order[:0]
}

// Len returns the number of live stones
func (r *StoneRegistry) Len() int {
	return len(r.stones)
}

// SetPosition records a position reported by physics
func (r *StoneRegistry) SetPosition(id string, pos Vec3) bool {
	s, ok := r.stones[id]
	if !ok {
		return false
	}
	s.Pos = pos
	return true
}

// Drag returns the current drag of a stone
func (r *StoneRegistry) Drag(id string) (float64, bool) {
	s, ok := r.stones[id]
	if !ok {
		return 0, false
	}
	return s.Drag, true
}

// SetDrag updates a stone's drag and forwards it to the physics handle
func (r *StoneRegistry) SetDrag(id string, drag float64) bool {
	s, ok := r.stones[id]
	if !ok {
		return false
	}
	s.Drag = drag
	if s.handle != nil {
		s.handle.SetDrag(drag)
	}
	return true
}

// Release marks a stone as let go. Returns false if unknown or already released.
func (r *StoneRegistry) Release(id string) bool {
	s, ok := r.stones[id]
	if !ok || s.Released {
		return false
	}
	s.Released = true
	return true
}

// Update ticks every live stone
func (r *StoneRegistry) Update(dt float64) {
	for _, id := range r.order {
		r.stones[id].Update(dt)
	}
}

// Snapshot copies the live stones in spawn order
func (r *StoneRegistry) Snapshot() []StoneState {
	out := make([]StoneState, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.stones[id].ToState())
	}
	return out
}
