package scan

// Profile holds one distance per distinct scan angle. Positions sharing an
// angle share a slot; the index map is built once and the profile is never
// resized.
type Profile struct {
	angles []float64
	slot   []int // position index -> slot
	dist   []int
}

// NewProfile builds the slot map for positions, in order of first occurrence
// of each angle.
func NewProfile(positions []Position) *Profile {
	p := &Profile{slot: make([]int, len(positions))}
	for i, pos := range positions {
		j := p.indexOf(pos.Degrees)
		if j < 0 {
			p.angles = append(p.angles, pos.Degrees)
			j = len(p.angles) - 1
		}
		p.slot[i] = j
	}
	p.dist = make([]int, len(p.angles))
	return p
}

func (p *Profile) indexOf(deg float64) int {
	for j, a := range p.angles {
		if a == deg {
			return j
		}
	}
	return -1
}

// Len is the number of distinct angles.
func (p *Profile) Len() int {
	return len(p.dist)
}

// Slot returns the profile slot of position i.
func (p *Profile) Slot(i int) int {
	return p.slot[i]
}

// Angles returns the distinct angles in slot order.
func (p *Profile) Angles() []float64 {
	return append([]float64(nil), p.angles...)
}

// Set stores a distance in a slot.
func (p *Profile) Set(slot, cm int) {
	p.dist[slot] = cm
}

// Values returns a copy of the distances.
func (p *Profile) Values() []int {
	return append([]int(nil), p.dist...)
}
