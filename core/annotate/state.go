package annotate

// UnitState records how far a unit has been annotated within one pass
type UnitState int

const (
	StateNone UnitState = iota
	StatePartial
	StateFull
)

func (s UnitState) String() string {
	switch s {
	case StatePartial:
		return "partial"
	case StateFull:
		return "full"
	default:
		return "none"
	}
}

// ProcessingState is the per-unit marker set of a single annotation pass.
// A fresh state is created for every pass and dropped when it ends.
type ProcessingState struct {
	units map[int]UnitState
}

// NewProcessingState returns an empty state
func NewProcessingState() *ProcessingState {
	return &ProcessingState{units: make(map[int]UnitState)}
}

// Get returns the state of a unit; unknown units are StateNone
func (s *ProcessingState) Get(unit int) UnitState {
	return s.units[unit]
}

// Mark raises the state of a unit. States never go down, so a full unit stays full.
func (s *ProcessingState) Mark(unit int, st UnitState) {
	if st > s.units[unit] {
		s.units[unit] = st
	}
}

// Count returns how many units reached exactly st
func (s *ProcessingState) Count(st UnitState) int {
	n := 0
	for _, v := range s.units {
		if v == st {
			n++
		}
	}
	return n
}
