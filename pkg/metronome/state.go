// ABOUTME: Observable metronome state snapshot
// ABOUTME: Published atomically for UI polling
package metronome

// State is a point-in-time view of the scheduler
type State struct {
	Playing    bool
	Beat       int // 1-based sub-beat within the measure
	MainBeat   int // 1-based main beat within the measure
	SubBeat    int // 0-based sub-beat within the measure
	Measure    int // 1-based, increments forever while playing
	InDropout  bool
	Click      ClickKind
	Generation uint64
}

func idleState(generation uint64) State {
	return State{
		Measure:    1,
		Generation: generation,
	}
}
