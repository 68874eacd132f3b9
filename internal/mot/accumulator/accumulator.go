// Package accumulator folds per-frame match results for one (ground truth,
// predictions) pair into an event log, tracking the identity continuity
// needed to detect identity switches and fragmentations.
//
// An Accumulator is strictly sequential: frames must be fed in increasing
// order and an instance must not be shared between trackers.
package accumulator

import (
	"errors"
	"fmt"

	"github.com/banshee-data/motbench/internal/mot/matching"
)

// ErrFrameOrder is returned by Update when frames are not strictly
// increasing.
var ErrFrameOrder = errors.New("frame out of order")

// EventType classifies an accumulator event.
type EventType int

const (
	EventMatch EventType = iota
	EventSwitch
	EventMiss
	EventFalsePositive
	EventFragmentation
)

func (t EventType) String() string {
	switch t {
	case EventMatch:
		return "MATCH"
	case EventSwitch:
		return "SWITCH"
	case EventMiss:
		return "MISS"
	case EventFalsePositive:
		return "FP"
	case EventFragmentation:
		return "FRAG"
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// Event is one entry in the accumulator log. GTID is -1 for false
// positives; PredID is -1 for misses. For switches PrevPredID holds the
// prediction the object was previously matched to.
type Event struct {
	Frame      int
	Type       EventType
	GTID       int
	PredID     int
	PrevPredID int
	Distance   float64
}

// ObjectStats is the per ground truth identity bookkeeping used for the
// mostly tracked / mostly lost classification. Positions index the
// sequence of frames fed to the accumulator, not raw frame numbers.
type ObjectStats struct {
	FirstPos int
	LastPos  int
	Present  int
	Matched  int
}

// Lifespan is the number of accumulated frames from the object's first to
// its last appearance, inclusive.
func (s ObjectStats) Lifespan() int {
	return s.LastPos - s.FirstPos + 1
}

type objectState struct {
	stats       ObjectStats
	everMatched bool
	lastWasMiss bool
}

// Accumulator holds the running state for one tracker evaluation.
type Accumulator struct {
	events    []Event
	lastMatch map[int]int
	objects   map[int]*objectState

	frames    int
	lastFrame int

	numMatches   int
	numSwitches  int
	numMisses    int
	numFP        int
	numFrags     int
	numObjects   int
	numPreds     int
	matchOverlap []float64
}

// New returns an empty Accumulator.
func New() *Accumulator {
	return &Accumulator{
		lastMatch: make(map[int]int),
		objects:   make(map[int]*objectState),
		lastFrame: -1,
	}
}

// LastMatches returns the ground truth → prediction pairing state. The map
// is owned by the accumulator and must only be read, e.g. as the prior for
// matching.Matcher.Match on the next frame.
func (a *Accumulator) LastMatches() map[int]int {
	return a.lastMatch
}

// Update folds one frame's result into the state. Frames must be strictly
// increasing.
func (a *Accumulator) Update(frame int, res matching.MatchResult) error {
	if a.frames > 0 && frame <= a.lastFrame {
		return fmt.Errorf("%w: frame %d after frame %d", ErrFrameOrder, frame, a.lastFrame)
	}
	pos := a.frames
	a.frames++
	a.lastFrame = frame

	for _, p := range res.Matches {
		obj := a.object(p.GTID, pos)
		obj.stats.Matched++

		if obj.everMatched && obj.lastWasMiss {
			a.numFrags++
			a.events = append(a.events, Event{Frame: frame, Type: EventFragmentation, GTID: p.GTID, PredID: p.PredID, PrevPredID: -1})
		}

		ev := Event{Frame: frame, Type: EventMatch, GTID: p.GTID, PredID: p.PredID, PrevPredID: -1, Distance: p.Distance}
		if prev, ok := a.lastMatch[p.GTID]; ok && prev != p.PredID {
			ev.Type = EventSwitch
			ev.PrevPredID = prev
			a.numSwitches++
		}
		a.events = append(a.events, ev)

		a.lastMatch[p.GTID] = p.PredID
		obj.everMatched = true
		obj.lastWasMiss = false

		a.numMatches++
		a.matchOverlap = append(a.matchOverlap, 1-p.Distance)
	}

	for _, id := range res.MissedGT {
		obj := a.object(id, pos)
		obj.lastWasMiss = true
		a.numMisses++
		a.events = append(a.events, Event{Frame: frame, Type: EventMiss, GTID: id, PredID: -1, PrevPredID: -1, Distance: matching.Unmatchable})
	}

	for _, id := range res.FalsePositives {
		a.numFP++
		a.events = append(a.events, Event{Frame: frame, Type: EventFalsePositive, GTID: -1, PredID: id, PrevPredID: -1, Distance: matching.Unmatchable})
	}

	a.numObjects += len(res.Matches) + len(res.MissedGT)
	a.numPreds += len(res.Matches) + len(res.FalsePositives)
	return nil
}

func (a *Accumulator) object(id, pos int) *objectState {
	obj, ok := a.objects[id]
	if !ok {
		obj = &objectState{stats: ObjectStats{FirstPos: pos}}
		a.objects[id] = obj
	}
	obj.stats.LastPos = pos
	obj.stats.Present++
	return obj
}

// Events returns a copy of the event log in the order events were recorded.
func (a *Accumulator) Events() []Event {
	out := make([]Event, len(a.events))
	copy(out, a.events)
	return out
}

// Objects returns per ground truth identity statistics.
func (a *Accumulator) Objects() map[int]ObjectStats {
	out := make(map[int]ObjectStats, len(a.objects))
	for id, o := range a.objects {
		out[id] = o.stats
	}
	return out
}

// MatchOverlaps returns 1-distance for every accepted match, switches
// included, in the order they were recorded.
func (a *Accumulator) MatchOverlaps() []float64 {
	out := make([]float64, len(a.matchOverlap))
	copy(out, a.matchOverlap)
	return out
}

// Counts is a snapshot of the accumulator's counters.
type Counts struct {
	Frames         int
	Objects        int // ground truth boxes seen
	Predictions    int // predicted boxes seen
	Matches        int // switches included
	Switches       int
	Misses         int
	FalsePositives int
	Fragmentations int
	UniqueObjects  int
}

// Counts returns the current counters.
func (a *Accumulator) Counts() Counts {
	return Counts{
		Frames:         a.frames,
		Objects:        a.numObjects,
		Predictions:    a.numPreds,
		Matches:        a.numMatches,
		Switches:       a.numSwitches,
		Misses:         a.numMisses,
		FalsePositives: a.numFP,
		Fragmentations: a.numFrags,
		UniqueObjects:  len(a.objects),
	}
}
