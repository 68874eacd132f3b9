package boxset

import (
	"fmt"
	"sort"
)

// BoxSet maps frame index to the boxes observed in that frame for a single
// source. It is immutable after New returns; slices handed out by At must
// not be modified.
type BoxSet struct {
	frames  []int
	byFrame map[int][]Box
	count   int
}

// New groups boxes by frame. Boxes keep their input order within a frame.
// A repeated identity inside one frame is rejected.
func New(boxes []Box) (*BoxSet, error) {
	s := &BoxSet{byFrame: make(map[int][]Box)}
	seen := make(map[[2]int]struct{}, len(boxes))

	for _, b := range boxes {
		if err := validate(b); err != nil {
			return nil, err
		}
		key := [2]int{b.Frame, b.ID}
		if _, dup := seen[key]; dup {
			return nil, &InputFormatError{
				Field:  "identity",
				Reason: fmt.Sprintf("duplicate identity %d in frame %d", b.ID, b.Frame),
			}
		}
		seen[key] = struct{}{}

		if _, ok := s.byFrame[b.Frame]; !ok {
			s.frames = append(s.frames, b.Frame)
		}
		s.byFrame[b.Frame] = append(s.byFrame[b.Frame], b)
		s.count++
	}

	sort.Ints(s.frames)
	return s, nil
}

// MustNew is New for fixtures; it panics on invalid input.
func MustNew(boxes ...Box) *BoxSet {
	s, err := New(boxes)
	if err != nil {
		panic(err)
	}
	return s
}

func validate(b Box) error {
	switch {
	case b.Frame < 0:
		return &InputFormatError{Field: "frame", Reason: fmt.Sprintf("negative frame index %d", b.Frame)}
	case b.ID < 0:
		return &InputFormatError{Field: "identity", Reason: fmt.Sprintf("negative identity %d", b.ID)}
	case b.Width < 0:
		return &InputFormatError{Field: "width", Reason: fmt.Sprintf("negative width %g", b.Width)}
	case b.Height < 0:
		return &InputFormatError{Field: "height", Reason: fmt.Sprintf("negative height %g", b.Height)}
	}
	return nil
}

// Frames returns the frame indices present, ascending.
func (s *BoxSet) Frames() []int {
	out := make([]int, len(s.frames))
	copy(out, s.frames)
	return out
}

// At returns the boxes observed in frame, or nil when the frame is absent.
func (s *BoxSet) At(frame int) []Box {
	return s.byFrame[frame]
}

// Len returns the total number of boxes.
func (s *BoxSet) Len() int {
	return s.count
}

// NumFrames returns the number of distinct frames.
func (s *BoxSet) NumFrames() int {
	return len(s.frames)
}

// Identities returns the distinct identities, ascending.
func (s *BoxSet) Identities() []int {
	byID := s.FramesByIdentity()
	ids := make([]int, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// FramesByIdentity returns, per identity, the ascending list of frames in
// which it appears.
func (s *BoxSet) FramesByIdentity() map[int][]int {
	out := make(map[int][]int)
	// s.frames is sorted, so each list is built in ascending order.
	for _, f := range s.frames {
		for _, b := range s.byFrame[f] {
			out[b.ID] = append(out[b.ID], f)
		}
	}
	return out
}
