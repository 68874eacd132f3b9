package boxset

// Box is one observation of an identity in a frame. X2 and Y2 are derived
// from the top-left corner and size by NewBox and are not recomputed.
type Box struct {
	Frame      int
	ID         int
	X          float64
	Y          float64
	Width      float64
	Height     float64
	Confidence float64
	ClassID    int
	Visibility float64

	X2 float64
	Y2 float64
}

// NewBox builds a Box and derives its bottom-right corner.
func NewBox(frame, id int, x, y, width, height, confidence float64, classID int, visibility float64) Box {
	return Box{
		Frame:      frame,
		ID:         id,
		X:          x,
		Y:          y,
		Width:      width,
		Height:     height,
		Confidence: confidence,
		ClassID:    classID,
		Visibility: visibility,
		X2:         x + width,
		Y2:         y + height,
	}
}

// Rect returns a box with only geometry set, for tests and fixtures.
func Rect(frame, id int, x, y, width, height float64) Box {
	return NewBox(frame, id, x, y, width, height, 1, 1, 1)
}

// Area returns width*height.
func (b Box) Area() float64 {
	return b.Width * b.Height
}

// Corners returns (x1, y1, x2, y2).
func (b Box) Corners() [4]float64 {
	return [4]float64{b.X, b.Y, b.X2, b.Y2}
}
