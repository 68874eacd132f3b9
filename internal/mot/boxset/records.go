package boxset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/motbench/internal/fsutil"
)

// NumFields is the number of columns in a record.
const NumFields = 9

var fieldNames = [NumFields]string{
	"frame", "identity", "x", "y", "width", "height", "confidence", "class_id", "visibility",
}

// ParseRecords reads records from r. Blank lines are skipped, whitespace
// around values is ignored and columns beyond the ninth are ignored. An
// identity repeated within one frame is reported at its second line.
func ParseRecords(r io.Reader) ([]Box, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var boxes []Box
	firstLine := make(map[[2]int]int)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &InputFormatError{Line: pe.Line, Reason: pe.Err.Error()}
			}
			return nil, fmt.Errorf("read records: %w", err)
		}

		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}

		line, _ := cr.FieldPos(0)
		b, err := parseRecord(rec, line)
		if err != nil {
			return nil, err
		}
		key := [2]int{b.Frame, b.ID}
		if prev, dup := firstLine[key]; dup {
			return nil, &InputFormatError{
				Line:   line,
				Field:  "identity",
				Reason: fmt.Sprintf("duplicate identity %d in frame %d (first on line %d)", b.ID, b.Frame, prev),
			}
		}
		firstLine[key] = line
		boxes = append(boxes, b)
	}
	return boxes, nil
}

func parseRecord(rec []string, line int) (Box, error) {
	if len(rec) < NumFields {
		return Box{}, &InputFormatError{
			Line:   line,
			Reason: fmt.Sprintf("expected %d fields, got %d", NumFields, len(rec)),
		}
	}

	var ints [3]int
	for i, col := range [3]int{0, 1, 7} {
		v, err := parseInt(rec[col])
		if err != nil {
			return Box{}, &InputFormatError{Line: line, Field: fieldNames[col], Reason: err.Error()}
		}
		ints[i] = v
	}

	var floats [6]float64
	for i, col := range [6]int{2, 3, 4, 5, 6, 8} {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[col]), 64)
		if err != nil {
			return Box{}, &InputFormatError{Line: line, Field: fieldNames[col], Reason: fmt.Sprintf("not a number: %q", rec[col])}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Box{}, &InputFormatError{Line: line, Field: fieldNames[col], Reason: fmt.Sprintf("not finite: %q", rec[col])}
		}
		floats[i] = v
	}

	b := NewBox(ints[0], ints[1], floats[0], floats[1], floats[2], floats[3], floats[4], ints[2], floats[5])
	if err := validate(b); err != nil {
		var ife *InputFormatError
		if errors.As(err, &ife) {
			ife.Line = line
		}
		return Box{}, err
	}
	return b, nil
}

// parseInt accepts plain integers and integral floats such as "3.0", which
// some trackers write for identity and class columns.
func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return int(f), nil
}

// Load reads path from fsys into a BoxSet. A missing file yields
// *MissingFileError; malformed content yields *InputFormatError with Path
// set.
func Load(fsys fsutil.FileSystem, path string) (*BoxSet, error) {
	f, err := fsys.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &MissingFileError{Path: path}
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	boxes, err := ParseRecords(f)
	if err == nil {
		var set *BoxSet
		set, err = New(boxes)
		if err == nil {
			return set, nil
		}
	}

	var ife *InputFormatError
	if errors.As(err, &ife) {
		ife.Path = path
	}
	return nil, err
}

// WriteRecords writes boxes in record format, one line per box.
func WriteRecords(w io.Writer, boxes []Box) error {
	cw := csv.NewWriter(w)
	for _, b := range boxes {
		rec := []string{
			strconv.Itoa(b.Frame),
			strconv.Itoa(b.ID),
			strconv.FormatFloat(b.X, 'f', -1, 64),
			strconv.FormatFloat(b.Y, 'f', -1, 64),
			strconv.FormatFloat(b.Width, 'f', -1, 64),
			strconv.FormatFloat(b.Height, 'f', -1, 64),
			strconv.FormatFloat(b.Confidence, 'f', -1, 64),
			strconv.Itoa(b.ClassID),
			strconv.FormatFloat(b.Visibility, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
