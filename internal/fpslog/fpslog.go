// Package fpslog reads the timing side channel that tracker runners leave
// next to their results:
//
//	DeepSORT | time: 41.27s | FPS: 18.34 | Frames: 757
//
// Fields after the name are "key: value" pairs matched case-insensitively.
// A missing file, a missing line or an unparsable value all mean the value
// is not available; none of them is an error.
package fpslog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/motbench/internal/fsutil"
	"github.com/banshee-data/motbench/internal/monitoring"
)

// DefaultName is the log file name looked up beside a tracker's results.
const DefaultName = "fps_log.txt"

// minParts is the name plus at least three fields.
const minParts = 4

// Entry is one tracker's timing record. Nil fields were absent or invalid.
type Entry struct {
	Name    string   `json:"name"`
	Runtime *float64 `json:"runtime_s,omitempty"`
	FPS     *float64 `json:"fps,omitempty"`
	Frames  *int     `json:"frames,omitempty"`
}

// PathFor returns the default log location for a results file.
func PathFor(resultsPath string) string {
	return filepath.Join(filepath.Dir(resultsPath), DefaultName)
}

// Parse reads every well-formed line of r. Lines with fewer than four
// '|'-separated parts are skipped.
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		parts := strings.Split(strings.TrimSpace(sc.Text()), "|")
		if len(parts) < minParts {
			continue
		}
		e := Entry{Name: strings.TrimSpace(parts[0])}
		for _, p := range parts[1:] {
			key, val, ok := strings.Cut(strings.TrimSpace(p), ":")
			if !ok {
				continue
			}
			val = strings.TrimSpace(val)
			switch strings.ToLower(strings.TrimSpace(key)) {
			case "time":
				e.Runtime = parseFloat(lineNo, "time", strings.TrimSuffix(strings.ToLower(val), "s"))
			case "fps":
				e.FPS = parseFloat(lineNo, "fps", val)
			case "frames":
				if n, err := strconv.Atoi(val); err == nil {
					e.Frames = &n
				} else {
					monitoring.Logf("fpslog: line %d: invalid frames %q", lineNo, val)
				}
			}
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read fps log: %w", err)
	}
	return entries, nil
}

func parseFloat(line int, field, s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		monitoring.Logf("fpslog: line %d: invalid %s %q", line, field, s)
		return nil
	}
	return &v
}

// Load parses the log at path. A missing file yields no entries.
func Load(fsys fsutil.FileSystem, path string) ([]Entry, error) {
	f, err := fsys.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		monitoring.Debugf("fpslog: %s not found", path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open fps log %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Lookup returns the first entry whose name equals name ignoring case.
func Lookup(entries []Entry, name string) (Entry, bool) {
	for _, e := range entries {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return Entry{}, false
}

// Find loads path and looks up name in one step; a missing file, a read
// failure or an absent record all return ok=false.
func Find(fsys fsutil.FileSystem, path, name string) (Entry, bool) {
	entries, err := Load(fsys, path)
	if err != nil {
		monitoring.Logf("fpslog: %v", err)
		return Entry{}, false
	}
	return Lookup(entries, name)
}
