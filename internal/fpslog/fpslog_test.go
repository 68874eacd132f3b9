package fpslog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/motbench/internal/fsutil"
	"github.com/banshee-data/motbench/internal/monitoring"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	m.Run()
}

const sample = `DeepSORT | time: 41.27s | FPS: 18.34 | Frames: 757
BOTSORT | time: 63.10s | FPS: 12.00 | Frames: 757
header line without separators
SORT | time: 9.5s
SORT | Time: 10.00S | fps: 75.70 | frames: 757
SORT | time: 99s | fps: 1 | frames: 1
`

func TestParse(t *testing.T) {
	entries, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, entries, 4, "short and separator-free lines are skipped")

	e := entries[0]
	assert.Equal(t, "DeepSORT", e.Name)
	require.NotNil(t, e.Runtime)
	assert.InDelta(t, 41.27, *e.Runtime, 1e-9)
	require.NotNil(t, e.FPS)
	assert.InDelta(t, 18.34, *e.FPS, 1e-9)
	require.NotNil(t, e.Frames)
	assert.Equal(t, 757, *e.Frames)

	sortEntry := entries[2]
	require.NotNil(t, sortEntry.Runtime, "keys and the seconds suffix are case-insensitive")
	assert.InDelta(t, 10.0, *sortEntry.Runtime, 1e-9)
	assert.InDelta(t, 75.7, *sortEntry.FPS, 1e-9)
}

func TestParse_InvalidValuesAreAbsent(t *testing.T) {
	entries, err := Parse(strings.NewReader("ByteTrack | time: fast | FPS: 30 | Frames: many\n"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].Runtime)
	assert.Nil(t, entries[0].Frames)
	require.NotNil(t, entries[0].FPS)
	assert.Equal(t, 30.0, *entries[0].FPS)
}

func TestParse_ZeroIsAValue(t *testing.T) {
	entries, err := Parse(strings.NewReader("SORT | time: 0s | FPS: 0 | Frames: 0\n"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Runtime)
	assert.Equal(t, 0.0, *entries[0].Runtime)
}

func TestLookup(t *testing.T) {
	entries, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	tests := []struct {
		name    string
		query   string
		found   bool
		runtime float64
	}{
		{"exact", "DeepSORT", true, 41.27},
		{"case-insensitive", "BOTSort", true, 63.10},
		{"first match wins", "sort", true, 10.0},
		{"prefix is not a match", "Deep", false, 0},
		{"absent", "ByteTrack", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := Lookup(entries, tt.query)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				require.NotNil(t, e.Runtime)
				assert.InDelta(t, tt.runtime, *e.Runtime, 1e-9)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	fsys.AddFile("results/fps_log.txt", sample)

	entries, err := Load(fsys, PathFor("results/results_sort.txt"))
	require.NoError(t, err)
	assert.Len(t, entries, 4)

	entries, err = Load(fsys, "missing/fps_log.txt")
	require.NoError(t, err, "missing log is not an error")
	assert.Empty(t, entries)
}

func TestFind(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	fsys.AddFile("results/fps_log.txt", sample)

	e, ok := Find(fsys, "results/fps_log.txt", "botsort")
	require.True(t, ok)
	assert.InDelta(t, 12.0, *e.FPS, 1e-9)

	_, ok = Find(fsys, "elsewhere/fps_log.txt", "botsort")
	assert.False(t, ok)
}

func TestPathFor(t *testing.T) {
	assert.Equal(t, "results_1/fps_log.txt", PathFor("results_1/results_deepsort.txt"))
	assert.Equal(t, "fps_log.txt", PathFor("results.txt"))
}
