package report

import (
	"encoding/json"
	"io"
	"math"
	"time"
)

// Document is the JSON form of a report. Undefined values are null.
type Document struct {
	Generated time.Time `json:"generated"`
	Trackers  []Row     `json:"trackers"`
}

// Row is the JSON form of TrackerMetrics.
type Row struct {
	Tracker string `json:"tracker"`
	Status  string `json:"status"`

	MOTA                *float64 `json:"mota"`
	MOTP                *float64 `json:"motp"`
	IDSwitches          *int     `json:"id_switches"`
	Fragmentations      *int     `json:"fragmentations"`
	MostlyTrackedPct    *float64 `json:"mostly_tracked_pct"`
	PartiallyTrackedPct *float64 `json:"partially_tracked_pct"`
	MostlyLostPct       *float64 `json:"mostly_lost_pct"`
	AverageTrackLength  *float64 `json:"average_track_length"`
	EstimatedIDSwitches *int     `json:"estimated_id_switches"`

	Frames         *int `json:"frames,omitempty"`
	Objects        *int `json:"objects,omitempty"`
	UniqueObjects  *int `json:"unique_objects,omitempty"`
	Predictions    *int `json:"predictions,omitempty"`
	Matches        *int `json:"matches,omitempty"`
	Misses         *int `json:"misses,omitempty"`
	FalsePositives *int `json:"false_positives,omitempty"`

	RuntimeSecs *float64 `json:"runtime_s"`
	FPS         *float64 `json:"fps"`
	LogFrames   *int     `json:"log_frames,omitempty"`
}

// Document converts the report to its JSON form.
func (r *Report) Document() Document {
	doc := Document{Generated: r.Generated, Trackers: make([]Row, 0, len(r.Rows))}
	for _, m := range r.Rows {
		doc.Trackers = append(doc.Trackers, toRow(m))
	}
	return doc
}

func toRow(m TrackerMetrics) Row {
	row := Row{
		Tracker:     m.Name,
		Status:      m.Status(),
		RuntimeSecs: finite(m.Runtime),
		FPS:         finite(m.FPS),
		LogFrames:   m.Frames,
	}
	if m.Failed() {
		return row
	}
	s := m.Summary
	row.MOTA = num(s.MOTA)
	row.MOTP = num(s.MOTP)
	row.IDSwitches = &s.NumSwitches
	row.Fragmentations = &s.NumFragmentations
	row.MostlyTrackedPct = num(s.MostlyTrackedPct)
	row.PartiallyTrackedPct = num(s.PartiallyTrackedPct)
	row.MostlyLostPct = num(s.MostlyLostPct)
	row.AverageTrackLength = num(s.AverageTrackLength)
	row.EstimatedIDSwitches = &s.EstimatedIDSwitches
	row.Frames = &s.NumFrames
	row.Objects = &s.NumObjects
	row.UniqueObjects = &s.NumUniqueObjects
	row.Predictions = &s.NumPredictions
	row.Matches = &s.NumMatches
	row.Misses = &s.NumMisses
	row.FalsePositives = &s.NumFalsePositives
	return row
}

func num(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func finite(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return num(*v)
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r.Document())
}
