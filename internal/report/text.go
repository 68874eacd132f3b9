package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// listingPrecision is the number of decimals shown in the text listing.
const listingPrecision = 4

// WriteCSV writes the header and one row per tracker with full precision.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(r.Table(-1)); err != nil {
		return fmt.Errorf("write csv report: %w", err)
	}
	return nil
}

// Render writes an aligned, human-readable listing of the table.
func (r *Report) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range r.Table(listingPrecision) {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// String renders the listing.
func (r *Report) String() string {
	var b strings.Builder
	_ = r.Render(&b)
	return b.String()
}
