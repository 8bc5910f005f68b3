package tdc

import (
	"encoding/csv"
	"io"
	"strconv"
)

// CSVWriter serializes records as "coarse,fine,time,timeDelta" lines.
type CSVWriter struct {
	w *csv.Writer
}

// NewCSVWriter wraps w. No header line is written.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w)}
}

// Write appends one record.
func (c *CSVWriter) Write(rec Record) error {
	return c.w.Write([]string{
		strconv.FormatUint(rec.Coarse, 10),
		strconv.FormatUint(uint64(rec.Fine), 10),
		strconv.FormatFloat(rec.Time, 'g', -1, 64),
		strconv.FormatFloat(rec.TimeDelta, 'g', -1, 64),
	})
}

// Flush writes buffered lines and reports any error seen so far.
func (c *CSVWriter) Flush() error {
	c.w.Flush()
	return c.w.Error()
}
