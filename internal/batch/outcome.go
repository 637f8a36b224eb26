package batch

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Outcome is the ordered record of a batch run.
type Outcome struct {
	Entries []Entry
}

// Total is the number of processed files.
func (o Outcome) Total() int { return len(o.Entries) }

// Succeeded counts successful conversions.
func (o Outcome) Succeeded() int {
	n := 0
	for _, e := range o.Entries {
		if e.Succeeded {
			n++
		}
	}
	return n
}

// FailedCount counts failed conversions.
func (o Outcome) FailedCount() int { return o.Total() - o.Succeeded() }

// Failed returns the failed entries in input order.
func (o Outcome) Failed() []Entry {
	var out []Entry
	for _, e := range o.Entries {
		if !e.Succeeded {
			out = append(out, e)
		}
	}
	return out
}

// Err joins the errors of all failed entries, or nil.
func (o Outcome) Err() error {
	var errs []error
	for _, e := range o.Failed() {
		errs = append(errs, e.Err)
	}
	return errors.Join(errs...)
}

var rule = strings.Repeat("=", 70)

// WriteSummary prints the closing summary block.
func (o Outcome) WriteSummary(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "BATCH CONVERSION SUMMARY")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Total files processed: %d\n", o.Total())
	fmt.Fprintf(w, "Successful: %d\n", o.Succeeded())
	fmt.Fprintf(w, "Failed: %d\n", o.FailedCount())

	if failed := o.Failed(); len(failed) > 0 {
		fmt.Fprintln(w, "\nFailed conversions:")
		for _, e := range failed {
			fmt.Fprintf(w, "  - %s: %s\n", e.Source, e.Message())
		}
	}
	fmt.Fprintln(w, rule)
}
