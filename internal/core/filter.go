package core

import (
	"fmt"
	"time"
)

const (
	monthLayout = "2006-01"
	dayLayout   = "2006-01-02"
)

// TimeFilter selects the reporting window. From/To bounds take precedence
// over Month; when neither is set the current month is used.
type TimeFilter struct {
	Month string `json:"month,omitempty"`
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
}

// Validate checks the filter fields. All violations wrap ErrInvalidFilter.
func (f TimeFilter) Validate() error {
	if f.Month != "" {
		if _, err := time.Parse(monthLayout, f.Month); err != nil {
			return fmt.Errorf("%w: month %q is not YYYY-MM", ErrInvalidFilter, f.Month)
		}
	}
	if f.From != "" {
		if _, err := time.Parse(dayLayout, f.From); err != nil {
			return fmt.Errorf("%w: from %q is not YYYY-MM-DD", ErrInvalidFilter, f.From)
		}
	}
	if f.To != "" {
		if _, err := time.Parse(dayLayout, f.To); err != nil {
			return fmt.Errorf("%w: to %q is not YYYY-MM-DD", ErrInvalidFilter, f.To)
		}
	}
	if f.From != "" && f.To != "" && f.From > f.To {
		return fmt.Errorf("%w: from %q is after to %q", ErrInvalidFilter, f.From, f.To)
	}
	return nil
}

// HasRange reports whether explicit bounds are set.
func (f TimeFilter) HasRange() bool {
	return f.From != "" || f.To != ""
}

// AnchorMonth returns the month anchoring the 3-month trend: the filter
// month when set, otherwise the month of now.
func (f TimeFilter) AnchorMonth(now time.Time) string {
	if f.Month != "" {
		return f.Month
	}
	return now.Format(monthLayout)
}

// PeriodLabel is the human-readable window description used in report
// headers and filenames.
func (f TimeFilter) PeriodLabel(now time.Time) string {
	if f.From != "" && f.To != "" {
		return f.From + " -> " + f.To
	}
	if f.From != "" {
		return "from " + f.From
	}
	if f.To != "" {
		return "until " + f.To
	}
	return f.AnchorMonth(now)
}

// PrevMonth subtracts back calendar months from a YYYY-MM key, handling
// year rollover. An unparseable key is returned unchanged.
func PrevMonth(ym string, back int) string {
	t, err := time.Parse(monthLayout, ym)
	if err != nil {
		return ym
	}
	return t.AddDate(0, -back, 0).Format(monthLayout)
}

// TrailingMonths returns the anchor month and its two predecessors in
// ascending chronological order.
func TrailingMonths(anchor string) [3]string {
	return [3]string{PrevMonth(anchor, 2), PrevMonth(anchor, 1), anchor}
}
