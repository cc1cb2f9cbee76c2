package ledger

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// MONTH KEY - Composite (year, month) billing period key with a total order
// =============================================================================

// MonthKey identifies one calendar month. Month is 0-based (January = 0),
// matching the stored snapshot format. The struct key replaces the old
// "year-month" string key so ordering is always numeric, never lexicographic.
type MonthKey struct {
	Year  int
	Month int // 0..11
}

func NewMonthKey(year, month int) MonthKey {
	return MonthKey{Year: year, Month: month}
}

// MonthKeyOf returns the key for the month containing t.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: int(t.Month()) - 1}
}

// Comparison
func (k MonthKey) Before(o MonthKey) bool {
	return k.Year < o.Year || (k.Year == o.Year && k.Month < o.Month)
}
func (k MonthKey) After(o MonthKey) bool         { return o.Before(k) }
func (k MonthKey) BeforeOrEqual(o MonthKey) bool { return !o.Before(k) }
func (k MonthKey) AfterOrEqual(o MonthKey) bool  { return !k.Before(o) }

// Next returns the following month, rolling December into January.
func (k MonthKey) Next() MonthKey {
	if k.Month >= 11 {
		return MonthKey{Year: k.Year + 1, Month: 0}
	}
	return MonthKey{Year: k.Year, Month: k.Month + 1}
}

// AddMonths returns the key n months after (or before, for negative n) k.
func (k MonthKey) AddMonths(n int) MonthKey {
	total := k.Year*12 + k.Month + n
	y, m := total/12, total%12
	if m < 0 {
		y--
		m += 12
	}
	return MonthKey{Year: y, Month: m}
}

func (k MonthKey) Valid() bool {
	return k.Month >= 0 && k.Month <= 11 && k.Year > 0
}

// String renders the snapshot form "YYYY-M" (0-based month).
func (k MonthKey) String() string {
	return fmt.Sprintf("%d-%d", k.Year, k.Month)
}

// MonthName returns the English month name for display.
func (k MonthKey) MonthName() string {
	return time.Month(k.Month + 1).String()
}

// ParseMonthKey parses the "YYYY-M" snapshot form.
func ParseMonthKey(s string) (MonthKey, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return MonthKey{}, fmt.Errorf("malformed month key %q", s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return MonthKey{}, fmt.Errorf("malformed month key %q: %w", s, err)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return MonthKey{}, fmt.Errorf("malformed month key %q: %w", s, err)
	}
	k := MonthKey{Year: year, Month: month}
	if !k.Valid() {
		return MonthKey{}, fmt.Errorf("month key %q out of range", s)
	}
	return k, nil
}

// MonthKey round-trips through JSON as its "YYYY-M" string form.
func (k MonthKey) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(k.String())), nil
}

func (k *MonthKey) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("month key: %w", err)
	}
	parsed, err := ParseMonthKey(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func sortDuesOldestFirst(dues []*DueEntry) {
	sort.Slice(dues, func(i, j int) bool {
		return dues[i].Month.Before(dues[j].Month)
	})
}
