package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DefaultDateLayout is the ISO calendar date layout used unless configured
// otherwise.
const DefaultDateLayout = "2006-01-02"

// Date is a calendar date. It carries no zone: the wrapped time is always
// midnight UTC.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses s with layout, which must not carry a time of day.
func ParseDate(s, layout string) (Date, error) {
	t, err := time.ParseInLocation(layout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	return DateOf(t), nil
}

// AddDays returns the date n days later (earlier when n is negative).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// DaysUntil returns the number of whole days from d to o. time.Duration
// saturates after about 292 years, so this works on Unix seconds.
func (d Date) DaysUntil(o Date) int {
	return int((o.Unix() - d.Unix()) / 86400)
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool { return d.Time.After(o.Time) }

func (d Date) String() string {
	return d.Format(DefaultDateLayout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text), DefaultDateLayout)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON overrides the promoted time.Time encoding so dates stay plain
// calendar dates in JSON too.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// Expense is one validated ledger record. Values are never modified after
// the parser builds them.
type Expense struct {
	Row           int
	Date          Date
	Amount        Money
	Category      Category
	Description   string
	PaymentMethod string
}
