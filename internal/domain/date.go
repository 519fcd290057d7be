package domain

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Date is a calendar date without a time of day. It marshals as "2006-01-02".
type Date = openapi_types.Date

// NewDate truncates t to its calendar date in UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "2006-01-02" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(openapi_types.DateFormat, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// MustDate is ParseDate for literals known to be valid. It panics otherwise.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DateKey returns the "2006-01-02" form of d, used for sorting and matching
// itinerary days.
func DateKey(d Date) string {
	return d.Format(openapi_types.DateFormat)
}
