package models

import "time"

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// LocalizedText maps a locale code to its translation.
type LocalizedText map[string]string

// In returns the text for locale, falling back to fallback and then to any
// non-empty translation.
func (t LocalizedText) In(locale, fallback string) string {
	if v := t[locale]; v != "" {
		return v
	}
	if v := t[fallback]; v != "" {
		return v
	}
	for _, v := range t {
		if v != "" {
			return v
		}
	}
	return ""
}

// ParseDate parses a YYYY-MM-DD date in the given location.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, loc)
}

// ListResponse is the backend's paginated envelope.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}
