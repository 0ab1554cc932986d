package server

import (
	"fmt"
	"strings"
	"time"

	"options-observer/src/helpers"
	"options-observer/src/models"

	"github.com/guregu/null/v6"
)

// -----------------------------------------------------------------------------

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(models.DateLayout)
}

// -----------------------------------------------------------------------------

// parseDateOr parses a YYYY-MM-DD value, returning fallback for a blank one.
func parseDateOr(value string, fallback time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	// date pickers may send a full timestamp
	date := value
	if n := len(models.DateLayout); len(value) > n && value[n] == 'T' {
		date = value[:n]
	}
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return time.Time{}, helpers.NewValidationError(fmt.Sprintf("invalid date %q, want YYYY-MM-DD", value))
	}
	return t, nil
}

// -----------------------------------------------------------------------------

func nullString(s string) null.String {
	if s == "" {
		return null.String{}
	}
	return null.StringFrom(s)
}

// -----------------------------------------------------------------------------

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
