package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// dateLayout is the calendar-date format used for daily bookkeeping columns.
const dateLayout = "2006-01-02"

// Today returns the server-local calendar date. All once-per-day checks
// (daily reward, task completions) key on this value.
func Today() string {
	return time.Now().Format(dateLayout)
}

// isDuplicateKey reports whether err is a unique-constraint violation. GORM
// translates these when TranslateError is enabled; the string checks cover
// drivers that surface the raw MySQL/SQLite message instead.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}
