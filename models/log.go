package models

import (
	"fmt"
	"time"
)

// LogLevel is the severity of a run log line.
type LogLevel string

const (
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// ScrapeLog is one persisted line of a site run's log.
type ScrapeLog struct {
	ID        int64     `json:"id" db:"id"`
	RunID     *int64    `json:"run_id" db:"run_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	Level     LogLevel  `json:"level" db:"level"`
	Message   string    `json:"message" db:"message"`
	SiteID    string    `json:"site_id" db:"site_id"`
}

// String renders the line the way it is echoed to the process log.
func (l ScrapeLog) String() string {
	return fmt.Sprintf("[%s] %s: %s", l.Level, l.SiteID, l.Message)
}
