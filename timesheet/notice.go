package timesheet

import "time"

// =============================================================================
// NOTICE - Expiring status message as a value, not a timer
// =============================================================================

// NoticeTTL is how long transient status messages stay visible.
const NoticeTTL = 5 * time.Second

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
	NoticeInfo    NoticeLevel = "info"
)

// Notice is a transient status message with an explicit expiry. The
// presentation layer evaluates ActiveAt; business logic never owns a timer.
type Notice struct {
	Level     NoticeLevel
	Message   string
	ExpiresAt time.Time
}

// NewNotice builds a notice expiring NoticeTTL after now.
func NewNotice(level NoticeLevel, message string, now time.Time) Notice {
	return Notice{Level: level, Message: message, ExpiresAt: now.Add(NoticeTTL)}
}

// ActiveAt reports whether the notice should still be shown.
func (n Notice) ActiveAt(now time.Time) bool {
	return n.Message != "" && now.Before(n.ExpiresAt)
}
