package domain

import "time"

// MaxCastLength is the Farcaster protocol limit for cast text.
const MaxCastLength = 320

type CastStatus string

const (
	CastStatusPending    CastStatus = "PENDING"
	CastStatusProcessing CastStatus = "PROCESSING"
	CastStatusPublished  CastStatus = "PUBLISHED"
	CastStatusFailed     CastStatus = "FAILED"
	CastStatusCancelled  CastStatus = "CANCELLED"
)

// Terminal reports whether no further transition is possible from the status.
// FAILED is intentionally not terminal: a failed cast can be re-enqueued by an
// explicit owner action, never by the publisher itself.
func (s CastStatus) Terminal() bool {
	return s == CastStatusPublished || s == CastStatusCancelled
}

type CastPriority string

const (
	CastPriorityLow    CastPriority = "LOW"
	CastPriorityNormal CastPriority = "NORMAL"
	CastPriorityHigh   CastPriority = "HIGH"
)

// Rank maps a priority to its selection weight. Higher publishes first.
func (p CastPriority) Rank() int {
	switch p {
	case CastPriorityHigh:
		return 2
	case CastPriorityNormal:
		return 1
	default:
		return 0
	}
}

func (p CastPriority) Valid() bool {
	switch p {
	case CastPriorityLow, CastPriorityNormal, CastPriorityHigh:
		return true
	}
	return false
}

type ScheduledCast struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	Content      string       `json:"content"`
	MediaURLs    []string     `json:"media_urls,omitempty"`
	ChannelKey   string       `json:"channel_key,omitempty"`
	ThreadID     string       `json:"thread_id,omitempty"`
	ThreadOrder  int          `json:"thread_order,omitempty"`
	ScheduledAt  time.Time    `json:"scheduled_at"`
	PublishedAt  *time.Time   `json:"published_at,omitempty"`
	Priority     CastPriority `json:"priority"`
	Status       CastStatus   `json:"status"`
	CastHash     string       `json:"cast_hash,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
	RetryCount   int          `json:"retry_count"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// StatusCounts aggregates a user's casts by status.
type StatusCounts struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Published int64 `json:"published"`
	Failed    int64 `json:"failed"`
	Cancelled int64 `json:"cancelled"`
}
