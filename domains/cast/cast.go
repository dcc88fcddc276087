package cast

import (
	"time"

	"github.com/castline/castline/scheduling/domain"
)

type ScheduleRequest struct {
	Content     string    `json:"content" form:"content"`
	ScheduledAt time.Time `json:"scheduled_at" form:"scheduled_at"`
	Priority    string    `json:"priority" form:"priority"`
	MediaURLs   []string  `json:"media_urls,omitempty"`
	ChannelKey  string    `json:"channel_key,omitempty"`
	ThreadID    string    `json:"thread_id,omitempty"`
	ThreadOrder int       `json:"thread_order,omitempty"`
}

type BatchScheduleRequest struct {
	Casts []ScheduleRequest `json:"casts"`
}

// BatchItemResult reports one item of a batch independently: either the
// created cast or the validation failure that rejected it.
type BatchItemResult struct {
	Index int                   `json:"index"`
	Cast  *domain.ScheduledCast `json:"cast,omitempty"`
	Code  string                `json:"code,omitempty"`
	Error string                `json:"error,omitempty"`
}

// UpdateRequest carries partial edits; nil fields are left untouched.
type UpdateRequest struct {
	Content     *string    `json:"content,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	MediaURLs   *[]string  `json:"media_urls,omitempty"`
	ChannelKey  *string    `json:"channel_key,omitempty"`
}

type RetryRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" form:"scheduled_at"`
}

type ListRequest struct {
	Status string `json:"status" query:"status"`
	Limit  int    `json:"limit" query:"limit"`
	Offset int    `json:"offset" query:"offset"`
}
