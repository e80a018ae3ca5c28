package store

import "time"

// PostedVideo is a dedup marker for a video the ingestion task has already
// surfaced. Write-once, purged after a retention horizon.
type PostedVideo struct {
	VideoID  string    `gorm:"primaryKey;size:32"`
	PostedAt time.Time `gorm:"not null"`
}

func (PostedVideo) TableName() string { return "posted_videos" }

// ForcedVideoRow is the singleton admin-override row (id fixed to 1).
// DaysForced holds a pending day count; ForcedUntil holds the deadline once
// the override has been consumed. Older deployments wrote ForcedUntil at
// set-time, so readers must accept either shape.
type ForcedVideoRow struct {
	ID          uint8   `gorm:"primaryKey"`
	MessageID   *string `gorm:"size:32"`
	DaysForced  *int
	ForcedUntil *time.Time
}

func (ForcedVideoRow) TableName() string { return "forced_video" }

// Ticket is one open support ticket channel.
type Ticket struct {
	Name       string `gorm:"primaryKey;size:64"`
	CreatedAt  time.Time
	Title      string `gorm:"size:255"`
	AuthorID   string `gorm:"size:32"`
	OpenLogURL string `gorm:"size:255"`
}

func (Ticket) TableName() string { return "tickets" }

// CandidateStatus is the durable used/validated state of a featured-channel
// candidate. Reactions on the message are written as a user-facing indicator
// but this row is the source of truth; the validated bit is re-synced from
// the reaction at scan time so admins can still un-validate by removing it.
type CandidateStatus struct {
	MessageID string `gorm:"primaryKey;size:32"`
	Validated bool
	Used      bool
	UpdatedAt time.Time
}

func (CandidateStatus) TableName() string { return "featured_status" }

// ForcedState tags the decoded override record.
type ForcedState int

const (
	// ForcedNone means no override is set.
	ForcedNone ForcedState = iota
	// ForcedPending means an override exists but has not been consumed yet;
	// only the day count is known.
	ForcedPending
	// ForcedActive means the override has been consumed and runs until the
	// deadline.
	ForcedActive
)

// Forced is the decoded override: None, Pending{days} or Active{deadline}.
// MessageID is set for both non-None states.
type Forced struct {
	State     ForcedState
	MessageID string
	Days      int       // Pending only
	Deadline  time.Time // Active only
}
