package visitors

import (
	"errors"
	"time"
)

// Visitor is one resolved visitor identity with its chronological visit history.
// InferredOS and InferredDeviceClass are computed from the first user agent seen
// and are never recomputed afterwards.
type Visitor struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	Fingerprint         string         `gorm:"index;not null" json:"fingerprint"`
	InferredOS          string         `gorm:"index:idx_visitors_os_device;not null" json:"inferredOS"`
	InferredDeviceClass string         `gorm:"index:idx_visitors_os_device;not null" json:"inferredDeviceClass"`
	History             []HistoryEntry `gorm:"foreignKey:VisitorID;constraint:OnDelete:CASCADE" json:"history"`
	LastSeenAt          time.Time      `gorm:"index" json:"lastSeenAt"`
	CreatedAt           time.Time      `json:"createdAt"`
}

// HistoryEntry records one visit occurrence. Entries are ordered by ID, which
// follows insertion order.
type HistoryEntry struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	VisitorID uint      `gorm:"index;not null" json:"-"`
	IP        string    `json:"ip"`
	Country   string    `json:"country"`
	UserAgent string    `json:"userAgent"`
	Device    string    `json:"device"`
	Language  string    `json:"language"`
	Time      time.Time `gorm:"index" json:"time"`
}

// TableName keeps the history table name explicit.
func (HistoryEntry) TableName() string {
	return "visit_history"
}

// VisitEvent is one reported page load. Only Fingerprint is required; every
// other field is stored as received, including empty strings.
type VisitEvent struct {
	Fingerprint string `json:"fingerprint" validate:"required"`
	IP          string `json:"ip"`
	UserAgent   string `json:"userAgent"`
	Country     string `json:"country"`
	Device      string `json:"device"`
	Language    string `json:"language"`
}

// Outcome describes which write RecordVisit applied.
type Outcome string

const (
	OutcomeCreated  Outcome = "created"
	OutcomeAppended Outcome = "appended"
	OutcomePatched  Outcome = "patched"
)

// Result is returned by RecordVisit.
type Result struct {
	VisitorID     uint
	Outcome       Outcome
	Similar       bool // matched through the OS/device-class fallback
	TotalVisitors int64
}

var (
	// ErrMissingFingerprint is returned when a visit event carries no fingerprint.
	ErrMissingFingerprint = errors.New("fingerprint is required")

	// ErrVisitorNotFound is returned when a visitor lookup by ID fails.
	ErrVisitorNotFound = errors.New("visitor not found")

	// ErrHistoryConflict is returned when the last history entry changed between
	// read and patch.
	ErrHistoryConflict = errors.New("visit history changed concurrently")
)
