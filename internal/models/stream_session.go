package models

import "time"

// StreamSession is one encoder run, from launch until the supervisor saw
// it end. Every (re)start writes a fresh row; rows are closed exactly once.
type StreamSession struct {
	ID        uint       `gorm:"primaryKey" json:"-"`
	Mode      string     `gorm:"index" json:"mode"` // primary or fallback
	PID       int        `json:"pid"`
	StartedAt time.Time  `gorm:"index" json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
	Outcome   string     `json:"outcome"` // died, scheduled_restart, shutdown, interrupted
}

// TableName overrides the default pluralization
func (StreamSession) TableName() string {
	return "stream_sessions"
}
