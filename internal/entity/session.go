package entity

import "time"

// Session is a persisted remember-me record, one JSON file per login.
type Session struct {
	ID        string    `json:"session_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"timestamp"`
}

// ExpiredAt reports whether the session is past its lifetime as of now.
func (s Session) ExpiredAt(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.CreatedAt) >= ttl
}
