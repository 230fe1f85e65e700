package audit

import (
	"time"
)

// Record is one entry in the generation log. ID is assigned by the store and is
// never reused, including after a clear.
type Record struct {
	ID         int64     `json:"id"`
	Actor      string    `json:"actor"`
	NationalID string    `json:"national_id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Timestamp  time.Time `json:"timestamp"`
}

// TimestampISO renders the record time as RFC 3339 in UTC.
func (r *Record) TimestampISO() string {
	return r.Timestamp.UTC().Format(time.RFC3339Nano)
}
