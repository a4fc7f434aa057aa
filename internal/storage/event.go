package storage

import (
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Event is a single calendar entry. Empty Description, Date, Time and Link mean "not set".
type Event struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Date        string    `json:"date" db:"date"`
	Time        string    `json:"time" db:"time"`
	Link        string    `json:"link" db:"link"`
	Urgent      bool      `json:"urgent" db:"urgent"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Due returns the moment the event takes place in loc.
// An event without time is due at the start of its day.
func (e Event) Due(loc *time.Location) (time.Time, bool) {
	if e.Date == "" {
		return time.Time{}, false
	}
	if e.Time == "" {
		d, err := time.ParseInLocation(DateLayout, e.Date, loc)
		return d, err == nil
	}
	d, err := time.ParseInLocation(DateLayout+" "+TimeLayout, e.Date+" "+e.Time, loc)
	return d, err == nil
}
