package bmi

import (
	"errors"
	"github.com/burenotti/go_bmi_backend/internal/domain"
	"time"
)

var (
	ErrEntryExists   = errors.New("entry already exists")
	ErrEntryNotFound = errors.New("entry not found")
	ErrEntryConflict = errors.New("entry id is already used by another record")
)

const (
	EventRecorded = "bmi.recorded"
)

type EntryID string

// Entry is a stored record in the calculation history.
type Entry struct {
	domain.Aggregate
	EntryID   EntryID
	Record    Record
	Source    string
	CreatedAt time.Time
}

func NewEntry(id EntryID, record Record, source string) *Entry {
	e := &Entry{
		EntryID:   id,
		Record:    record,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
	e.PushEvent(RecordedEvent{
		At:      e.CreatedAt,
		EntryID: e.EntryID,
		Record:  e.Record,
	})
	return e
}

type RecordedEvent struct {
	At      time.Time `json:"at"`
	EntryID EntryID   `json:"entry_id"`
	Record  Record    `json:"record"`
}

func (e RecordedEvent) Type() string {
	return EventRecorded
}

func (e RecordedEvent) PublishedAt() time.Time {
	return e.At
}
