// Package events records simulated user interactions for recommendation
// datasets and optionally forwards them to an event tracker.
package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Event is one user interaction.
type Event struct {
	ID        uuid.UUID `json:"id"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	ItemID    string    `json:"item_id"`
	Type      string    `json:"type"`
	SentAt    time.Time `json:"sent_at"`
}

// Sink receives recorded events.
type Sink interface {
	Send(ctx context.Context, e Event) error
}

var ErrInvalidEvent = errors.New("invalid event")

// Tracker assigns each user a stable session id and keeps their events in
// the order they were recorded. It is safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]string
	history  map[string][]Event
	sink     Sink
	now      func() time.Time
}

// NewTracker returns a Tracker. sink may be nil.
func NewTracker(sink Sink) *Tracker {
	return &Tracker{
		sessions: make(map[string]string),
		history:  make(map[string][]Event),
		sink:     sink,
		now:      time.Now,
	}
}

// Record stores an event for userID and forwards it to the sink, if any. The
// event is kept even when the sink fails.
func (t *Tracker) Record(ctx context.Context, userID, itemID, eventType string) (Event, error) {
	userID = strings.TrimSpace(userID)
	eventType = strings.TrimSpace(eventType)
	if userID == "" || eventType == "" {
		return Event{}, fmt.Errorf("%w: user id and event type are required", ErrInvalidEvent)
	}

	t.mu.Lock()
	session, ok := t.sessions[userID]
	if !ok {
		session = uuid.NewString()
		t.sessions[userID] = session
	}
	e := Event{
		ID:        uuid.New(),
		SessionID: session,
		UserID:    userID,
		ItemID:    strings.TrimSpace(itemID),
		Type:      eventType,
		SentAt:    t.now().UTC(),
	}
	t.history[userID] = append(t.history[userID], e)
	sink := t.sink
	t.mu.Unlock()

	if sink == nil {
		return e, nil
	}
	if err := sink.Send(ctx, e); err != nil {
		log.WithError(err).WithFields(log.Fields{"user_id": userID, "session_id": session}).Warn("failed to forward event")
		return e, fmt.Errorf("forward event: %w", err)
	}
	return e, nil
}

// Session returns the session id for userID, if one has been assigned.
func (t *Tracker) Session(userID string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[userID]
	return s, ok
}

// Events returns a copy of userID's events, oldest first.
func (t *Tracker) Events(userID string) []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Event, len(t.history[userID]))
	copy(out, t.history[userID])
	return out
}

// Users returns the number of users with recorded events.
func (t *Tracker) Users() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.history)
}
