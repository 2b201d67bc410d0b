package entity

import "time"

// UncertaintyState is the escalation counter of one chat session.
// It is owned by the session and passed explicitly into the recommender.
type UncertaintyState struct {
	Count     int       `json:"count"`
	LastReset time.Time `json:"last_reset"`
}

// Increment records one more uncertain turn
func (s *UncertaintyState) Increment() {
	s.Count++
}

// Reset clears the counter, e.g. after a genre was picked
func (s *UncertaintyState) Reset(now time.Time) {
	s.Count = 0
	s.LastReset = now
}
