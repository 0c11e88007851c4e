// recognition/session.go
package recognition

import (
	"fmt"

	"github.com/franckwan/foodlog/models"
)

// ReviewSession holds one batch of recognized foods while the user decides
// which of them to keep. It owns its items: the slice passed to
// NewReviewSession is copied, and the included subset leaves the session
// only through Commit.
//
// A session is driven by a single flow. It is not safe for concurrent
// mutation from multiple goroutines.
type ReviewSession struct {
	foods  []models.RecognizedFood
	closed bool
}

// NewReviewSession seeds a session from one Recognize result. Every item
// starts included.
func NewReviewSession(foods []models.RecognizedFood) *ReviewSession {
	owned := make([]models.RecognizedFood, len(foods))
	copy(owned, foods)
	for i := range owned {
		owned[i].Included = true
	}
	return &ReviewSession{foods: owned}
}

// Len reports the number of items in the session, included or not.
func (s *ReviewSession) Len() int {
	return len(s.foods)
}

// Foods returns a copy of the current items, in model-response order, for
// display.
func (s *ReviewSession) Foods() []models.RecognizedFood {
	out := make([]models.RecognizedFood, len(s.foods))
	copy(out, s.foods)
	return out
}

// SetIncluded flips one item's keep/discard decision.
func (s *ReviewSession) SetIncluded(index int, included bool) error {
	if s.closed {
		return ErrSessionClosed
	}
	if index < 0 || index >= len(s.foods) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	s.foods[index].Included = included
	return nil
}

// TotalCalories sums calories over the currently included items. It is
// recomputed on every call.
func (s *ReviewSession) TotalCalories() float64 {
	var total float64
	for _, f := range s.foods {
		if f.Included {
			total += f.Calories
		}
	}
	return total
}

// Commit closes the session and returns the included items in their
// original order. A second Commit, or a Commit after Cancel, fails with
// ErrSessionClosed.
func (s *ReviewSession) Commit() ([]models.RecognizedFood, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	s.closed = true

	var kept []models.RecognizedFood
	for _, f := range s.foods {
		if f.Included {
			kept = append(kept, f)
		}
	}
	return kept, nil
}

// Cancel closes the session without producing output.
func (s *ReviewSession) Cancel() {
	s.closed = true
}
