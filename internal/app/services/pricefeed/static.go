package pricefeed

import (
	"context"
	"sync"
	"time"

	"github.com/SLC-Network/token_layer/internal/app/domain/token"
)

// Static is a settable in-memory price source. Operators push prices into it
// through the oracle API; tests drive it directly.
type Static struct {
	mu    sync.RWMutex
	round Round
	now   func() time.Time
}

var _ Source = (*Static)(nil)

// NewStatic creates an empty static source. It reports PriceInvalid until
// the first push.
func NewStatic() *Static {
	return &Static{now: time.Now}
}

func (s *Static) Name() string { return "static" }

// Set records a new observation stamped with the current time.
func (s *Static) Set(price int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.round = Round{Price: price, UpdatedAt: s.now()}
}

// SetRound records a fully specified observation.
func (s *Static) SetRound(round Round) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.round = round
}

func (s *Static) LatestRound(context.Context) (Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.round.UpdatedAt.IsZero() {
		return Round{}, token.PriceInvalid("no price observed yet")
	}
	return s.round, nil
}
