// Package pricefeed defines the oracle price abstraction consumed by the
// stabilization engine. Prices are 8-decimal fixed-point integers, so a
// price of 3.24 is carried as 324000000.
package pricefeed

import (
	"context"
	"time"
)

// Round is one oracle observation.
type Round struct {
	// Price is 8-decimal fixed point. Non-positive values are invalid.
	Price     int64
	UpdatedAt time.Time
}

// Source provides the latest oracle round.
type Source interface {
	Name() string
	LatestRound(ctx context.Context) (Round, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc struct {
	SourceName string
	Fn         func(ctx context.Context) (Round, error)
}

func (s SourceFunc) Name() string { return s.SourceName }

func (s SourceFunc) LatestRound(ctx context.Context) (Round, error) {
	return s.Fn(ctx)
}
