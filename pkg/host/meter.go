package host

import (
	"context"
	"fmt"
	"time"
)

// Budget bounds one kernel round. Zero fields mean unlimited.
type Budget struct {
	// Ticks is the number of host function calls a round may make.
	Ticks uint64
	// Timeout is the wall-clock time a round may take.
	Timeout time.Duration
}

// RoundStats describes a finished round.
type RoundStats struct {
	Ticks     uint64
	Elapsed   time.Duration
	Exhausted bool
}

type meter struct {
	ctx       context.Context
	budget    Budget
	started   time.Time
	deadline  time.Time
	ticks     uint64
	exhausted bool
}

func newMeter(ctx context.Context, budget Budget) meter {
	m := meter{ctx: ctx, budget: budget, started: time.Now()}
	if budget.Timeout > 0 {
		m.deadline = m.started.Add(budget.Timeout)
	}
	return m
}

// charge accounts for one host call. Once a round is exhausted it stays so.
func (m *meter) charge() error {
	if m.exhausted {
		return ErrRoundBudgetExhausted
	}
	m.ticks++

	switch {
	case m.budget.Ticks > 0 && m.ticks > m.budget.Ticks:
		m.exhausted = true
		return fmt.Errorf("%w: %d ticks", ErrRoundBudgetExhausted, m.budget.Ticks)
	case !m.deadline.IsZero() && time.Now().After(m.deadline):
		m.exhausted = true
		return fmt.Errorf("%w: deadline of %s passed", ErrRoundBudgetExhausted, m.budget.Timeout)
	case m.ctx.Err() != nil:
		m.exhausted = true
		return fmt.Errorf("%w: %w", ErrRoundBudgetExhausted, m.ctx.Err())
	}
	return nil
}

func (m *meter) stats() RoundStats {
	return RoundStats{
		Ticks:     m.ticks,
		Elapsed:   time.Since(m.started),
		Exhausted: m.exhausted,
	}
}
