package usecase

import (
	"context"
)

type ReadinessOutput struct {
	Ready    bool
	Degraded bool
	Storage  string
}

// Live always succeeds while the process can serve requests.
func (s *Usecase) Live(context.Context) (string, error) {
	return "ok", nil
}

// Readiness reports the serving backend. The service stays ready in degraded
// mode; a failed probe of Redis flips the store to memory.
func (s *Usecase) Readiness(ctx context.Context) (*ReadinessOutput, error) {
	ctx, span := s.startSpan(ctx, "Readiness")
	defer span.End()

	start := s.clock.Now()
	mode := s.store.Check(ctx)
	s.metrics.readinessDur.Record(ctx, s.clock.Now().Sub(start).Seconds())

	return &ReadinessOutput{Ready: true, Degraded: s.store.Degraded(), Storage: mode}, nil
}
