package generation

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// breakerBackend fails fast while a vendor keeps erroring.
type breakerBackend struct {
	Backend
	cb *gobreaker.CircuitBreaker
}

func withBreaker(b Backend, log *logrus.Logger) Backend {
	settings := gobreaker.Settings{
		Name:        "generation-" + b.Name(),
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state change")
		},
	}

	return &breakerBackend{Backend: b, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *breakerBackend) Generate(ctx context.Context, system, user string, opts Options) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.Backend.Generate(ctx, system, user, opts)
	})
	if err != nil {
		return "", generationError(b.Name(), err)
	}
	return out.(string), nil
}
