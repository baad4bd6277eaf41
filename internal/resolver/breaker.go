package resolver

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerSettings tunes the per-provider circuit breaker
type BreakerSettings struct {
	ConsecutiveFailures uint32        // 연속 실패 횟수가 이 값 이상이면 open
	OpenTimeout         time.Duration // open → half-open 대기
	Interval            time.Duration // closed 상태 카운터 리셋 주기
}

// DefaultBreakerSettings trips after 3 consecutive failures for 60s
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		ConsecutiveFailures: 3,
		OpenTimeout:         60 * time.Second,
		Interval:            60 * time.Second,
	}
}

type breakerProvider[T any] struct {
	next Provider[T]
	cb   *gobreaker.CircuitBreaker
}

type breakerResult[T any] struct {
	value T
	found bool
}

// WithBreaker wraps p in a circuit breaker named name.
// Only errors count as failures; an absent value is a successful call.
// While open, calls fail fast with gobreaker.ErrOpenState.
func WithBreaker[T any](name string, p Provider[T], st BreakerSettings) Provider[T] {
	settings := gobreaker.Settings{
		Name:     name,
		Interval: st.Interval,
		Timeout:  st.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= st.ConsecutiveFailures
		},
		// 호출자 취소는 공급자 장애가 아님
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
	}
	return &breakerProvider[T]{next: p, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *breakerProvider[T]) FetchAttribute(ctx context.Context, identifier, key string) (T, bool, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		v, found, err := b.next.FetchAttribute(ctx, identifier, key)
		if err != nil {
			return nil, err
		}
		return breakerResult[T]{value: v, found: found}, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	res := out.(breakerResult[T])
	return res.value, res.found, nil
}
