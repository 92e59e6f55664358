package mtreeoracle

import (
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff"
)

func fastBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Millisecond
	b.MaxInterval = 5 * time.Millisecond
	b.MaxElapsedTime = 100 * time.Millisecond
	b.Reset()
	return b
}

func TestRetryingDistanceESucceedsAfterTransientErrors(t *testing.T) {
	calls := 0
	flaky := func(a, b int) (float64, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient failure")
		}
		return float64(a - b), nil
	}
	d := RetryingDistanceE(flaky, fastBackOff)
	got, err := d(5, 2)
	if err != nil {
		t.Fatalf("RetryingDistanceE returned an error after eventual success: %s", err)
	}
	if got != 3 {
		t.Errorf("RetryingDistanceE returned %g, want 3", got)
	}
	if calls != 3 {
		t.Errorf("flaky was called %d times, want 3", calls)
	}
}

func TestRetryingDistanceEGivesUp(t *testing.T) {
	alwaysFails := func(a, b int) (float64, error) {
		return 0, errors.New("permanent failure")
	}
	d := RetryingDistanceE(alwaysFails, fastBackOff)
	_, err := d(1, 2)
	if err == nil {
		t.Error("RetryingDistanceE should eventually give up and return an error")
	}
}

func TestRetryingDistancePanicsWhenExhausted(t *testing.T) {
	alwaysFails := func(a, b int) (float64, error) {
		return 0, errors.New("permanent failure")
	}
	defer func() {
		if recover() == nil {
			t.Error("RetryingDistance should panic once its retry budget is exhausted")
		}
	}()
	d := RetryingDistance(alwaysFails, fastBackOff)
	d(1, 2)
}
