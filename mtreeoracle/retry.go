// Package mtreeoracle helps turn a distance function that can fail
// transiently — for instance one backed by a remote embedding or
// similarity service — into the plain, always-succeeding
// mtree.DistanceFunc the tree core expects. It's the distance-oracle
// analogue of github.com/tormol/AIS/server's NewSourceBackoff: that
// file retries dialing a flaky upstream TCP source with exponential
// backoff before giving up; this retries a flaky distance computation
// the same way.
package mtreeoracle

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
)

// FallibleDistance is a distance function that may fail, e.g. because
// it calls out to a remote service.
type FallibleDistance[T any] func(a, b T) (float64, error)

// NewBackOff is called once per RetryingDistance invocation to produce
// the backoff schedule for that call's retries. Passing
// backoff.NewExponentialBackOff is the usual choice; tests can pass a
// func returning &backoff.StopBackOff{} to disable retrying.
type NewBackOff func() backoff.BackOff

// RetryingDistance wraps d so transient errors are retried according to
// the schedule newBackOff produces. The returned function panics, with
// the last error seen, if d never succeeds and the backoff policy gives
// up (backoff.Stop) — mtree.DistanceFunc has no way
// to report failure, so a distance oracle that cannot be made reliable
// enough for the retry budget isn't usable as one; callers who'd rather
// not panic should use RetryingDistanceE and handle the error
// themselves before it ever reaches the tree.
func RetryingDistance[T any](d FallibleDistance[T], newBackOff NewBackOff) func(a, b T) float64 {
	e := RetryingDistanceE(d, newBackOff)
	return func(a, b T) float64 {
		v, err := e(a, b)
		if err != nil {
			panic(fmt.Sprintf("mtreeoracle: distance oracle exhausted its retry budget: %s", err))
		}
		return v
	}
}

// RetryingDistanceE is the error-returning variant of RetryingDistance,
// for callers that want to decide for themselves what to do when the
// retry budget is exhausted instead of having it panic.
func RetryingDistanceE[T any](d FallibleDistance[T], newBackOff NewBackOff) func(a, b T) (float64, error) {
	return func(a, b T) (float64, error) {
		var result float64
		operation := func() error {
			v, err := d(a, b)
			if err != nil {
				return err
			}
			result = v
			return nil
		}
		err := backoff.Retry(operation, newBackOff())
		return result, err
	}
}

// NewSourceBackOff returns the backoff schedule used by the package's
// example oracle: short initial retries, backing off up to a minute,
// giving up after five minutes. Modeled on
// github.com/tormol/AIS/server's NewSourceBackoff, scaled down from
// "keep trying to reconnect for a week" to "a distance call that's
// still failing after five minutes is not a transient blip".
func NewSourceBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = time.Minute
	b.MaxElapsedTime = 5 * time.Minute
	b.Reset()
	return b
}
