/*
SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and resource-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package retry

import "time"

const (
	defaultInitialInterval = 2 * time.Second
	defaultMultiplier      = 1.5
	defaultMaxInterval     = 30 * time.Second
	defaultMaxAttempts     = 5
	defaultMaxElapsedTime  = 5 * time.Minute
)

// Retry produces per-event executions; implementations must be safe for concurrent use.
type Retry interface {
	NewExecution() Execution
}

// Execution tracks the attempts of a single event.
// Executions are not safe for concurrent use; the scheduler serializes access.
type Execution interface {
	// NextDelay returns the delay to wait before the next attempt (zero on the
	// first call), or false when the execution is exhausted. Exhaustion is
	// terminal; once false is returned, all subsequent calls return false.
	NextDelay() (time.Duration, bool)
	// Attempts returns the number of delays handed out so far.
	Attempts() int
}

// GenericRetry is an exponential backoff policy. The zero value of any field is
// replaced by a default bounding total retry effort to a few minutes.
// Delays are pure functions of the configuration and the attempt count; the
// elapsed-time cap is enforced against the sum of returned delays rather than
// the wall clock.
type GenericRetry struct {
	// Delay before the second attempt (the first attempt always runs immediately).
	InitialInterval time.Duration
	// Factor applied to the delay after each attempt.
	Multiplier float64
	// Upper clamp for a single delay.
	MaxInterval time.Duration
	// Maximum number of attempts, including the first one.
	MaxAttempts int
	// Maximum cumulative delay across all attempts.
	MaxElapsedTime time.Duration
}

// DefaultRetry returns a GenericRetry with all defaults applied.
func DefaultRetry() *GenericRetry {
	return &GenericRetry{}
}

func (r *GenericRetry) NewExecution() Execution {
	e := &genericExecution{
		initialInterval: r.InitialInterval,
		multiplier:      r.Multiplier,
		maxInterval:     r.MaxInterval,
		maxAttempts:     r.MaxAttempts,
		maxElapsedTime:  r.MaxElapsedTime,
	}
	if e.initialInterval <= 0 {
		e.initialInterval = defaultInitialInterval
	}
	if e.multiplier < 1 {
		e.multiplier = defaultMultiplier
	}
	if e.maxInterval <= 0 {
		e.maxInterval = defaultMaxInterval
	}
	if e.maxAttempts <= 0 {
		e.maxAttempts = defaultMaxAttempts
	}
	if e.maxElapsedTime <= 0 {
		e.maxElapsedTime = defaultMaxElapsedTime
	}
	return e
}

type genericExecution struct {
	initialInterval time.Duration
	multiplier      float64
	maxInterval     time.Duration
	maxAttempts     int
	maxElapsedTime  time.Duration
	attempts        int
	delay           time.Duration
	elapsed         time.Duration
	exhausted       bool
}

func (e *genericExecution) NextDelay() (time.Duration, bool) {
	if e.exhausted || e.attempts >= e.maxAttempts {
		e.exhausted = true
		return 0, false
	}
	if e.attempts == 0 {
		e.attempts = 1
		return 0, true
	}
	if e.attempts == 1 {
		e.delay = e.initialInterval
	} else {
		e.delay = time.Duration(float64(e.delay) * e.multiplier)
	}
	if e.delay > e.maxInterval {
		e.delay = e.maxInterval
	}
	e.elapsed += e.delay
	if e.elapsed > e.maxElapsedTime {
		e.exhausted = true
		return 0, false
	}
	e.attempts++
	return e.delay, true
}

func (e *genericExecution) Attempts() int {
	return e.attempts
}
