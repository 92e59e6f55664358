package mtreelog

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff"
)

// periodicMaxSleep bounds how long the internal timer ever sleeps, so
// AddPeriodic can be called on an otherwise-idle Logger without missing
// the chance to register the very first periodic run.
const periodicMaxSleep = 365 * 24 * time.Hour

type periodicFunc func(l *Logger, sinceLast time.Duration)

// periodicEntry is one closure registered with AddPeriodic. Its
// schedule is driven by an exponential backoff, exactly like
// github.com/tormol/AIS/logger's periodic.go uses backoff for
// reconnect-style scheduling: here it spaces out increasingly less
// urgent statistics dumps (e.g. "tree has grown 3 levels deeper") the
// same way that file spaces out increasingly patient reconnect attempts.
type periodicEntry struct {
	id       string
	f        periodicFunc
	interval backoff.ExponentialBackOff
	lastRun  time.Time
	nextRun  time.Time
}

type periodic struct {
	logger  *Logger
	timer   *time.Timer
	entries []*periodicEntry
	mu      sync.Mutex
	stopped bool
	once    sync.Once
}

func newPeriodic(l *Logger) periodic {
	return periodic{logger: l, timer: time.NewTimer(periodicMaxSleep)}
}

// AddPeriodic registers f to run periodically, starting at minInterval
// and backing off exponentially (factor 2) after every run, up to
// maxInterval apart. id must be unique
// among this Logger's periodic entries. The background runner goroutine
// is only started on the first call, so a Logger nobody asks to run
// anything periodic never spawns one.
func (l *Logger) AddPeriodic(id string, minInterval, maxInterval time.Duration, f periodicFunc) {
	if l == nil {
		return
	}
	l.p.once.Do(func() { go l.p.run() })
	b := backoff.ExponentialBackOff{
		InitialInterval:     minInterval,
		MaxInterval:         maxInterval,
		Multiplier:          2.0,
		RandomizationFactor: 0,
		MaxElapsedTime:      0,
		Clock:               backoff.SystemClock,
	}
	b.Reset()

	l.p.mu.Lock()
	defer l.p.mu.Unlock()
	for _, e := range l.p.entries {
		if e.id == id {
			l.Errorf("periodic logger %q already registered", id)
			return
		}
	}
	now := time.Now()
	l.p.entries = append(l.p.entries, &periodicEntry{
		id:       id,
		f:        f,
		interval: b,
		lastRun:  now,
		nextRun:  now.Add(b.NextBackOff()),
	})
	l.p.resetTimer(now)
}

// RemovePeriodic unregisters a periodic logger added with AddPeriodic.
func (l *Logger) RemovePeriodic(id string) {
	if l == nil {
		return
	}
	l.p.mu.Lock()
	defer l.p.mu.Unlock()
	for i, e := range l.p.entries {
		if e.id == id {
			n := len(l.p.entries)
			l.p.entries[i] = l.p.entries[n-1]
			l.p.entries = l.p.entries[:n-1]
			return
		}
	}
}

// Close stops the periodic runner. It does not close the underlying
// writer.
func (l *Logger) Close() {
	if l == nil {
		return
	}
	l.p.mu.Lock()
	defer l.p.mu.Unlock()
	l.p.stopped = true
	l.p.timer.Reset(0)
}

func (p *periodic) resetTimer(now time.Time) {
	next := now.Add(periodicMaxSleep)
	for _, e := range p.entries {
		if e.nextRun.Before(next) {
			next = e.nextRun
		}
	}
	if !p.timer.Stop() {
		select {
		case <-p.timer.C:
		default:
		}
	}
	p.timer.Reset(next.Sub(now))
}

func (p *periodic) run() {
	for now := range p.timer.C {
		p.mu.Lock()
		if p.stopped {
			p.mu.Unlock()
			return
		}
		for _, e := range p.entries {
			if now.Before(e.nextRun) {
				continue
			}
			e.f(p.logger, now.Sub(e.lastRun))
			e.lastRun = now
			next := e.interval.NextBackOff()
			if next == backoff.Stop {
				next = periodicMaxSleep
			}
			e.nextRun = now.Add(next)
		}
		p.resetTimer(now)
		p.mu.Unlock()
	}
}
