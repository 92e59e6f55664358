// Package mtreelog is a small, dependency-light logging utility in the
// style of github.com/tormol/AIS/logger: level-thresholded, safe to
// share across goroutines even though mtree itself is single-threaded,
// and able to run closures periodically. It exists so that mtree's
// optional structural validator and root-event debug messages have
// somewhere to write that isn't a bare log.Printf, without dragging in
// a full structured-logging framework this corpus doesn't otherwise use.
package mtreelog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Importance levels, highest-to-lowest like the teacher's logger: a
// Logger only prints messages at or below its Threshold.
const (
	Debug   int = 9
	Info    int = 7
	Warning int = 5
	Error   int = 3
	Fatal   int = 1
)

// fatalExitCode is the process exit code used after a Fatal message.
const fatalExitCode int = 3

// Logger is a thread-safe, level-thresholded writer with support for
// periodically-run closures (see AddPeriodic). The zero value is not
// usable; construct with New. A nil *Logger is valid everywhere mtree
// accepts one and simply discards everything, so library code never
// has to special-case "no logger configured".
type Logger struct {
	writeTo   io.Writer
	writeLock sync.Mutex
	Threshold int

	p periodic
}

// New creates a Logger that writes to writeTo, printing only messages
// at level <= threshold.
func New(writeTo io.Writer, threshold int) *Logger {
	l := &Logger{writeTo: writeTo, Threshold: threshold}
	l.p = newPeriodic(l)
	return l
}

// Stderr is a convenience constructor writing to os.Stderr.
func Stderr(threshold int) *Logger {
	return New(os.Stderr, threshold)
}

func (l *Logger) prefix(level int) {
	if l.Threshold >= Debug {
		fmt.Fprint(l.writeTo, time.Now().Format("2006-01-02 15:04:05 "))
	}
	switch level {
	case Warning:
		fmt.Fprint(l.writeTo, "WARNING: ")
	case Error:
		fmt.Fprint(l.writeTo, "ERROR: ")
	case Fatal:
		fmt.Fprint(l.writeTo, "FATAL: ")
	}
}

// Log writes a message if level passes the Logger's Threshold.
func (l *Logger) Log(level int, format string, args ...interface{}) {
	if l == nil || level > l.Threshold {
		return
	}
	l.writeLock.Lock()
	defer l.writeLock.Unlock()
	l.prefix(level)
	fmt.Fprintf(l.writeTo, format, args...)
	fmt.Fprintln(l.writeTo)
	if level == Fatal {
		os.Exit(fatalExitCode)
	}
}

func (l *Logger) Debugf(format string, args ...interface{})   { l.Log(Debug, format, args...) }
func (l *Logger) Infof(format string, args ...interface{})    { l.Log(Info, format, args...) }
func (l *Logger) Warningf(format string, args ...interface{}) { l.Log(Warning, format, args...) }
func (l *Logger) Errorf(format string, args ...interface{})   { l.Log(Error, format, args...) }
func (l *Logger) Fatalf(format string, args ...interface{})   { l.Log(Fatal, format, args...) }

// Composer lets a caller hold the Logger's lock across several writes
// so a multi-part message can't be interleaved with another goroutine's.
// Mirrors github.com/tormol/AIS/logger's Composer.
type Composer struct {
	logger *Logger
	level  int
	active bool
}

// Compose starts a held-lock message at level. Call Close (or Finish)
// to release the lock; writes are silently dropped if level doesn't
// pass the Logger's Threshold, so callers don't need to guard every
// Write with a level check themselves.
func (l *Logger) Compose(level int) Composer {
	if l == nil || level > l.Threshold {
		return Composer{}
	}
	l.writeLock.Lock()
	l.prefix(level)
	return Composer{logger: l, level: level, active: true}
}

func (c *Composer) Write(format string, args ...interface{}) {
	if !c.active {
		return
	}
	fmt.Fprintf(c.logger.writeTo, format, args...)
}

func (c *Composer) Finish(format string, args ...interface{}) {
	c.Write(format, args...)
	c.Close()
}

func (c *Composer) Close() {
	if !c.active {
		return
	}
	fmt.Fprintln(c.logger.writeTo)
	c.logger.writeLock.Unlock()
	c.active = false
	if c.level == Fatal {
		os.Exit(fatalExitCode)
	}
}
