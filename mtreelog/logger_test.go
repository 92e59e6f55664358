package mtreelog

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestThresholdFiltersMessages(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Warning)
	l.Infof("should not appear")
	l.Warningf("should appear")
	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Errorf("Infof wrote a message above threshold: %q", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("Warningf didn't write its message: %q", out)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Debugf("nobody is listening")
	l.Errorf("still nobody")
	l.AddPeriodic("id", time.Millisecond, time.Second, func(*Logger, time.Duration) {})
}

func TestComposeWritesAsOneMessage(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Info)
	c := l.Compose(Info)
	c.Write("part one, ")
	c.Finish("part two")
	out := buf.String()
	if !strings.Contains(out, "part one, part two") {
		t.Errorf("Compose/Write/Finish didn't join into one line: %q", out)
	}
	if strings.Count(out, "\n") != 1 {
		t.Errorf("Compose wrote %d lines, want 1: %q", strings.Count(out, "\n"), out)
	}
}

func TestAddPeriodicRunsAndRemoves(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Debug)
	done := make(chan struct{}, 1)
	l.AddPeriodic("stats", 5*time.Millisecond, 20*time.Millisecond, func(*Logger, time.Duration) {
		select {
		case done <- struct{}{}:
		default:
		}
	})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("periodic closure never ran")
	}
	l.RemovePeriodic("stats")
	l.Close()
}
