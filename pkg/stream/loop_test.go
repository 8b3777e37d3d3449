package stream

import (
	"testing"
	"time"
)

func TestLoopRunsHandlersOnOwner(t *testing.T) {
	l := newLoop()
	release := make(chan struct{})
	var ran []int

	for i := range 3 {
		l.start(func() func() {
			<-release
			return func() { ran = append(ran, i) }
		})
	}

	if n := l.poll(); n != 0 {
		t.Fatalf("poll ran %d handlers before any operation finished", n)
	}

	close(release)
	if !l.runOne() {
		t.Fatal("runOne returned false with operations outstanding")
	}
	l.drain()

	if len(ran) != 3 {
		t.Fatalf("expected 3 handlers, got %d", len(ran))
	}
	if l.outstanding != 0 {
		t.Errorf("expected nothing outstanding, got %d", l.outstanding)
	}
	if l.runOne() {
		t.Error("runOne returned true on an idle loop")
	}
}

func TestLoopPollRunsFinished(t *testing.T) {
	l := newLoop()
	done := false
	l.start(func() func() {
		return func() { done = true }
	})

	deadline := time.Now().Add(5 * time.Second)
	for !done && time.Now().Before(deadline) {
		l.poll()
		time.Sleep(time.Millisecond)
	}
	if !done {
		t.Fatal("poll never ran the finished handler")
	}
}
