package util

import (
	"sync"
	"testing"
	"time"
)

func TestStopwatch_StartStopReset(t *testing.T) {
	sw := &Stopwatch{}

	if elapsed := sw.Elapsed(); elapsed != 0 {
		t.Errorf("Expected initial elapsed time to be 0, got %v", elapsed)
	}

	sw.Start()
	time.Sleep(10 * time.Millisecond)
	if elapsed := sw.Elapsed(); elapsed < 10*time.Millisecond {
		t.Errorf("Expected at least 10ms elapsed, got %v", elapsed)
	}

	sw.Stop()
	stopped := sw.Elapsed()
	time.Sleep(10 * time.Millisecond)
	if sw.Elapsed() != stopped {
		t.Error("Elapsed time should not increase after Stop()")
	}

	sw.Reset()
	if elapsed := sw.Elapsed(); elapsed != 0 {
		t.Errorf("Expected elapsed time to be 0 after reset, got %v", elapsed)
	}
	if sw.Running() {
		t.Error("Reset should stop the stopwatch")
	}
}

func TestStopwatch_SetElapsedWhileStopped(t *testing.T) {
	sw := &Stopwatch{}
	sw.SetElapsed(90 * time.Second)
	if got := sw.Elapsed(); got != 90*time.Second {
		t.Errorf("Elapsed() = %v, want 90s", got)
	}
	if sw.Running() {
		t.Error("SetElapsed must not start the stopwatch")
	}
}

func TestStopwatch_SetElapsedWhileRunning(t *testing.T) {
	sw := &Stopwatch{}
	sw.Start()
	time.Sleep(20 * time.Millisecond)
	sw.SetElapsed(5 * time.Second)

	got := sw.Elapsed()
	if got < 5*time.Second || got > 5*time.Second+15*time.Millisecond {
		t.Errorf("Elapsed() = %v, want ~5s", got)
	}
	if !sw.Running() {
		t.Error("SetElapsed must not stop a running stopwatch")
	}
}

func TestStopwatch_DoubleStartStop(t *testing.T) {
	sw := &Stopwatch{}

	sw.Start()
	time.Sleep(5 * time.Millisecond)
	first := sw.Elapsed()
	sw.Start()
	if sw.Elapsed() < first {
		t.Error("Second Start() affected timing")
	}

	sw.Stop()
	elapsed := sw.Elapsed()
	sw.Stop()
	if sw.Elapsed() != elapsed {
		t.Error("Second Stop() changed elapsed time")
	}
}

func TestStopwatch_ConcurrentAccess(t *testing.T) {
	sw := &Stopwatch{}
	var wg sync.WaitGroup

	const goroutines = 8
	const iterations = 100

	wg.Add(goroutines * 3)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				sw.Start()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				sw.Stop()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				sw.SetElapsed(time.Duration(j) * time.Millisecond)
				_ = sw.Elapsed()
			}
		}()
	}
	wg.Wait()
	// run with -race
}
