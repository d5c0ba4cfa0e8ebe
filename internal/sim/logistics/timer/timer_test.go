package timer

import (
	"testing"
	"time"
)

func TestRepeating_FiresOncePerInterval(t *testing.T) {
	r := New(time.Second)
	fired := 0
	for i := 0; i < 10; i++ {
		if r.Tick(250 * time.Millisecond) {
			fired++
		}
	}
	if fired != 2 {
		t.Fatalf("fired=%d", fired)
	}
	if r.Elapsed != 500*time.Millisecond {
		t.Fatalf("elapsed=%v", r.Elapsed)
	}
}

func TestRepeating_LargeStepKeepsRemainder(t *testing.T) {
	r := New(time.Second)
	if !r.Tick(2500 * time.Millisecond) {
		t.Fatalf("should fire")
	}
	if r.Elapsed != 500*time.Millisecond {
		t.Fatalf("elapsed=%v", r.Elapsed)
	}
}

func TestRepeating_ZeroIntervalAlwaysFires(t *testing.T) {
	var r Repeating
	if !r.Tick(0) || !r.Tick(time.Millisecond) {
		t.Fatalf("zero interval should always fire")
	}
}
