package pipeline

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_Basic(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10)

	tracker.Start()
	tracker.Progress(25, 100, "embedded 25")
	tracker.Progress(50, 100, "embedded 50")
	tracker.Progress(100, 100, "embedded 100")
	tracker.Finish()

	elapsed := tracker.Elapsed()
	assert.Greater(t, elapsed, time.Duration(0), "elapsed time should be positive")

	output := buf.String()
	assert.Contains(t, output, "100/100", "should show completion")
	assert.Contains(t, output, "100.0%", "should show 100%")
}

func TestProgressTracker_Throttling(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 100)

	tracker.Start()
	tracker.Progress(50, 1000, "halfway to first report")
	assert.Empty(t, buf.String(), "should not report below the interval")

	tracker.Progress(100, 1000, "first report")
	assert.Contains(t, buf.String(), "100/1000")
}

func TestProgressTracker_Finish(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10)

	tracker.Start()
	tracker.Progress(75, 100, "almost")
	tracker.Finish()

	output := buf.String()
	assert.Contains(t, output, "75/100", "finish reports the last state")
	assert.Contains(t, output, "\n", "finish should print newline")
}

func TestProgressTracker_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10)

	tracker.Start()
	tracker.Finish()

	output := buf.String()
	assert.Contains(t, output, "0/0", "should handle zero total")
}

func TestProgressTracker_Rate(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 1)

	tracker.Start()
	time.Sleep(10 * time.Millisecond)
	tracker.Progress(5, 10, "working")
	tracker.Finish()

	assert.Contains(t, buf.String(), "items/s", "should show rate")
}

func TestProgressTracker_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10)

	// Should not panic or print when not started
	tracker.Progress(10, 100, "x")
	tracker.Finish()

	assert.Equal(t, "", buf.String(), "should have no output when not started")
}

func TestProgressTracker_GrowingTotal(t *testing.T) {
	// Batch mode revises the estimated total between updates
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 1)

	tracker.Start()
	tracker.Progress(10, 200, "file one")
	tracker.Progress(20, 350, "file two")

	output := buf.String()
	assert.Contains(t, output, "10/200")
	assert.Contains(t, output, "20/350")
}

func TestNopObserver(t *testing.T) {
	assert.NotPanics(t, func() {
		NopObserver{}.Progress(1, 2, "x")
	})
}
