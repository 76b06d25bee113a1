package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFake_AdvanceRunsDueTimersInOrder(t *testing.T) {
	c := NewFake(time.Time{})
	var order []string

	c.AfterFunc(300*time.Millisecond, func() { order = append(order, "c") })
	c.AfterFunc(100*time.Millisecond, func() { order = append(order, "a") })
	c.AfterFunc(200*time.Millisecond, func() { order = append(order, "b") })

	c.Advance(250 * time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, 1, c.Pending())

	c.Advance(50 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, 0, c.Pending())
}

func TestFake_CallbackSeesDeadlineAsNow(t *testing.T) {
	start := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	c := NewFake(start)

	var seen time.Time
	c.AfterFunc(time.Second, func() { seen = c.Now() })
	c.Advance(5 * time.Second)

	assert.Equal(t, start.Add(time.Second), seen)
	assert.Equal(t, start.Add(5*time.Second), c.Now())
}

func TestFake_TimersArmedByCallbacksFireWithinWindow(t *testing.T) {
	c := NewFake(time.Time{})
	fired := 0

	c.AfterFunc(100*time.Millisecond, func() {
		c.AfterFunc(100*time.Millisecond, func() { fired++ })
	})

	c.Advance(150 * time.Millisecond)
	assert.Equal(t, 0, fired)

	c.Advance(50 * time.Millisecond)
	assert.Equal(t, 1, fired)
}

func TestFake_ZeroDelayWaitsForAdvance(t *testing.T) {
	c := NewFake(time.Time{})
	fired := false

	c.AfterFunc(0, func() { fired = true })
	assert.False(t, fired)

	c.Advance(0)
	assert.True(t, fired)
}

func TestFake_Stop(t *testing.T) {
	c := NewFake(time.Time{})
	fired := false

	timer := c.AfterFunc(time.Second, func() { fired = true })
	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	c.Advance(2 * time.Second)
	assert.False(t, fired)
}

func TestReal_AfterFunc(t *testing.T) {
	done := make(chan struct{})
	Real().AfterFunc(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("real timer did not fire")
	}
}
