package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeClocker_Now(t *testing.T) {
	before := time.Now()
	got := New().Now()
	assert.False(t, got.Before(before))
}

func TestFixed_Now(t *testing.T) {
	at := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	var c Clocker = NewFixed(at)

	assert.Equal(t, at, c.Now())
	assert.Equal(t, at, c.Now())
}
