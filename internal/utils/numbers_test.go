package utils

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	assert.Equal(t, 12.5, ParseAmount("12.5"))
	assert.Equal(t, 12.5, ParseAmount("  12.5 "))
	assert.Equal(t, -3.0, ParseAmount("-3"))
	assert.Equal(t, 0.0, ParseAmount(""))
	assert.Equal(t, 0.0, ParseAmount("abc"))
	assert.Equal(t, 0.0, ParseAmount("12,5"))
	assert.Equal(t, 0.0, ParseAmount("NaN"))
}

func TestSanitizeAmount(t *testing.T) {
	assert.Equal(t, 42.0, SanitizeAmount(42))
	assert.Equal(t, 0.0, SanitizeAmount(math.NaN()))
	assert.Equal(t, 0.0, SanitizeAmount(math.Inf(1)))
	assert.Equal(t, 0.0, SanitizeAmount(math.Inf(-1)))
}

func TestClampAmount(t *testing.T) {
	assert.Equal(t, 50.0, ClampAmount(50, 0, 100))
	assert.Equal(t, 0.0, ClampAmount(-10, 0, 100))
	assert.Equal(t, 100.0, ClampAmount(250, 0, 100))
	assert.Equal(t, 0.0, ClampAmount(math.NaN(), 0, 100))
}

func TestTruncateToDay(t *testing.T) {
	loc := time.FixedZone("ART", -3*60*60)
	noon := time.Date(2024, time.January, 10, 12, 30, 45, 999, loc)

	truncated := TruncateToDay(noon)

	assert.Equal(t, time.Date(2024, time.January, 10, 0, 0, 0, 0, loc), truncated)
	assert.Equal(t, loc, truncated.Location())
}

func TestMockClock(t *testing.T) {
	clock := &MockClock{FixedNow: time.Date(2024, time.January, 10, 15, 0, 0, 0, time.UTC)}

	assert.Equal(t, time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC), Today(clock))

	clock.Advance(24 * time.Hour)
	assert.Equal(t, time.Date(2024, time.January, 11, 0, 0, 0, 0, time.UTC), Today(clock))

	clock.SetNow(time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC))
	assert.Equal(t, 2025, clock.Now().Year())
}
