package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSeverity(t *testing.T) {
	got, ok := ParseSeverity("high")
	assert.True(t, ok)
	assert.Equal(t, SeverityHigh, got)

	_, ok = ParseSeverity("HIGH")
	assert.False(t, ok)
	_, ok = ParseSeverity("")
	assert.False(t, ok)
}

func TestSeverityAtLeast(t *testing.T) {
	assert.True(t, SeverityCritical.AtLeast(SeverityLow))
	assert.True(t, SeverityHigh.AtLeast(SeverityHigh))
	assert.False(t, SeverityMedium.AtLeast(SeverityHigh))
}
