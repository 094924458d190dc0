package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFilterCriteriaIsEmpty(t *testing.T) {
	assert.True(t, FilterCriteria{}.IsEmpty())
	assert.False(t, FilterCriteria{Query: "x"}.IsEmpty())
	assert.False(t, FilterCriteria{Levels: []Level{LevelError}}.IsEmpty())
	assert.False(t, FilterCriteria{Last: time.Minute}.IsEmpty())
	assert.False(t, FilterCriteria{From: time.Now()}.IsEmpty())
}

func TestFilterCriteriaAcceptsLevel(t *testing.T) {
	// Empty level set accepts everything
	all := FilterCriteria{}
	for _, l := range Levels {
		assert.True(t, all.AcceptsLevel(l))
	}

	errsOnly := FilterCriteria{Levels: []Level{LevelError, LevelCritical}}
	assert.True(t, errsOnly.AcceptsLevel(LevelError))
	assert.True(t, errsOnly.AcceptsLevel(LevelCritical))
	assert.False(t, errsOnly.AcceptsLevel(LevelInfo))
}

func TestConnStateLive(t *testing.T) {
	assert.True(t, ConnStateConnecting.Live())
	assert.True(t, ConnStateConnected.Live())
	assert.True(t, ConnStateReconnecting.Live())
	assert.False(t, ConnStateDisconnected.Live())
	assert.False(t, ConnStateFailed.Live())
}
