package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventConfigCurrentDay(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	cfg := &EventConfig{StartDate: start, EndDate: start.AddDate(0, 0, EventDurationDays)}

	tests := []struct {
		name     string
		now      time.Time
		expected int
	}{
		{name: "Before start clamps to day 1", now: start.Add(-48 * time.Hour), expected: 1},
		{name: "Start instant is day 1", now: start, expected: 1},
		{name: "End of first day", now: start.Add(23 * time.Hour), expected: 1},
		{name: "Second day begins after 24h", now: start.Add(24 * time.Hour), expected: 2},
		{name: "Mid-event", now: start.Add(10*24*time.Hour + 12*time.Hour), expected: 11},
		{name: "Last day", now: start.Add(29 * 24 * time.Hour), expected: 30},
		{name: "After end clamps to final day", now: start.Add(90 * 24 * time.Hour), expected: EventDurationDays},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cfg.CurrentDay(tt.now))
		})
	}
}

func TestQuestTypeRequiresAnswer(t *testing.T) {
	assert.True(t, QuestTypeQA.RequiresAnswer())
	assert.True(t, QuestTypeMCQ.RequiresAnswer())
	assert.True(t, QuestTypeDaily.RequiresAnswer())
	assert.False(t, QuestTypeSocialFollow.RequiresAnswer())
}
