package model

import "time"

const EventDurationDays = 30

type EventConfig struct {
	ID        int
	Name      string
	StartDate time.Time
	EndDate   time.Time
	CreatedAt time.Time
}

// CurrentDay computes the 1-based event day at the given instant, clamped to
// [1, EventDurationDays]. Day gating of sequenced quests is driven by this.
func (c *EventConfig) CurrentDay(now time.Time) int {
	day := int(now.Sub(c.StartDate).Hours()/24) + 1
	if day < 1 {
		day = 1
	}
	if day > EventDurationDays {
		day = EventDurationDays
	}
	return day
}
