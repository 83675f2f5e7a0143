package model

import "time"

type CheckInStatus struct {
	LastCheckIn   *time.Time
	IsAvailable   bool
	NextAvailable *time.Time
	Reward        int
}
