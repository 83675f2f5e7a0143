package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	TelegramID  int64
	Username    string
	FirstName   string
	Points      int
	ExchangeUID *string
	ReferrerID  *int64
	IsAdmin     bool
	LastCheckIn *time.Time
	CreatedAt   time.Time
}

// Profile joins the user row with derived ledger data for the profile read.
type Profile struct {
	TelegramID        int64
	Username          string
	FirstName         string
	Points            int
	ExchangeUIDSet    bool
	ReferralCount     int
	CompletedQuestIDs []uuid.UUID
}

type UserReferral struct {
	TelegramID  int64
	Username    string
	FirstName   string
	Points      int
	BonusEarned int
	CreatedAt   time.Time
}

type LeaderboardEntry struct {
	TelegramID int64
	Username   string
	FirstName  string
	Points     int
}
