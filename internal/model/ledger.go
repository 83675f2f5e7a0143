package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Reason is the audit code attached to every point transaction.
type Reason string

const (
	ReasonDailyCheckIn     Reason = "daily_checkin"
	ReasonSuccessfulInvite Reason = "successful_invite"
	ReasonReferralBonus    Reason = "referral_bonus"
	ReasonLeftChannel      Reason = "left_channel"
	ReasonDataRecovery     Reason = "data_recovery"
)

// QuestCompletionReason builds the per-type completion reason, e.g.
// "quest_completion_social_follow".
func QuestCompletionReason(t QuestType) Reason {
	return Reason("quest_completion_" + string(t))
}

// Cascades reports whether a transaction with this reason triggers the 10%
// referrer credit. Bonus grants themselves never cascade, otherwise a single
// earn could compound through a referral chain.
func (r Reason) Cascades() bool {
	return r != ReasonReferralBonus && r != ReasonSuccessfulInvite
}

// ReferralBonus is the secondary credit a referrer receives when the referred
// user earns delta points directly. Zero or negative results suppress the
// cascade entirely.
func ReferralBonus(delta int) int {
	return int(math.Floor(float64(delta) * 0.10))
}

// PointTransaction is an immutable row of the audit ledger. A user's balance
// must always equal the sum of their deltas.
type PointTransaction struct {
	ID             int64
	UserID         int64
	Delta          int
	Reason         Reason
	RelatedQuestID *uuid.UUID
	RelatedUserID  *int64
	CreatedAt      time.Time
}
