package model

import (
	"time"

	"github.com/google/uuid"
)

type QuestType string

const (
	QuestTypeQA           QuestType = "qa"
	QuestTypeMCQ          QuestType = "mcq"
	QuestTypeSocialFollow QuestType = "social_follow"
	QuestTypeDaily        QuestType = "daily"
)

// RequiresAnswer reports whether completing a quest of this type needs the
// caller to supply an answer.
func (t QuestType) RequiresAnswer() bool {
	switch t {
	case QuestTypeQA, QuestTypeMCQ, QuestTypeDaily:
		return true
	default:
		return false
	}
}

// QuestPayload is the type-specific part of a quest. Question/Answer are set
// for qa, mcq and daily quests; URL and ChatID for social follow quests.
// A social quest without a ChatID (e.g. an X follow) cannot be verified via
// the bot and is completed on trust.
type QuestPayload struct {
	Question string   `json:"question,omitempty"`
	Answer   string   `json:"answer,omitempty"`
	Options  []string `json:"options,omitempty"`
	URL      string   `json:"url,omitempty"`
	ChatID   int64    `json:"chat_id,omitempty"`
}

type Quest struct {
	ID           uuid.UUID
	Title        string
	Description  string
	PointsReward int
	Type         QuestType
	IsActive     bool
	Payload      QuestPayload
	DayNumber    *int
	CreatedAt    time.Time
}

// QuestStatus is a quest annotated for a particular user.
type QuestStatus struct {
	Quest       *Quest
	IsCompleted bool
	IsAvailable bool
	CompletedAt *time.Time
}
