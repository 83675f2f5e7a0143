package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReasonCascades(t *testing.T) {
	assert.True(t, ReasonDailyCheckIn.Cascades())
	assert.True(t, ReasonLeftChannel.Cascades())
	assert.True(t, ReasonDataRecovery.Cascades())
	assert.True(t, QuestCompletionReason(QuestTypeQA).Cascades())

	assert.False(t, ReasonReferralBonus.Cascades())
	assert.False(t, ReasonSuccessfulInvite.Cascades())
}

func TestQuestCompletionReason(t *testing.T) {
	assert.Equal(t, Reason("quest_completion_social_follow"),
		QuestCompletionReason(QuestTypeSocialFollow))
	assert.Equal(t, Reason("quest_completion_qa"), QuestCompletionReason(QuestTypeQA))
}

func TestReferralBonus(t *testing.T) {
	tests := []struct {
		delta    int
		expected int
	}{
		{delta: 100, expected: 10},
		{delta: 50, expected: 5},
		{delta: 15, expected: 1},
		{delta: 9, expected: 0},
		{delta: 0, expected: 0},
		{delta: -50, expected: -5},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ReferralBonus(tt.delta), "delta %d", tt.delta)
	}
}
