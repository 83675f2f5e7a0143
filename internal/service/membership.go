package service

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramVerifier implements MembershipVerifier against the live bot API.
type TelegramVerifier struct {
	bot *tgbotapi.BotAPI
}

func NewTelegramVerifier(bot *tgbotapi.BotAPI) *TelegramVerifier {
	return &TelegramVerifier{bot: bot}
}

func (v *TelegramVerifier) IsChatMember(_ context.Context, chatID, userID int64) (bool, error) {
	member, err := v.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: chatID,
			UserID: userID,
		},
	})
	if err != nil {
		return false, fmt.Errorf("failed to get chat member: %w", err)
	}

	switch member.Status {
	case "creator", "administrator", "member":
		return true, nil
	default:
		return false, nil
	}
}
