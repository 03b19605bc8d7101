// Package notify sends Telegram alerts when a forecast comes back with a
// critical overall risk.
package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ocutrend/iopcast/models"
)

// Notifier delivers critical-risk alerts to a fixed chat.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

// New creates a notifier for the given bot token and chat.
func New(token string, chatID int64) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("initializing telegram bot: %w", err)
	}
	return &Notifier{
		bot:    bot,
		chatID: chatID,
		logger: log.With().Str("component", "notifier").Logger(),
	}, nil
}

// CriticalAlert sends a summary of a critical forecast. Callers are expected
// to invoke it only for critical assessments; failures are for the caller to
// log, never to surface to the patient request.
func (n *Notifier) CriticalAlert(result *models.ForecastResult) error {
	message := fmt.Sprintf(
		"⚠️ **Critical IOP forecast**\n\n"+
			"%s\n\n"+
			"Peak: %.1f mmHg, trough: %.1f mmHg\n"+
			"Elevated pressure for %.1f%% of the next 24h\n"+
			"Recommended drop time: %s",
		result.Assessment.Message,
		result.Analysis.PeakIOP, result.Analysis.TroughIOP,
		result.Assessment.RiskPercentage,
		result.OptimalDropTime,
	)

	msg := tgbotapi.NewMessage(n.chatID, message)
	msg.ParseMode = "Markdown"

	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("sending alert: %w", err)
	}
	n.logger.Info().Int64("chat_id", n.chatID).Msg("Critical forecast alert sent")
	return nil
}
