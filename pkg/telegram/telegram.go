package telegram

import (
	"context"
	"time"

	"microtrade/config"
	"microtrade/pkg/logger"

	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"
)

// Notifier sends outbound alert messages to a fixed chat, rate limited so a
// burst of rule triggers cannot hit the Telegram API limits.
type Notifier struct {
	cfg     *config.TelegramNotifier
	log     *logger.Logger
	bot     *telebot.Bot
	limiter *rate.Limiter
}

func NewNotifier(cfg *config.TelegramNotifier, log *logger.Logger) (*Notifier, error) {
	pref := telebot.Settings{
		Token:  cfg.BotToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			log.Error("Telegram bot error", logger.ErrorField(err))
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		return nil, err
	}

	return &Notifier{
		cfg:     cfg,
		log:     log,
		bot:     bot,
		limiter: rate.NewLimiter(rate.Limit(1), 5),
	}, nil
}

func (n *Notifier) Notify(ctx context.Context, message string) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err := n.bot.Send(&telebot.Chat{ID: n.cfg.ChatID}, message, telebot.ModeHTML)
	if err != nil {
		n.log.ErrorContext(ctx, "Failed to send telegram alert", logger.ErrorField(err))
		return err
	}
	return nil
}
