package bot

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/balbiss/pix-automatico/internal/config"
	"github.com/balbiss/pix-automatico/internal/domain"
	"github.com/balbiss/pix-automatico/internal/logging"
	"github.com/balbiss/pix-automatico/internal/repository"
	"github.com/balbiss/pix-automatico/internal/service"
)

type chargeService interface {
	InitiateCharge(ctx context.Context, accountID int64) (*service.ChargeResult, error)
}

type withdrawService interface {
	Withdraw(ctx context.Context, accountID int64, rawKey string) (*service.WithdrawResult, error)
}

type reconcilerService interface {
	Process(ctx context.Context, event domain.PaymentEvent) (service.Outcome, error)
}

type notifierService interface {
	NotifyAndDeliver(ctx context.Context, accountID int64) error
}

// Bot is the conversational surface: buyer menu plus the operator commands
// (pricing overrides, manual replay, re-delivery).
type Bot struct {
	api         *tgbotapi.BotAPI
	accounts    *repository.AccountRepository
	charges     chargeService
	withdrawals withdrawService
	reconciler  reconcilerService
	notifier    notifierService
	pricing     *config.PricingStore
	admins      map[int64]struct{}
	logger      *slog.Logger
}

func New(
	api *tgbotapi.BotAPI,
	accounts *repository.AccountRepository,
	charges chargeService,
	withdrawals withdrawService,
	reconciler reconcilerService,
	notifier notifierService,
	pricing *config.PricingStore,
	adminIDs []int64,
	logger *slog.Logger,
) *Bot {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &Bot{
		api:         api,
		accounts:    accounts,
		charges:     charges,
		withdrawals: withdrawals,
		reconciler:  reconciler,
		notifier:    notifier,
		pricing:     pricing,
		admins:      admins,
		logger:      logger,
	}
}

// Run consumes the long-poll update stream until the context is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("bot update loop started", "username", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("bot update loop stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.dispatch(logging.WithLogger(ctx, b.logger), update)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg)
	case "sacar":
		b.handleWithdraw(ctx, msg)
	case "setprice":
		b.handleSetPrice(ctx, msg)
	case "setcommission":
		b.handleSetCommission(ctx, msg)
	case "replay":
		b.handleReplay(ctx, msg)
	case "redeliver":
		b.handleRedeliver(ctx, msg)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Ack the button press so the client stops spinning.
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Warn("callback ack failed", "error", err)
	}

	switch cb.Data {
	case "buy_pix":
		b.handleBuy(ctx, cb)
	case "profile":
		b.handleProfile(ctx, cb)
	case "back_to_start":
		b.sendMainMenu(cb.From.ID)
	case "withdraw":
		b.reply(cb.From.ID, "Use `/sacar SEU_CPF` para retirar seu saldo.")
	}
}

func (b *Bot) isAdmin(id int64) bool {
	_, ok := b.admins[id]
	return ok
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("send failed", "chat_id", chatID, "error", err)
	}
}
