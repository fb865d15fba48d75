package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"github.com/balbiss/pix-automatico/internal/domain"
	"github.com/balbiss/pix-automatico/internal/logging"
)

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Pagar com PIX", "buy_pix"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Meu Perfil / Indicar", "profile"),
		),
	)
}

func (b *Bot) sendMainMenu(chatID int64) {
	price := b.pricing.Snapshot().Price
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Bem-vindo! E-book exclusivo por R$ %s.", price.StringFixed(2)))
	msg.ReplyMarkup = mainMenuKeyboard()
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("send failed", "chat_id", chatID, "error", err)
	}
}

// handleStart links the new account into the referral tree. The sponsor
// chain is captured once: L2 is the sponsor's own L1 at this moment. A
// repeated /start never rewrites lineage, and self-referral is ignored.
func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	log := logging.FromContext(ctx)
	telegramID := msg.From.ID

	account := &domain.Account{
		TelegramID: telegramID,
		Balance:    decimal.Zero,
		CreatedAt:  time.Now().UTC(),
	}

	if ref := msg.CommandArguments(); ref != "" {
		sponsorID, err := strconv.ParseInt(ref, 10, 64)
		if err == nil && sponsorID != telegramID {
			sponsor, err := b.accounts.Get(ctx, sponsorID)
			if err == nil {
				account.SponsorL1 = &sponsor.TelegramID
				account.SponsorL2 = sponsor.SponsorL1
			}
		}
	}

	if err := b.accounts.Upsert(ctx, account); err != nil {
		log.Error("account upsert failed", "telegram_id", telegramID, "error", err)
	}

	b.sendMainMenu(msg.Chat.ID)
}

func (b *Bot) handleBuy(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	log := logging.FromContext(ctx)
	telegramID := cb.From.ID

	result, err := b.charges.InitiateCharge(ctx, telegramID)
	if err != nil {
		log.Error("charge initiation failed", "telegram_id", telegramID, "error", err)
		b.reply(telegramID, "Erro ao gerar Pix. Tente novamente.")
		return
	}

	b.reply(telegramID, fmt.Sprintf("Copia e Cola Pix:\n\n`%s`", result.PixCode))
}

func (b *Bot) handleProfile(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	log := logging.FromContext(ctx)
	telegramID := cb.From.ID

	account, err := b.accounts.Get(ctx, telegramID)
	if err != nil {
		log.Error("profile lookup failed", "telegram_id", telegramID, "error", err)
		b.reply(telegramID, "Erro ao carregar perfil.")
		return
	}

	l1, l2, err := b.accounts.CountDownline(ctx, telegramID)
	if err != nil {
		log.Error("downline count failed", "telegram_id", telegramID, "error", err)
	}

	text := fmt.Sprintf(
		"Sua Conta:\nSaldo: R$ %s\nN1: %d | N2: %d\n\nLink:\nhttps://t.me/%s?start=%d",
		account.Balance.StringFixed(2), l1, l2, b.api.Self.UserName, telegramID,
	)
	msg := tgbotapi.NewMessage(telegramID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💰 Saque", "withdraw"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Voltar", "back_to_start"),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("send failed", "chat_id", telegramID, "error", err)
	}
}

func (b *Bot) handleWithdraw(ctx context.Context, msg *tgbotapi.Message) {
	log := logging.FromContext(ctx)
	telegramID := msg.From.ID

	result, err := b.withdrawals.Withdraw(ctx, telegramID, msg.CommandArguments())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidPixKey):
			b.reply(telegramID, "Informe o CPF: `/sacar 12345678901`")
		case errors.Is(err, domain.ErrBelowMinimum):
			min := b.pricing.Snapshot().WithdrawMin
			b.reply(telegramID, fmt.Sprintf("Saque mínimo R$ %s.", min.StringFixed(2)))
		default:
			log.Error("withdrawal failed", "telegram_id", telegramID, "error", err)
			b.reply(telegramID, "Erro no saque. Tente novamente.")
		}
		return
	}

	b.reply(telegramID, fmt.Sprintf("✅ Saque solicitado! R$ %s", result.Paid.StringFixed(2)))
}
