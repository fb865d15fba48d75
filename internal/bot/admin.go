package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"github.com/balbiss/pix-automatico/internal/domain"
	"github.com/balbiss/pix-automatico/internal/logging"
)

// Operator commands. All of them are silently ignored for non-admins so the
// command surface stays invisible to buyers.

func (b *Bot) handleSetPrice(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg.From.ID) {
		return
	}

	price, err := decimal.NewFromString(strings.TrimSpace(msg.CommandArguments()))
	if err != nil || !price.IsPositive() {
		b.reply(msg.Chat.ID, "Uso: `/setprice 19.90`")
		return
	}

	b.pricing.SetPrice(price)
	logging.FromContext(ctx).Info("price updated", "admin_id", msg.From.ID, "price", price)
	b.reply(msg.Chat.ID, fmt.Sprintf("Preço atualizado: R$ %s", price.StringFixed(2)))
}

func (b *Bot) handleSetCommission(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg.From.ID) {
		return
	}

	args := strings.Fields(msg.CommandArguments())
	if len(args) != 2 {
		b.reply(msg.Chat.ID, "Uso: `/setcommission 6.00 3.00`")
		return
	}
	l1, err1 := decimal.NewFromString(args[0])
	l2, err2 := decimal.NewFromString(args[1])
	if err1 != nil || err2 != nil || l1.IsNegative() || l2.IsNegative() {
		b.reply(msg.Chat.ID, "Uso: `/setcommission 6.00 3.00`")
		return
	}

	b.pricing.SetCommissions(l1, l2)
	logging.FromContext(ctx).Info("commissions updated", "admin_id", msg.From.ID, "l1", l1, "l2", l2)
	b.reply(msg.Chat.ID, fmt.Sprintf("Comissões atualizadas: N1 R$ %s | N2 R$ %s", l1.StringFixed(2), l2.StringFixed(2)))
}

// handleReplay reruns reconciliation for a transaction id, the recovery path
// for events that were acknowledged but left work undone. The idempotency
// guards make a replay of a fully-handled transaction a no-op.
func (b *Bot) handleReplay(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg.From.ID) {
		return
	}

	transactionID := strings.TrimSpace(msg.CommandArguments())
	if transactionID == "" {
		b.reply(msg.Chat.ID, "Uso: `/replay <transaction_id>`")
		return
	}

	event := domain.PaymentEvent{TransactionID: transactionID, Status: "PAID"}
	outcome, err := b.reconciler.Process(ctx, event)
	if err != nil {
		logging.FromContext(ctx).Error("manual replay failed", "transaction_id", transactionID, "error", err)
		b.reply(msg.Chat.ID, fmt.Sprintf("Replay falhou: %s", transactionID))
		return
	}

	b.reply(msg.Chat.ID, fmt.Sprintf("Replay %s: %s", transactionID, outcome))
}

// handleRedeliver reruns delivery alone, without touching activation or
// commissions.
func (b *Bot) handleRedeliver(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg.From.ID) {
		return
	}

	accountID, err := strconv.ParseInt(strings.TrimSpace(msg.CommandArguments()), 10, 64)
	if err != nil {
		b.reply(msg.Chat.ID, "Uso: `/redeliver <telegram_id>`")
		return
	}

	if err := b.notifier.NotifyAndDeliver(ctx, accountID); err != nil {
		logging.FromContext(ctx).Error("manual redelivery failed", "account_id", accountID, "error", err)
		b.reply(msg.Chat.ID, fmt.Sprintf("Reentrega falhou para %d", accountID))
		return
	}

	b.reply(msg.Chat.ID, fmt.Sprintf("Reentrega concluída para %d", accountID))
}
