package notifier

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/balbiss/pix-automatico/internal/domain"
	"github.com/balbiss/pix-automatico/internal/logging"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier sends the payment confirmation and the one-time asset
// transfer to the buyer's chat.
type TelegramNotifier struct {
	bot       sender
	assetPath string
}

func NewTelegramNotifier(bot sender, assetPath string) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, assetPath: assetPath}
}

// NotifyAndDeliver sends the confirmation text, then the digital asset.
// A failed asset upload after a delivered confirmation is a partial success
// (ErrDeliveryIncomplete); the caller must not unwind prior state on either
// failure.
func (n *TelegramNotifier) NotifyAndDeliver(ctx context.Context, accountID int64) error {
	log := logging.FromContext(ctx)

	msg := tgbotapi.NewMessage(accountID, "✅ Pagamento confirmado! Aqui está seu E-book:")
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("NotifyAndDeliver: confirmation: %w", err)
	}

	doc := tgbotapi.NewDocument(accountID, tgbotapi.FilePath(n.assetPath))
	if _, err := n.bot.Send(doc); err != nil {
		log.Error("asset upload failed", "account_id", accountID, "error", err)
		return fmt.Errorf("NotifyAndDeliver: %w", domain.ErrDeliveryIncomplete)
	}

	return nil
}
