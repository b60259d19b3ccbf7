package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/telebot.v3"

	"coinheist/internal/storage"
)

func (b *Bot) handleShop(c telebot.Context) error {
	b.dialogs.Set(c.Sender().ID, dialogNone)
	ctx := context.Background()

	items, err := b.store.ListItems(ctx, "")
	if err != nil {
		return b.replyError(c, err)
	}
	if len(items) == 0 {
		return c.Send("🏪 The shop is empty today.")
	}

	var sb strings.Builder
	sb.WriteString("🏪 *Shop*\n\n")
	var rows [][]telebot.InlineButton
	for _, it := range items {
		fmt.Fprintf(&sb, "*%s* — %d coins\n%s\n", it.Name, it.Price, shopItemNote(it))
		sb.WriteString("\n")
		rows = append(rows, []telebot.InlineButton{{
			Text: fmt.Sprintf("%s (%d)", it.Name, it.Price),
			Data: fmt.Sprintf("buy:%d", it.ID),
		}})
	}
	return c.Send(sb.String(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown},
		&telebot.ReplyMarkup{InlineKeyboard: rows})
}

func shopItemNote(it storage.ShopItem) string {
	switch it.Kind {
	case storage.KindTool:
		return fmt.Sprintf("🔧 +%d%% theft chance, single use", it.Tier)
	case storage.KindProtect:
		return fmt.Sprintf("🛡 -%d%% to robbers, %d charges", it.Tier, it.Charges)
	case storage.KindTrap:
		return fmt.Sprintf("💥 Punishes robbers, %d charges", it.Charges)
	case storage.KindDetective:
		return "🕵️ Reveals who robbed you last"
	default:
		if it.Stock >= 0 {
			return fmt.Sprintf("🎁 %s (%d left)", it.Description, it.Stock)
		}
		return "🎁 " + it.Description
	}
}

func (b *Bot) handleCallback(c telebot.Context) error {
	data := strings.TrimSpace(strings.TrimPrefix(c.Callback().Data, "\f"))
	if !strings.HasPrefix(data, "buy:") {
		return c.Respond()
	}
	itemID, err := strconv.ParseInt(strings.TrimPrefix(data, "buy:"), 10, 64)
	if err != nil {
		return c.Respond()
	}

	outcome, err := b.engine.Purchase(context.Background(), c.Sender().ID, itemID)
	if err != nil {
		if respErr := c.Respond(); respErr != nil {
			return respErr
		}
		return b.replyError(c, err)
	}
	if err := c.Respond(&telebot.CallbackResponse{Text: "Purchased!"}); err != nil {
		return err
	}
	if outcome.Gift {
		return c.Send(fmt.Sprintf("🎁 You bought *%s* for %d coins. An admin will arrange delivery. Balance: %d.",
			outcome.Item.Name, outcome.Item.Price, outcome.Balance),
			&telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	}
	return c.Send(fmt.Sprintf("🛒 You bought *%s* for %d coins. Balance: %d.",
		outcome.Item.Name, outcome.Item.Price, outcome.Balance),
		&telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
}

func (b *Bot) handlePromo(c telebot.Context) error {
	userID := c.Sender().ID
	args := c.Args()
	if len(args) == 0 {
		b.dialogs.Set(userID, dialogPromoCode)
		return c.Send("🎟 Send me the promo code.")
	}
	b.dialogs.Set(userID, dialogNone)
	return b.resolvePromo(c, args[0])
}

func (b *Bot) resolvePromo(c telebot.Context, code string) error {
	reward, err := b.engine.RedeemPromo(context.Background(), c.Sender().ID, code)
	if err != nil {
		return b.replyError(c, err)
	}
	return c.Send(fmt.Sprintf("🎟 Code accepted! +%d coins.", reward))
}
