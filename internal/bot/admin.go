package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/telebot.v3"

	"coinheist/internal/storage"
)

// requireAdmin short-circuits non-admin callers. Unauthorized calls are
// silently ignored so the commands stay undiscoverable.
func (b *Bot) requireAdmin(c telebot.Context) (bool, error) {
	isAdmin, err := b.auth.IsAdmin(context.Background(), c.Sender().ID)
	if err != nil {
		b.log.Error("admin check failed", zap.Error(err))
		return false, c.Send("Something went wrong. Please try again.")
	}
	return isAdmin, nil
}

// resolveUserArg accepts either a numeric id or an @username.
func (b *Bot) resolveUserArg(ctx context.Context, arg string) (*storage.User, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return b.store.GetUser(ctx, id)
	}
	return b.store.GetUserByName(ctx, strings.TrimPrefix(arg, "@"))
}

func (b *Bot) handleAddCoins(c telebot.Context) error {
	if ok, err := b.requireAdmin(c); !ok {
		return err
	}
	args := c.Args()
	if len(args) != 2 {
		return c.Send("Usage: /addcoins <user|@name> <delta>")
	}
	ctx := context.Background()
	user, err := b.resolveUserArg(ctx, args[0])
	if err != nil || user == nil {
		return c.Send("User not found.")
	}
	delta, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || delta == 0 {
		return c.Send("Delta must be a non-zero integer.")
	}
	balance, err := b.engine.AdminAdjust(ctx, user.ID, delta)
	if err != nil {
		return b.replyError(c, err)
	}
	return c.Send(fmt.Sprintf("Done. %s now has %d coins.", displayName(user), balance))
}

func (b *Bot) handleAddAdmin(c telebot.Context) error {
	if !b.auth.IsSuperAdmin(c.Sender().ID) {
		return nil
	}
	args := c.Args()
	if len(args) != 1 {
		return c.Send("Usage: /addadmin <user|@name>")
	}
	ctx := context.Background()
	user, err := b.resolveUserArg(ctx, args[0])
	if err != nil || user == nil {
		return c.Send("User not found.")
	}
	if err := b.store.AddAdmin(ctx, user.ID, c.Sender().ID); err != nil {
		b.log.Error("add admin failed", zap.Error(err))
		return c.Send("Something went wrong. Please try again.")
	}
	b.auth.Invalidate()
	return c.Send(fmt.Sprintf("%s is now an admin.", displayName(user)))
}

func (b *Bot) handleDelAdmin(c telebot.Context) error {
	if !b.auth.IsSuperAdmin(c.Sender().ID) {
		return nil
	}
	args := c.Args()
	if len(args) != 1 {
		return c.Send("Usage: /deladmin <user|@name>")
	}
	ctx := context.Background()
	user, err := b.resolveUserArg(ctx, args[0])
	if err != nil || user == nil {
		return c.Send("User not found.")
	}
	if err := b.store.RemoveAdmin(ctx, user.ID); err != nil {
		b.log.Error("remove admin failed", zap.Error(err))
		return c.Send("Something went wrong. Please try again.")
	}
	b.auth.Invalidate()
	return c.Send(fmt.Sprintf("%s is no longer an admin.", displayName(user)))
}

func (b *Bot) handleBan(c telebot.Context) error {
	if ok, err := b.requireAdmin(c); !ok {
		return err
	}
	args := c.Args()
	if len(args) < 1 {
		return c.Send("Usage: /ban <user|@name> [reason]")
	}
	ctx := context.Background()
	user, err := b.resolveUserArg(ctx, args[0])
	if err != nil || user == nil {
		return c.Send("User not found.")
	}
	reason := strings.Join(args[1:], " ")
	if err := b.store.BanUser(ctx, user.ID, c.Sender().ID, reason); err != nil {
		b.log.Error("ban failed", zap.Error(err))
		return c.Send("Something went wrong. Please try again.")
	}
	b.auth.Invalidate()
	return c.Send(fmt.Sprintf("%s is banned.", displayName(user)))
}

func (b *Bot) handleUnban(c telebot.Context) error {
	if ok, err := b.requireAdmin(c); !ok {
		return err
	}
	args := c.Args()
	if len(args) != 1 {
		return c.Send("Usage: /unban <user|@name>")
	}
	ctx := context.Background()
	user, err := b.resolveUserArg(ctx, args[0])
	if err != nil || user == nil {
		return c.Send("User not found.")
	}
	if err := b.store.UnbanUser(ctx, user.ID); err != nil {
		b.log.Error("unban failed", zap.Error(err))
		return c.Send("Something went wrong. Please try again.")
	}
	b.auth.Invalidate()
	return c.Send(fmt.Sprintf("%s is unbanned.", displayName(user)))
}

func (b *Bot) handleAddChannel(c telebot.Context) error {
	if ok, err := b.requireAdmin(c); !ok {
		return err
	}
	args := c.Args()
	if len(args) < 3 {
		return c.Send("Usage: /addchannel <chat_id> <invite_link> <title...>")
	}
	chatID, link := args[0], args[1]
	title := strings.Join(args[2:], " ")
	if err := b.store.AddChannel(context.Background(), chatID, title, link); err != nil {
		b.log.Error("add channel failed", zap.Error(err))
		return c.Send("Something went wrong. Please try again.")
	}
	b.channels.Invalidate()
	return c.Send(fmt.Sprintf("Channel %q added to the subscription gate.", title))
}

func (b *Bot) handleDelChannel(c telebot.Context) error {
	if ok, err := b.requireAdmin(c); !ok {
		return err
	}
	args := c.Args()
	if len(args) != 1 {
		return c.Send("Usage: /delchannel <chat_id>")
	}
	if err := b.store.RemoveChannel(context.Background(), args[0]); err != nil {
		b.log.Error("remove channel failed", zap.Error(err))
		return c.Send("Something went wrong. Please try again.")
	}
	b.channels.Invalidate()
	return c.Send("Channel removed.")
}

func (b *Bot) handleAddPromo(c telebot.Context) error {
	if ok, err := b.requireAdmin(c); !ok {
		return err
	}
	args := c.Args()
	if len(args) != 3 {
		return c.Send("Usage: /addpromo <code> <reward> <max_uses>")
	}
	reward, err1 := strconv.ParseInt(args[1], 10, 64)
	maxUses, err2 := strconv.ParseInt(args[2], 10, 64)
	if err1 != nil || err2 != nil || reward <= 0 || maxUses <= 0 {
		return c.Send("Reward and max uses must be positive integers.")
	}
	code := strings.ToUpper(strings.TrimSpace(args[0]))
	if err := b.store.CreatePromoCode(context.Background(), code, reward, maxUses); err != nil {
		b.log.Error("create promo failed", zap.Error(err))
		return c.Send("Something went wrong. Please try again.")
	}
	return c.Send(fmt.Sprintf("Promo %s created: %d coins, %d uses.", code, reward, maxUses))
}

// handlePurchases shows admins the pending fulfillment queue and everyone
// else their own order history.
func (b *Bot) handlePurchases(c telebot.Context) error {
	ctx := context.Background()
	isAdmin, err := b.auth.IsAdmin(ctx, c.Sender().ID)
	if err != nil {
		b.log.Error("admin check failed", zap.Error(err))
		return c.Send("Something went wrong. Please try again.")
	}
	if isAdmin {
		purchases, err := b.store.ListPendingPurchases(ctx)
		if err != nil {
			b.log.Error("list purchases failed", zap.Error(err))
			return c.Send("Something went wrong. Please try again.")
		}
		if len(purchases) == 0 {
			return c.Send("No pending purchases. 🎉")
		}
		var sb strings.Builder
		sb.WriteString("🛒 Pending purchases\n\n")
		for _, p := range purchases {
			fmt.Fprintf(&sb, "#%d user %d item %d — %s\n",
				p.ID, p.UserID, p.ItemID, p.PurchasedAt.Format("Jan 2 15:04"))
		}
		sb.WriteString("\nUse /fulfill <id> [comment] or /reject <id> [comment].")
		return c.Send(sb.String())
	}

	purchases, err := b.store.ListPurchases(ctx, c.Sender().ID)
	if err != nil {
		b.log.Error("list purchases failed", zap.Error(err))
		return c.Send("Something went wrong. Please try again.")
	}
	return c.Send(purchaseHistoryMessage(purchases, func(itemID int64) string {
		item, err := b.store.GetItem(ctx, itemID)
		if err != nil || item == nil {
			return fmt.Sprintf("item %d", itemID)
		}
		return item.Name
	}))
}

// purchaseHistoryMessage renders a user's order history. itemName resolves an
// item id to its display name.
func purchaseHistoryMessage(purchases []storage.Purchase, itemName func(int64) string) string {
	if len(purchases) == 0 {
		return "You haven't bought anything yet. Visit the /shop."
	}
	var sb strings.Builder
	sb.WriteString("🧾 Your purchases\n\n")
	for _, p := range purchases {
		fmt.Fprintf(&sb, "• %s — %s, %s", itemName(p.ItemID),
			p.PurchasedAt.Format("Jan 2"), statusLabel(p.Status))
		if p.AdminComment != "" {
			fmt.Fprintf(&sb, " (%s)", p.AdminComment)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func statusLabel(status string) string {
	switch status {
	case "pending":
		return "⏳ pending"
	case "completed":
		return "✅ delivered"
	case "rejected":
		return "❌ rejected"
	default:
		return status
	}
}

func (b *Bot) handlePromos(c telebot.Context) error {
	if ok, err := b.requireAdmin(c); !ok {
		return err
	}
	codes, err := b.store.ListPromoCodes(context.Background())
	if err != nil {
		b.log.Error("list promos failed", zap.Error(err))
		return c.Send("Something went wrong. Please try again.")
	}
	if len(codes) == 0 {
		return c.Send("No promo codes yet. Use /addpromo to create one.")
	}
	var sb strings.Builder
	sb.WriteString("🎟 Promo codes\n\n")
	for _, p := range codes {
		fmt.Fprintf(&sb, "%s — %d coins, %d/%d used\n", p.Code, p.Reward, p.UsedCount, p.MaxUses)
	}
	return c.Send(sb.String())
}

func (b *Bot) handleFulfill(c telebot.Context) error {
	return b.closePurchase(c, "completed")
}

func (b *Bot) handleReject(c telebot.Context) error {
	return b.closePurchase(c, "rejected")
}

func (b *Bot) closePurchase(c telebot.Context, status string) error {
	if ok, err := b.requireAdmin(c); !ok {
		return err
	}
	args := c.Args()
	if len(args) < 1 {
		return c.Send("Usage: /fulfill <purchase_id> [comment] or /reject <purchase_id> [comment]")
	}
	purchaseID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Send("Purchase id must be a number.")
	}
	comment := strings.Join(args[1:], " ")
	if err := b.store.SetPurchaseStatus(context.Background(), purchaseID, status, comment); err != nil {
		return c.Send("Purchase not found.")
	}
	return c.Send(fmt.Sprintf("Purchase #%d marked %s.", purchaseID, status))
}
