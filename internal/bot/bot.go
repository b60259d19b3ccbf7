package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/telebot.v3"

	"coinheist/internal/auth"
	"coinheist/internal/economy"
	"coinheist/internal/storage"
)

// Bot wires the Telegram surface to the economy engine. Every handler runs
// behind the ban and channel-subscription gates.
type Bot struct {
	tele     *telebot.Bot
	store    *storage.Store
	engine   *economy.Engine
	auth     *auth.Checker
	dialogs  *dialogState
	channels *channelCache
	log      *zap.Logger
}

// New creates the bot and registers all handlers. It does not start polling.
func New(token string, store *storage.Store, engine *economy.Engine, checker *auth.Checker, log *zap.Logger) (*Bot, error) {
	if log == nil {
		log = zap.NewNop()
	}
	tele, err := telebot.NewBot(telebot.Settings{
		Token: token,
		Poller: &telebot.LongPoller{
			Timeout: 10 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		tele:     tele,
		store:    store,
		engine:   engine,
		auth:     checker,
		dialogs:  newDialogState(),
		channels: newChannelCache(store),
		log:      log,
	}
	b.register()
	return b, nil
}

// Telebot exposes the underlying client for outbound notifications.
func (b *Bot) Telebot() *telebot.Bot {
	return b.tele
}

// Start begins long polling. Blocks until Stop is called.
func (b *Bot) Start() {
	b.log.Info("bot started", zap.String("username", b.tele.Me.Username))
	b.tele.Start()
}

// Stop halts polling.
func (b *Bot) Stop() {
	b.tele.Stop()
}

func (b *Bot) register() {
	b.tele.Use(b.gate)

	b.tele.Handle("/start", b.handleStart)
	b.tele.Handle("/help", b.handleHelp)
	b.tele.Handle("/profile", b.handleProfile)
	b.tele.Handle("/top", b.handleTop)
	b.tele.Handle("/inventory", b.handleInventory)
	b.tele.Handle("/bonus", b.handleBonus)
	b.tele.Handle("/casino", b.handleCasino)
	b.tele.Handle("/steal", b.handleSteal)
	b.tele.Handle("/detective", b.handleDetective)
	b.tele.Handle("/shop", b.handleShop)
	b.tele.Handle("/promo", b.handlePromo)

	b.tele.Handle("/addcoins", b.handleAddCoins)
	b.tele.Handle("/addadmin", b.handleAddAdmin)
	b.tele.Handle("/deladmin", b.handleDelAdmin)
	b.tele.Handle("/ban", b.handleBan)
	b.tele.Handle("/unban", b.handleUnban)
	b.tele.Handle("/addchannel", b.handleAddChannel)
	b.tele.Handle("/delchannel", b.handleDelChannel)
	b.tele.Handle("/addpromo", b.handleAddPromo)
	b.tele.Handle("/promos", b.handlePromos)
	b.tele.Handle("/purchases", b.handlePurchases)
	b.tele.Handle("/fulfill", b.handleFulfill)
	b.tele.Handle("/reject", b.handleReject)

	b.tele.Handle(telebot.OnText, b.handleText)
	b.tele.Handle(telebot.OnCallback, b.handleCallback)
}

// gate is the per-update middleware: upserts the account, drops banned users
// and enforces channel subscriptions for non-admins.
func (b *Bot) gate(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}
		ctx := context.Background()

		banned, err := b.auth.IsBanned(ctx, sender.ID)
		if err != nil {
			b.log.Error("ban check failed", zap.Int64("user_id", sender.ID), zap.Error(err))
			return c.Send("Something went wrong. Please try again.")
		}
		if banned {
			return nil
		}

		if _, err := b.store.EnsureUser(ctx, sender.ID, sender.Username, sender.FirstName); err != nil {
			b.log.Error("user upsert failed", zap.Int64("user_id", sender.ID), zap.Error(err))
			return c.Send("Something went wrong. Please try again.")
		}

		ok, err := b.subscribed(ctx, c, sender.ID)
		if err != nil {
			b.log.Warn("subscription check failed", zap.Int64("user_id", sender.ID), zap.Error(err))
		} else if !ok {
			return nil
		}

		return next(c)
	}
}

// subscribed checks required channel membership. Admins bypass the gate; on
// failure the user gets the invite links and false is returned.
func (b *Bot) subscribed(ctx context.Context, c telebot.Context, userID int64) (bool, error) {
	channels, err := b.channels.List(ctx)
	if err != nil {
		return false, err
	}
	if len(channels) == 0 {
		return true, nil
	}
	if isAdmin, err := b.auth.IsAdmin(ctx, userID); err == nil && isAdmin {
		return true, nil
	}

	var missing []storage.Channel
	for _, ch := range channels {
		chat, err := b.tele.ChatByUsername(ch.ChatID)
		if err != nil {
			continue
		}
		member, err := b.tele.ChatMemberOf(chat, &telebot.User{ID: userID})
		if err != nil {
			missing = append(missing, ch)
			continue
		}
		switch member.Role {
		case telebot.Creator, telebot.Administrator, telebot.Member:
		default:
			missing = append(missing, ch)
		}
	}
	if len(missing) == 0 {
		return true, nil
	}

	var sb strings.Builder
	sb.WriteString("🔒 Subscribe to the required channels first:\n\n")
	for _, ch := range missing {
		fmt.Fprintf(&sb, "• %s\n%s\n", ch.Title, ch.InviteLink)
	}
	return false, c.Send(sb.String())
}

func (b *Bot) handleStart(c telebot.Context) error {
	b.dialogs.Set(c.Sender().ID, dialogNone)
	user, err := b.engine.Profile(context.Background(), c.Sender().ID)
	if err != nil {
		return b.replyError(c, err)
	}
	msg := fmt.Sprintf("Welcome to the heist, %s! 💰\n\n"+
		"You have %d coins. Steal from others, gamble them away or spend them in the shop.\n\n"+
		"Use /help to see what you can do.",
		displayName(user), user.Balance)
	return c.Send(msg)
}

func (b *Bot) handleHelp(c telebot.Context) error {
	b.dialogs.Set(c.Sender().ID, dialogNone)
	help := "📚 *Commands*\n\n" +
		"/profile - Your balance and theft record\n" +
		"/top - Richest players leaderboard\n" +
		"/bonus - Claim your daily coins\n" +
		"/casino - Bet coins at 30% odds, double or nothing\n" +
		"/steal - Rob another player (reply to them or pass @username)\n" +
		"/detective - Find out who robbed you last\n" +
		"/shop - Buy tools, protection, traps and gifts\n" +
		"/inventory - What you own\n" +
		"/purchases - Your order history\n" +
		"/promo - Redeem a promo code"
	return c.Send(help, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
}

func (b *Bot) handleProfile(c telebot.Context) error {
	b.dialogs.Set(c.Sender().ID, dialogNone)
	user, err := b.engine.Profile(context.Background(), c.Sender().ID)
	if err != nil {
		return b.replyError(c, err)
	}
	msg := fmt.Sprintf("👤 *%s*\n\n"+
		"💰 Balance: %d coins\n"+
		"🔫 Thefts: %d attempted, %d successful, %d failed\n"+
		"🛡 Times defended: %d",
		displayName(user), user.Balance,
		user.TheftAttempts, user.TheftSuccess, user.TheftFailed,
		user.TheftProtected)
	return c.Send(msg, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
}

func (b *Bot) handleTop(c telebot.Context) error {
	b.dialogs.Set(c.Sender().ID, dialogNone)
	users, err := b.store.TopUsers(context.Background(), 10)
	if err != nil {
		b.log.Error("top query failed", zap.Error(err))
		return c.Send("Something went wrong. Please try again.")
	}
	if len(users) == 0 {
		return c.Send("Nobody here yet.")
	}
	var sb strings.Builder
	sb.WriteString("🏆 Richest players\n\n")
	for i, u := range users {
		fmt.Fprintf(&sb, "%d. %s — %d coins\n", i+1, displayName(&u), u.Balance)
	}
	return c.Send(sb.String())
}

func (b *Bot) handleInventory(c telebot.Context) error {
	b.dialogs.Set(c.Sender().ID, dialogNone)
	items, err := b.engine.InventoryOf(context.Background(), c.Sender().ID)
	if err != nil {
		return b.replyError(c, err)
	}
	if len(items) == 0 {
		return c.Send("🎒 Your inventory is empty. Visit the /shop.")
	}
	var sb strings.Builder
	sb.WriteString("🎒 Your inventory\n\n")
	for _, it := range items {
		if it.UsesLeft > 0 {
			fmt.Fprintf(&sb, "• %s — %d charges\n", it.Name, it.UsesLeft)
		} else {
			fmt.Fprintf(&sb, "• %s ×%d\n", it.Name, it.Quantity)
		}
	}
	return c.Send(sb.String())
}

// handleText routes free-text replies to whichever prompt is pending.
func (b *Bot) handleText(c telebot.Context) error {
	switch b.dialogs.Take(c.Sender().ID) {
	case dialogBetAmount:
		return b.resolveBet(c, c.Text())
	case dialogPromoCode:
		return b.resolvePromo(c, c.Text())
	case dialogStealTarget:
		return b.resolveStealByName(c, c.Text())
	default:
		return nil
	}
}

// replyError maps engine errors to user-facing messages. Unknown errors are
// logged and answered generically.
func (b *Bot) replyError(c telebot.Context, err error) error {
	var rl *economy.RateLimitedError
	var cooldown *economy.BonusCooldownError
	switch {
	case errors.Is(err, economy.ErrInvalidTarget):
		return c.Send("🤨 You can't rob that one. Pick a real player who isn't you.")
	case errors.Is(err, economy.ErrMissingTool):
		return c.Send("🔧 You need a crowbar from the /shop before you can rob anyone.")
	case errors.Is(err, economy.ErrNothingToSteal):
		return c.Send("🪙 They're broke. Nothing to take.")
	case errors.Is(err, economy.ErrInsufficientFunds):
		return c.Send("💸 Not enough coins.")
	case errors.Is(err, economy.ErrInvalidBet):
		return c.Send("🎲 The bet must be a positive number of coins.")
	case errors.Is(err, economy.ErrOutOfStock):
		return c.Send("📦 Sold out. Come back later.")
	case errors.Is(err, economy.ErrPromoExhausted):
		return c.Send("🎟 That code has been fully redeemed.")
	case errors.Is(err, economy.ErrNotFound):
		return c.Send("🔍 Nothing found by that name.")
	case errors.As(err, &rl):
		if rl.Reason == economy.AttemptsExceeded {
			return c.Send("🚓 You've pushed your luck with them enough for today. Try tomorrow.")
		}
		return c.Send("🚓 You've taken all you can from them today. Try tomorrow.")
	case errors.As(err, &cooldown):
		d := time.Duration(cooldown.RemainingSeconds) * time.Second
		return c.Send(fmt.Sprintf("⏳ Bonus already claimed. Come back in %s.", d.Round(time.Minute)))
	case errors.Is(err, economy.ErrConflict):
		return c.Send("⚡ Too much going on right now. Try again in a moment.")
	default:
		b.log.Error("handler failed", zap.Int64("user_id", c.Sender().ID), zap.Error(err))
		return c.Send("Something went wrong. Please try again.")
	}
}

func displayName(u *storage.User) string {
	if u.Username != "" {
		return "@" + u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return fmt.Sprintf("player %d", u.ID)
}
