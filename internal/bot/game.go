package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/telebot.v3"

	"coinheist/internal/economy"
)

func (b *Bot) handleBonus(c telebot.Context) error {
	b.dialogs.Set(c.Sender().ID, dialogNone)
	outcome, err := b.engine.ClaimBonus(context.Background(), c.Sender().ID)
	if err != nil {
		return b.replyError(c, err)
	}
	return c.Send(fmt.Sprintf("🎁 Daily bonus: +%d coins. You now have %d.",
		outcome.Amount, outcome.Balance))
}

func (b *Bot) handleCasino(c telebot.Context) error {
	userID := c.Sender().ID
	args := c.Args()
	if len(args) == 0 {
		b.dialogs.Set(userID, dialogBetAmount)
		return c.Send("🎰 How many coins do you want to bet? Win doubles your stake.")
	}
	b.dialogs.Set(userID, dialogNone)
	return b.resolveBet(c, args[0])
}

func (b *Bot) resolveBet(c telebot.Context, raw string) error {
	amount, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return b.replyError(c, economy.ErrInvalidBet)
	}
	outcome, err := b.engine.PlaceBet(context.Background(), c.Sender().ID, amount)
	if err != nil {
		return b.replyError(c, err)
	}
	if outcome.Won {
		return c.Send(fmt.Sprintf("🎉 You won! Payout %d coins. Balance: %d.",
			outcome.Payout, outcome.Balance))
	}
	return c.Send(fmt.Sprintf("😢 The house wins. You lost %d coins. Balance: %d.",
		outcome.Amount, outcome.Balance))
}

func (b *Bot) handleSteal(c telebot.Context) error {
	userID := c.Sender().ID
	b.dialogs.Set(userID, dialogNone)

	// Reply-to form first, then @username argument, then prompt.
	if msg := c.Message(); msg != nil && msg.ReplyTo != nil && msg.ReplyTo.Sender != nil {
		return b.steal(c, msg.ReplyTo.Sender.ID)
	}
	if args := c.Args(); len(args) > 0 {
		return b.resolveStealByName(c, args[0])
	}
	b.dialogs.Set(userID, dialogStealTarget)
	return c.Send("🔫 Who are you robbing? Send their @username.")
}

func (b *Bot) resolveStealByName(c telebot.Context, raw string) error {
	name := strings.TrimPrefix(strings.TrimSpace(raw), "@")
	if name == "" {
		return b.replyError(c, economy.ErrInvalidTarget)
	}
	target, err := b.store.GetUserByName(context.Background(), name)
	if err != nil {
		return b.replyError(c, &economy.PersistenceError{Err: err})
	}
	if target == nil {
		return b.replyError(c, economy.ErrInvalidTarget)
	}
	return b.steal(c, target.ID)
}

func (b *Bot) steal(c telebot.Context, targetID int64) error {
	outcome, err := b.engine.ResolveTheft(context.Background(), c.Sender().ID, targetID)
	if err != nil {
		return b.replyError(c, err)
	}
	switch outcome.Result {
	case economy.TrapTriggered:
		if outcome.Amount > 0 {
			return c.Send(fmt.Sprintf("💥 A trap! You set it off and paid %d coins to its owner.", outcome.Amount))
		}
		return c.Send("💥 A trap! It snapped shut but your pockets were already empty.")
	case economy.TheftSucceeded:
		if outcome.Amount == 0 {
			return c.Send("🔫 You got in clean, but couldn't carry any more loot today.")
		}
		return c.Send(fmt.Sprintf("🔫 Clean job! You made off with %d coins.", outcome.Amount))
	default:
		if outcome.Protected {
			return c.Send("🛡 They were protected. You slipped away with nothing.")
		}
		return c.Send("🚨 Busted! You fumbled the job and fled empty-handed.")
	}
}

func (b *Bot) handleDetective(c telebot.Context) error {
	b.dialogs.Set(c.Sender().ID, dialogNone)
	record, err := b.engine.UseDetective(context.Background(), c.Sender().ID)
	if err != nil {
		if err == economy.ErrMissingTool {
			return c.Send("🕵️ You need to hire a detective from the /shop first.")
		}
		return b.replyError(c, err)
	}
	if record == nil {
		return c.Send("🕵️ The detective found nothing. Nobody has robbed you.")
	}
	robber, err := b.store.GetUser(context.Background(), record.RobberID)
	if err != nil || robber == nil {
		return c.Send(fmt.Sprintf("🕵️ The trail leads to player %d. They took %d coins.",
			record.RobberID, record.Amount))
	}
	return c.Send(fmt.Sprintf("🕵️ It was %s! They took %d coins on %s.",
		displayName(robber), record.Amount, record.StolenAt.Format("Jan 2")))
}
