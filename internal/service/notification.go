package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/telebot.v3"
)

// Sender is the outbound message surface of the Telegram bot. *telebot.Bot
// satisfies it.
type Sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// AdminSource yields the admin ids that receive purchase notifications.
type AdminSource interface {
	AdminIDs(ctx context.Context) ([]int64, error)
}

// NotificationService delivers best-effort messages after a settlement
// commits. Every delivery runs on its own goroutine off the critical path;
// failures are logged and dropped, never retried.
type NotificationService struct {
	sender Sender
	admins AdminSource
	mu     sync.Mutex
	log    *zap.Logger
}

// NewNotificationService creates a notification service.
func NewNotificationService(sender Sender, admins AdminSource, log *zap.Logger) *NotificationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &NotificationService{sender: sender, admins: admins, log: log}
}

func (s *NotificationService) send(userID int64, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.sender.Send(&telebot.User{ID: userID}, text); err != nil {
		s.log.Debug("notification dropped",
			zap.Int64("user_id", userID),
			zap.Error(err))
	}
}

// TheftSucceeded tells the victim they were robbed.
func (s *NotificationService) TheftSucceeded(victimID, robberID, amount int64) {
	go s.send(victimID, fmt.Sprintf("🔫 You've been robbed! Someone made off with %d coins.", amount))
}

// TrapTriggered tells the trap owner their trap fired.
func (s *NotificationService) TrapTriggered(ownerID, attackerID, amount int64) {
	text := "⚡ Your trap went off! A burglar walked away empty-handed."
	if amount > 0 {
		text = fmt.Sprintf("⚡ Your trap went off! The burglar paid you %d coins for the trouble.", amount)
	}
	go s.send(ownerID, text)
}

// GiftPurchased tells every admin a gift needs fulfillment.
func (s *NotificationService) GiftPurchased(userID int64, itemName string, price int64) {
	go func() {
		admins, err := s.admins.AdminIDs(context.Background())
		if err != nil {
			s.log.Debug("purchase notification dropped", zap.Error(err))
			return
		}
		text := fmt.Sprintf("🛒 New purchase: user %d bought %s for %d coins. Fulfillment pending.",
			userID, itemName, price)
		for _, adminID := range admins {
			s.send(adminID, text)
		}
	}()
}
