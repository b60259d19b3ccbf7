package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"gopkg.in/telebot.v3"
)

type sentMessage struct {
	recipient string
	text      string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
	ch   chan sentMessage
}

func newFakeSender() *fakeSender {
	return &fakeSender{ch: make(chan sentMessage, 8)}
}

func (f *fakeSender) Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := sentMessage{recipient: to.Recipient(), text: what.(string)}
	f.sent = append(f.sent, msg)
	f.ch <- msg
	return &telebot.Message{}, f.err
}

func (f *fakeSender) wait(t *testing.T) sentMessage {
	t.Helper()
	select {
	case msg := <-f.ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for a notification")
		return sentMessage{}
	}
}

type fakeAdmins struct {
	ids []int64
	err error
}

func (f *fakeAdmins) AdminIDs(ctx context.Context) ([]int64, error) {
	return f.ids, f.err
}

func TestTheftSucceededNotifiesVictim(t *testing.T) {
	sender := newFakeSender()
	svc := NewNotificationService(sender, &fakeAdmins{}, nil)

	svc.TheftSucceeded(42, 7, 3)

	msg := sender.wait(t)
	if msg.recipient != "42" {
		t.Errorf("Expected the victim to be notified, got recipient %s", msg.recipient)
	}
	if !strings.Contains(msg.text, "3 coins") {
		t.Errorf("Expected the amount in the message, got %q", msg.text)
	}
}

func TestTrapTriggeredNotifiesOwner(t *testing.T) {
	sender := newFakeSender()
	svc := NewNotificationService(sender, &fakeAdmins{}, nil)

	svc.TrapTriggered(42, 7, 0)
	msg := sender.wait(t)
	if msg.recipient != "42" {
		t.Errorf("Expected the trap owner to be notified, got recipient %s", msg.recipient)
	}
	if strings.Contains(msg.text, "coins") {
		t.Errorf("Expected no amount for a zero payment, got %q", msg.text)
	}

	svc.TrapTriggered(42, 7, 5)
	msg = sender.wait(t)
	if !strings.Contains(msg.text, "5 coins") {
		t.Errorf("Expected the payment in the message, got %q", msg.text)
	}
}

func TestGiftPurchasedNotifiesAllAdmins(t *testing.T) {
	sender := newFakeSender()
	svc := NewNotificationService(sender, &fakeAdmins{ids: []int64{1, 2}}, nil)

	svc.GiftPurchased(42, "Teddy Bear", 50)

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		msg := sender.wait(t)
		got[msg.recipient] = true
		if !strings.Contains(msg.text, "Teddy Bear") {
			t.Errorf("Expected the item name, got %q", msg.text)
		}
	}
	if !got["1"] || !got["2"] {
		t.Errorf("Expected both admins notified, got %v", got)
	}
}

func TestSendFailuresAreSwallowed(t *testing.T) {
	sender := newFakeSender()
	sender.err = errors.New("blocked by user")
	svc := NewNotificationService(sender, &fakeAdmins{}, nil)

	// Must not panic or block the caller.
	svc.TheftSucceeded(42, 7, 3)
	sender.wait(t)
}

func TestAdminLookupFailureDropsNotification(t *testing.T) {
	sender := newFakeSender()
	svc := NewNotificationService(sender, &fakeAdmins{err: errors.New("db down")}, nil)

	svc.GiftPurchased(42, "Teddy Bear", 50)

	select {
	case msg := <-sender.ch:
		t.Fatalf("Expected no send, got %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}
