package notifications

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeNotifier struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (f *fakeNotifier) SendConfirmationCode(ctx context.Context, in SendConfirmationCodeInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func TestProtectedNotifier_OpensAfterThreshold(t *testing.T) {
	inner := &fakeNotifier{err: errors.New("smtp down")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{
		FailureThreshold: 2,
		Cooldown:         time.Hour,
	})

	in := SendConfirmationCodeInput{Email: "a@example.com", Code: "c"}

	for i := 0; i < 2; i++ {
		if err := n.SendConfirmationCode(context.Background(), in); err == nil {
			t.Fatalf("call %d: expected inner error", i)
		}
	}

	if got := n.State(); got != "open" {
		t.Fatalf("expected open, got %s", got)
	}

	err := n.SendConfirmationCode(context.Background(), in)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("expected inner to be skipped while open, calls=%d", inner.calls)
	}
}

func TestProtectedNotifier_HalfOpenRecovers(t *testing.T) {
	inner := &fakeNotifier{err: errors.New("smtp down")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{
		FailureThreshold: 1,
		Cooldown:         10 * time.Millisecond,
	})

	in := SendConfirmationCodeInput{Email: "a@example.com", Code: "c"}
	_ = n.SendConfirmationCode(context.Background(), in)

	time.Sleep(20 * time.Millisecond)

	inner.mu.Lock()
	inner.err = nil
	inner.mu.Unlock()

	if err := n.SendConfirmationCode(context.Background(), in); err != nil {
		t.Fatalf("trial call should pass, got %v", err)
	}
	if got := n.State(); got != "closed" {
		t.Fatalf("expected closed, got %s", got)
	}
}

func TestSMTPNotifier_BuildsMessage(t *testing.T) {
	n := NewSMTPNotifier("mail.local", "1025", "noreply@reviewhub.local")

	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	n.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	err := n.SendConfirmationCode(context.Background(), SendConfirmationCodeInput{
		Email: "reader@example.com", Username: "reader", Code: "abc-123",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAddr != "mail.local:1025" {
		t.Fatalf("addr = %q", gotAddr)
	}
	if len(gotTo) != 1 || gotTo[0] != "reader@example.com" {
		t.Fatalf("to = %v", gotTo)
	}
	if !strings.Contains(gotMsg, "abc-123") || !strings.Contains(gotMsg, "To: reader@example.com") {
		t.Fatalf("message missing code or recipient:\n%s", gotMsg)
	}
}
