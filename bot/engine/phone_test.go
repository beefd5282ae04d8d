package engine

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/telestar/shopbot/store"
)

// startPhoneFlow brings chat 42 to pending WaitingForPhone.
func startPhoneFlow(t *testing.T, e *Engine, tx *memTx) *store.ChatSession {
	t.Helper()
	mustHandle(t, e, textUpdate(42, "/start"))
	mustHandle(t, e, callbackUpdate(42, 1, "accepted_terms"))
	mustHandle(t, e, callbackUpdate(42, 2, "buy_product_version:7"))
	chat, _ := tx.ChatByChatID(context.Background(), 42)
	if chat.PendingAction != store.PendingPhone {
		t.Fatalf("pending action = %q, want waiting for phone", chat.PendingAction)
	}
	return chat
}

func TestPhoneAttemptCounter(t *testing.T) {
	e, tx := newTestEngine(t)
	seedShop(tx)
	chat := startPhoneFlow(t, e, tx)

	env := mustHandle(t, e, textUpdate(42, "not a phone"))
	if msg := asAppend(t, env); !strings.Contains(msg.Text, "invalid") {
		t.Errorf("first failure text = %q", msg.Text)
	}
	if chat.PhoneAttempts != 1 {
		t.Errorf("attempts after first failure = %d, want 1", chat.PhoneAttempts)
	}

	env = mustHandle(t, e, textUpdate(42, "12345"))
	if msg := asAppend(t, env); !strings.Contains(msg.Text, "invalid") {
		t.Errorf("second failure text = %q", msg.Text)
	}
	if chat.PhoneAttempts != 2 {
		t.Errorf("attempts after second failure = %d, want 2", chat.PhoneAttempts)
	}

	env = mustHandle(t, e, textUpdate(42, "still wrong"))
	if msg := asAppend(t, env); !strings.Contains(msg.Text, "too many failed attempts") {
		t.Errorf("third failure text = %q", msg.Text)
	}
	if chat.PhoneAttempts != 0 {
		t.Errorf("attempts after threshold = %d, want reset to 0", chat.PhoneAttempts)
	}
	if chat.PendingAction != store.PendingNone {
		t.Errorf("pending action = %q, want cleared", chat.PendingAction)
	}
}

func TestPhoneFormat(t *testing.T) {
	for _, tt := range []struct {
		phone string
		valid bool
	}{
		{"09123456789", true},
		{"09000000000", true},
		{"0912345678", false},   // too short
		{"091234567890", false}, // too long
		{"9123456789", false},   // missing leading zero
		{"08123456789", false},  // wrong prefix
		{"0912345678a", false},
	} {
		if got := phonePattern.MatchString(tt.phone); got != tt.valid {
			t.Errorf("phonePattern(%q) = %v, want %v", tt.phone, got, tt.valid)
		}
	}
}

func TestValidPhoneStartsOTP(t *testing.T) {
	e, tx := newTestEngine(t)
	seedShop(tx)
	chat := startPhoneFlow(t, e, tx)

	env := mustHandle(t, e, textUpdate(42, "09123456789"))
	if msg := asAppend(t, env); !strings.Contains(msg.Text, "verification code sent") {
		t.Errorf("text = %q, want the code prompt", msg.Text)
	}
	if chat.PendingAction != store.PendingOTP {
		t.Errorf("pending action = %q, want waiting for code", chat.PendingAction)
	}
	identity := tx.identities[chat.UserID]
	if !identity.PhoneNumber.Valid || identity.PhoneNumber.String != "09123456789" {
		t.Errorf("identity phone = %+v, want attached number", identity.PhoneNumber)
	}
	if identity.PhoneNumberValidated {
		t.Error("phone validated before the code was entered")
	}
}

func TestPhoneOwnedByAnotherIdentity(t *testing.T) {
	e, tx := newTestEngine(t)
	seedShop(tx)
	chat := startPhoneFlow(t, e, tx)

	owner, _ := tx.CreateIdentity(context.Background())
	owner.PhoneNumber = sql.NullString{String: "09123456789", Valid: true}
	owner.PhoneNumberValidated = true

	env := mustHandle(t, e, textUpdate(42, "09123456789"))
	msg := asAppend(t, env)
	if !strings.Contains(msg.Text, "account with 09123456789 exists") {
		t.Errorf("text = %q, want the login offer", msg.Text)
	}
	if chat.PendingAction != store.PendingNone {
		t.Errorf("pending action = %q, want cleared", chat.PendingAction)
	}
	if chat.UserID == owner.ID {
		t.Error("chat silently reassigned to the phone owner")
	}
	if msg.Keyboard[0][0].CallbackData != "login_to_account:09123456789" {
		t.Errorf("login button = %+v", msg.Keyboard[0][0])
	}
}

func TestLoginToAccountReassignsChat(t *testing.T) {
	e, tx := newTestEngine(t)
	seedShop(tx)
	chat := startPhoneFlow(t, e, tx)

	owner, _ := tx.CreateIdentity(context.Background())
	owner.PhoneNumber = sql.NullString{String: "09123456789", Valid: true}
	owner.PhoneNumberValidated = true

	mustHandle(t, e, textUpdate(42, "09123456789"))
	env := mustHandle(t, e, callbackUpdate(42, 3, "login_to_account:09123456789"))

	if chat.UserID != owner.ID {
		t.Errorf("chat user = %d, want reassigned to %d", chat.UserID, owner.ID)
	}
	if chat.ChatVerified {
		t.Error("reassigned chat kept its verification")
	}
	// The gate immediately asks this chat to prove the phone.
	if msg := asAppend(t, env); !strings.Contains(msg.Text, "prove chat ownership") {
		t.Errorf("text = %q, want chat verification needed", msg.Text)
	}
}

func TestOTPAttemptCounter(t *testing.T) {
	e, tx := newTestEngine(t)
	seedShop(tx)
	chat := startPhoneFlow(t, e, tx)
	mustHandle(t, e, textUpdate(42, "09123456789"))

	mustHandle(t, e, textUpdate(42, "0000"))
	if chat.OTPAttempts != 1 {
		t.Errorf("attempts after first failure = %d, want 1", chat.OTPAttempts)
	}
	mustHandle(t, e, textUpdate(42, "9999"))
	if chat.OTPAttempts != 2 {
		t.Errorf("attempts after second failure = %d, want 2", chat.OTPAttempts)
	}

	env := mustHandle(t, e, textUpdate(42, "4321"))
	if msg := asAppend(t, env); !strings.Contains(msg.Text, "too many failed attempts") {
		t.Errorf("third failure text = %q", msg.Text)
	}
	if chat.OTPAttempts != 0 || chat.PendingAction != store.PendingNone {
		t.Errorf("after threshold: attempts=%d pending=%q, want reset and cleared",
			chat.OTPAttempts, chat.PendingAction)
	}
	if chat.ChatVerified {
		t.Error("chat verified despite failed codes")
	}
}

func TestOTPSuccessVerifies(t *testing.T) {
	e, tx := newTestEngine(t)
	seedShop(tx)
	chat := startPhoneFlow(t, e, tx)
	mustHandle(t, e, textUpdate(42, "09123456789"))

	env := mustHandle(t, e, textUpdate(42, "1111"))
	if msg := asAppend(t, env); !strings.Contains(msg.Text, "phone number verified") {
		t.Errorf("text = %q, want the success response", msg.Text)
	}
	if !chat.ChatVerified {
		t.Error("chat not verified")
	}
	if chat.PendingAction != store.PendingNone || chat.OTPAttempts != 0 {
		t.Errorf("pending=%q attempts=%d, want cleared state", chat.PendingAction, chat.OTPAttempts)
	}
	if !tx.identities[chat.UserID].PhoneNumberValidated {
		t.Error("identity phone not marked validated")
	}
}
