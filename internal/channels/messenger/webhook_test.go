package messenger

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	secret := "test_app_secret"
	body := []byte(`{"object":"page","entry":[]}`)
	validSig := sign(secret, body)

	tests := []struct {
		name      string
		secret    string
		body      []byte
		signature string
		want      bool
	}{
		{"valid signature", secret, body, validSig, true},
		{"wrong signature", secret, body, "sha256=0000000000000000000000000000000000000000000000000000000000000000", false},
		{"empty signature", secret, body, "", false},
		{"empty secret", "", body, validSig, false},
		{"missing prefix", secret, body, "abcdef", false},
		{"tampered body", secret, []byte(`tampered`), validSig, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VerifySignature(tt.secret, tt.body, tt.signature)
			if got != tt.want {
				t.Errorf("VerifySignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHandleVerification(t *testing.T) {
	h := NewWebhookHandler("my_verify_token", "secret", nil)

	t.Run("valid challenge", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/api/messenger/webhook?hub.mode=subscribe&hub.verify_token=my_verify_token&hub.challenge=CHALLENGE_123",
			nil)
		w := httptest.NewRecorder()
		h.HandleVerification(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if w.Body.String() != "CHALLENGE_123" {
			t.Errorf("challenge echo = %q", w.Body.String())
		}
	})

	t.Run("wrong token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/api/messenger/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=CHALLENGE_123",
			nil)
		w := httptest.NewRecorder()
		h.HandleVerification(w, req)

		if w.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", w.Code)
		}
	})
}

func TestHandleInbound(t *testing.T) {
	secret := "app_secret"

	event := WebhookEvent{
		Object: "page",
		Entry: []Entry{{
			ID:   "page_1",
			Time: 1700000000000,
			Messaging: []Messaging{
				{
					Sender:    Sender{ID: "user_1"},
					Timestamp: 1700000000000,
					Message:   &Message{MID: "m1", Text: "hello"},
				},
				{
					Sender:  Sender{ID: "user_1"},
					Message: &Message{MID: "m2", Text: "June 2025", QuickReply: &QuickReplyInfo{Payload: "month:2025-06"}},
				},
				{
					Sender:   Sender{ID: "user_2"},
					Postback: &Postback{Title: "Book", Payload: "BOOK_START"},
				},
				{
					Sender:  Sender{ID: "page_1"},
					Message: &Message{MID: "m3", Text: "outbound echo", IsEcho: true},
				},
			},
		}},
	}
	body, _ := json.Marshal(event)

	var got []InboundEvent
	h := NewWebhookHandler("verify", secret, func(ev InboundEvent) {
		got = append(got, ev)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/messenger/webhook", bytes.NewReader(body))
	req.Header.Set("X-Hub-Signature-256", sign(secret, body))
	w := httptest.NewRecorder()
	h.HandleInbound(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 events (echo skipped), got %d: %+v", len(got), got)
	}
	if got[0].Text != "hello" || got[0].IsPayload() {
		t.Errorf("first event = %+v, want plain text", got[0])
	}
	if got[1].Payload != "month:2025-06" || !got[1].IsPayload() {
		t.Errorf("second event = %+v, want quick-reply payload", got[1])
	}
	if got[2].Payload != "BOOK_START" {
		t.Errorf("third event = %+v, want postback payload", got[2])
	}
}

func TestHandleInboundRejectsBadSignature(t *testing.T) {
	body := []byte(`{"object":"page","entry":[]}`)
	called := false
	h := NewWebhookHandler("verify", "app_secret", func(InboundEvent) { called = true })

	req := httptest.NewRequest(http.MethodPost, "/api/messenger/webhook", bytes.NewReader(body))
	req.Header.Set("X-Hub-Signature-256", "sha256=deadbeef")
	w := httptest.NewRecorder()
	h.HandleInbound(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if called {
		t.Fatal("handler must not run for a bad signature")
	}
}
