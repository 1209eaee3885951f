package messenger

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookHandler handles Messenger webhook verification and inbound events.
type WebhookHandler struct {
	verifyToken string
	appSecret   string
	onEvent     func(ev InboundEvent)
}

// NewWebhookHandler creates a new webhook handler. onEvent is called for
// each parsed inbound message, quick reply or postback.
func NewWebhookHandler(verifyToken, appSecret string, onEvent func(InboundEvent)) *WebhookHandler {
	return &WebhookHandler{
		verifyToken: verifyToken,
		appSecret:   appSecret,
		onEvent:     onEvent,
	}
}

// HandleVerification handles the GET webhook verification challenge from Meta.
func (h *WebhookHandler) HandleVerification(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, challenge)
		return
	}

	http.Error(w, "Forbidden", http.StatusForbidden)
}

// HandleInbound handles POST webhook events.
func (h *WebhookHandler) HandleInbound(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("X-Hub-Signature-256")
	if !VerifySignature(h.appSecret, body, signature) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	// Must respond 200 quickly to avoid Meta retries.
	w.WriteHeader(http.StatusOK)

	for _, ev := range ParseWebhookEvent(event) {
		if h.onEvent != nil {
			h.onEvent(ev)
		}
	}
}

// ParseWebhookEvent extracts InboundEvents from a webhook event. Echoes of
// the page's own messages are skipped. A quick-reply tap arrives as a
// message carrying both text and a payload; the payload wins.
func ParseWebhookEvent(event WebhookEvent) []InboundEvent {
	var events []InboundEvent

	for _, entry := range event.Entry {
		for _, m := range entry.Messaging {
			ev := InboundEvent{
				SenderID:  m.Sender.ID,
				Timestamp: time.UnixMilli(m.Timestamp),
			}

			switch {
			case m.Message != nil && m.Message.IsEcho:
				continue
			case m.Message != nil && m.Message.QuickReply != nil:
				ev.Payload = m.Message.QuickReply.Payload
				ev.MessageID = m.Message.MID
			case m.Message != nil:
				ev.Text = m.Message.Text
				ev.MessageID = m.Message.MID
			case m.Postback != nil:
				ev.Payload = m.Postback.Payload
			default:
				continue
			}

			events = append(events, ev)
		}
	}

	return events
}

// VerifySignature verifies the X-Hub-Signature-256 header.
func VerifySignature(appSecret string, body []byte, signature string) bool {
	if appSecret == "" || signature == "" {
		return false
	}

	// Signature format: "sha256=<hex>"
	const prefix = "sha256="
	if len(signature) <= len(prefix) {
		return false
	}
	sigHex := signature[len(prefix):]

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(sigHex))
}
