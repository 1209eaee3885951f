package messenger

import (
	"context"
	"net/http"

	"github.com/chirostrong/booking-bot/internal/conversation"
	"github.com/chirostrong/booking-bot/pkg/logging"
)

// Adapter binds the Messenger channel to the conversation engine. Inbound
// webhook events are routed to the engine; the engine sends replies back
// through the Graph API client via the ChatSender methods.
type Adapter struct {
	client  *Client
	webhook *WebhookHandler
	engine  *conversation.Engine
	logger  *logging.Logger
}

// NewAdapter creates a Messenger adapter. The engine is attached afterwards
// with SetEngine because the engine itself needs the adapter as its sender.
func NewAdapter(pageAccessToken, appSecret, verifyToken string, logger *logging.Logger) *Adapter {
	if logger == nil {
		logger = logging.Default()
	}
	a := &Adapter{
		client: NewClient(pageAccessToken),
		logger: logger,
	}
	a.webhook = NewWebhookHandler(verifyToken, appSecret, a.dispatch)
	return a
}

// SetEngine attaches the conversation engine that consumes inbound events.
func (a *Adapter) SetEngine(engine *conversation.Engine) {
	a.engine = engine
}

// Client exposes the underlying Graph API client.
func (a *Adapter) Client() *Client {
	return a.client
}

func (a *Adapter) dispatch(ev InboundEvent) {
	if a.engine == nil {
		a.logger.Warn("messenger: inbound event with no engine attached", "sender_id", ev.SenderID)
		return
	}
	ctx := context.Background()
	var err error
	if ev.IsPayload() {
		err = a.engine.HandlePayload(ctx, ev.SenderID, ev.Payload)
	} else {
		err = a.engine.HandleText(ctx, ev.SenderID, ev.Text)
	}
	if err != nil {
		a.logger.Error("messenger: event handling failed",
			"sender_id", ev.SenderID,
			"is_payload", ev.IsPayload(),
			"error", err,
		)
	}
}

// HandleVerification handles GET /api/messenger/webhook (Meta challenge).
func (a *Adapter) HandleVerification(w http.ResponseWriter, r *http.Request) {
	a.webhook.HandleVerification(w, r)
}

// HandleWebhook handles POST /api/messenger/webhook (inbound events).
func (a *Adapter) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	a.webhook.HandleInbound(w, r)
}

// SendText implements conversation.ChatSender.
func (a *Adapter) SendText(ctx context.Context, recipientID, text string) error {
	_, err := a.client.SendTextMessage(ctx, recipientID, text)
	return err
}

// SendButtons implements conversation.ChatSender.
func (a *Adapter) SendButtons(ctx context.Context, recipientID, text string, buttons []conversation.Button) error {
	out := make([]Button, 0, len(buttons))
	for _, b := range buttons {
		out = append(out, Button{Type: "postback", Title: b.Title, Payload: b.Payload})
	}
	_, err := a.client.SendButtonMessage(ctx, recipientID, text, out)
	return err
}

// SendQuickReplies implements conversation.ChatSender.
func (a *Adapter) SendQuickReplies(ctx context.Context, recipientID, text string, replies []conversation.Button) error {
	out := make([]QuickReply, 0, len(replies))
	for _, b := range replies {
		out = append(out, QuickReply{ContentType: "text", Title: b.Title, Payload: b.Payload})
	}
	_, err := a.client.SendQuickReplies(ctx, recipientID, text, out)
	return err
}
