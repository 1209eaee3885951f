package messenger

import "time"

// WebhookEvent is the top-level structure received from Meta's webhook.
type WebhookEvent struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry is a single entry in the webhook payload.
type Entry struct {
	ID        string      `json:"id"`
	Time      int64       `json:"time"`
	Messaging []Messaging `json:"messaging"`
}

// Messaging is one messaging event inside an entry.
type Messaging struct {
	Sender    Sender    `json:"sender"`
	Recipient Recipient `json:"recipient"`
	Timestamp int64     `json:"timestamp"`
	Message   *Message  `json:"message,omitempty"`
	Postback  *Postback `json:"postback,omitempty"`
}

// Sender identifies who sent the message.
type Sender struct {
	ID string `json:"id"`
}

// Recipient identifies the recipient page.
type Recipient struct {
	ID string `json:"id"`
}

// Message is inbound message content. Echoes of the page's own outbound
// messages arrive with IsEcho set and must be ignored.
type Message struct {
	MID        string          `json:"mid"`
	Text       string          `json:"text"`
	IsEcho     bool            `json:"is_echo,omitempty"`
	QuickReply *QuickReplyInfo `json:"quick_reply,omitempty"`
}

// QuickReplyInfo carries the payload of a tapped quick reply.
type QuickReplyInfo struct {
	Payload string `json:"payload"`
}

// Postback is a button tap.
type Postback struct {
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

// SendRequest is the payload posted to the Graph API send endpoint.
type SendRequest struct {
	Recipient SendRecipient `json:"recipient"`
	Message   SendMessage   `json:"message"`
}

// SendRecipient identifies who to send the message to.
type SendRecipient struct {
	ID string `json:"id"`
}

// SendMessage is outbound message content.
type SendMessage struct {
	Text         string       `json:"text,omitempty"`
	Attachment   *Attachment  `json:"attachment,omitempty"`
	QuickReplies []QuickReply `json:"quick_replies,omitempty"`
}

// QuickReply is one outbound quick-reply chip.
type QuickReply struct {
	ContentType string `json:"content_type"`
	Title       string `json:"title"`
	Payload     string `json:"payload"`
}

// Attachment is a structured message attachment.
type Attachment struct {
	Type    string  `json:"type"`
	Payload Payload `json:"payload"`
}

// Payload is the attachment payload of a button template.
type Payload struct {
	TemplateType string   `json:"template_type"`
	Text         string   `json:"text"`
	Buttons      []Button `json:"buttons"`
}

// Button is one button in a button template.
type Button struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	URL     string `json:"url,omitempty"`
	Payload string `json:"payload,omitempty"`
}

// SendResponse is the Graph API response to a send call.
type SendResponse struct {
	RecipientID string     `json:"recipient_id"`
	MessageID   string     `json:"message_id"`
	Error       *SendError `json:"error,omitempty"`
}

// SendError is an error object returned by the Graph API.
type SendError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	FBTraceID string `json:"fbtrace_id"`
}

// InboundEvent is the normalized result of parsing one webhook messaging
// entry. Exactly one of Text or Payload carries the user's input: quick
// replies and postbacks populate Payload, free text populates Text.
type InboundEvent struct {
	SenderID  string
	Text      string
	Payload   string
	Timestamp time.Time
	MessageID string
}

// IsPayload reports whether the event is a button or quick-reply selection.
func (e InboundEvent) IsPayload() bool { return e.Payload != "" }
