package chat

import (
	"time"

	"agency-data-service/internal/decode"
	"agency-data-service/internal/docstore"
)

// Collection is the document-store collection backing chats.
const Collection = "chats"

// MessagesCollection returns the nested collection path holding a chat's
// messages, mirroring the store's subcollection layout.
func MessagesCollection(chatID string) string {
	return Collection + "/" + chatID + "/messages"
}

// Chat is a conversation between participants, referenced by user ID.
type Chat struct {
	ID             string     `json:"id"`
	ParticipantIDs []string   `json:"participantIds,omitempty"`
	LastMessage    string     `json:"lastMessage,omitempty"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
}

// Key returns the document ID.
func (c Chat) Key() string { return c.ID }

// Message is a single chat message.
type Message struct {
	ID       string     `json:"id"`
	SenderID string     `json:"senderId"`
	Text     string     `json:"text"`
	SentAt   *time.Time `json:"sentAt,omitempty"`
}

// Key returns the document ID.
func (m Message) Key() string { return m.ID }

const (
	fieldParticipantIDs = "participantIds"
	fieldLastMessage    = "lastMessage"
	fieldUpdatedAt      = "updatedAt"
	fieldSenderID       = "senderId"
	fieldText           = "text"
	fieldSentAt         = "sentAt"
)

// Decode maps a raw document to a Chat.
func Decode(doc docstore.Document) (Chat, error) {
	return Chat{
		ID:             doc.ID,
		ParticipantIDs: decode.StringList(doc.Fields, fieldParticipantIDs),
		LastMessage:    decode.OptionalString(doc.Fields, fieldLastMessage),
		UpdatedAt:      decode.OptionalTime(doc.Fields, fieldUpdatedAt),
	}, nil
}

// Encode maps a Chat to its stored field set.
func Encode(c Chat) map[string]any {
	fields := map[string]any{}
	if len(c.ParticipantIDs) > 0 {
		fields[fieldParticipantIDs] = append([]string(nil), c.ParticipantIDs...)
	}
	if c.LastMessage != "" {
		fields[fieldLastMessage] = c.LastMessage
	}
	if c.UpdatedAt != nil {
		fields[fieldUpdatedAt] = c.UpdatedAt.Format(time.RFC3339)
	}
	return fields
}

// DecodeMessage maps a raw document to a Message. Sender and text are
// required; a message without either is dropped.
func DecodeMessage(doc docstore.Document) (Message, error) {
	sender, err := decode.String(doc.Fields, fieldSenderID)
	if err != nil {
		return Message{}, err
	}
	text, err := decode.String(doc.Fields, fieldText)
	if err != nil {
		return Message{}, err
	}
	return Message{
		ID:       doc.ID,
		SenderID: sender,
		Text:     text,
		SentAt:   decode.OptionalTime(doc.Fields, fieldSentAt),
	}, nil
}

// EncodeMessage maps a Message to its stored field set.
func EncodeMessage(m Message) map[string]any {
	fields := map[string]any{
		fieldSenderID: m.SenderID,
		fieldText:     m.Text,
	}
	if m.SentAt != nil {
		fields[fieldSentAt] = m.SentAt.Format(time.RFC3339)
	}
	return fields
}

// LastMessagePatch updates the conversation summary after a send.
func LastMessagePatch(text string, at time.Time) map[string]any {
	return map[string]any{
		fieldLastMessage: text,
		fieldUpdatedAt:   at.Format(time.RFC3339),
	}
}
