package services

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/markdave123-py/chatterbox/internal/core"
	"github.com/markdave123-py/chatterbox/internal/models"
)

const conversationStatusActive = "active"

type ConversationService struct {
	db  core.DbClient
	log zerolog.Logger
}

func NewConversationService(db core.DbClient, log zerolog.Logger) *ConversationService {
	return &ConversationService{db: db, log: log.With().Str("component", "conversation-service").Logger()}
}

// ListConversations returns the company's conversations, most recently updated first.
// A row whose messages cannot be decoded is still listed, with an empty summary.
func (s *ConversationService) ListConversations(ctx context.Context, companyID int64) ([]models.ConversationSummary, error) {
	if companyID <= 0 {
		return nil, validationError("companyId is required")
	}

	convs, err := s.db.ListConversations(ctx, companyID)
	if err != nil {
		s.log.Error().Err(err).Int64("company_id", companyID).Msg("list conversations failed")
		return nil, persistence("could not load conversations", err)
	}

	out := make([]models.ConversationSummary, 0, len(convs))
	for _, c := range convs {
		last, count := SummarizeMessages(c.Messages)
		messages := c.Messages
		if !json.Valid(messages) {
			s.log.Warn().Int64("conversation_id", c.ID).Msg("conversation has malformed messages")
			messages = nil
		}
		out = append(out, models.ConversationSummary{
			ID:             c.ID,
			UserWhatsappID: c.UserWhatsappID,
			Messages:       messages,
			UpdatedAt:      c.UpdatedAt,
			ResponseCount:  c.ResponseCount,
			LastMessage:    last,
			MessageCount:   count,
			Status:         conversationStatusActive,
		})
	}
	return out, nil
}

// SummarizeMessages returns the text of the last message and the number of messages.
// The array may also arrive as a JSON string holding the encoded array. Anything else
// yields ("", 0); a last element without a string "text" field yields an empty last message.
func SummarizeMessages(raw json.RawMessage) (string, int) {
	msgs, ok := decodeMessages(raw)
	if !ok {
		return "", 0
	}
	if len(msgs) == 0 {
		return "", 0
	}
	var last struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(msgs[len(msgs)-1], &last); err != nil {
		return "", len(msgs)
	}
	return last.Text, len(msgs)
}

func decodeMessages(raw json.RawMessage) ([]json.RawMessage, bool) {
	var msgs []json.RawMessage
	if err := json.Unmarshal(raw, &msgs); err == nil {
		return msgs, true
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil, false
	}
	if err := json.Unmarshal([]byte(encoded), &msgs); err != nil {
		return nil, false
	}
	return msgs, true
}
