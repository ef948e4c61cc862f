package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/markdave123-py/chatterbox/internal/core"
)

type PromptService struct {
	db  core.DbClient
	log zerolog.Logger
}

func NewPromptService(db core.DbClient, log zerolog.Logger) *PromptService {
	return &PromptService{db: db, log: log.With().Str("component", "prompt-service").Logger()}
}

type PromptUpdate struct {
	CompanyName string `json:"companyName"`
	NewPrompt   string `json:"newPrompt"`
}

// UpdatePrompt overwrites the company's bot prompt. Last writer wins.
func (s *PromptService) UpdatePrompt(ctx context.Context, companyID int64, prompt string) (*PromptUpdate, error) {
	if companyID <= 0 {
		return nil, validationError("companyId is required")
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, validationError("prompt is required")
	}

	co, err := s.db.UpdateCompanyPrompt(ctx, companyID, prompt)
	if errors.Is(err, core.ErrNotFound) {
		return nil, notFound("company not found")
	}
	if err != nil {
		s.log.Error().Err(err).Int64("company_id", companyID).Msg("prompt update failed")
		return nil, persistence("prompt update failed", err)
	}

	s.log.Info().Int64("company_id", companyID).Str("company_name", co.Name).Msg("prompt updated")
	return &PromptUpdate{CompanyName: co.Name, NewPrompt: co.Prompt}, nil
}
