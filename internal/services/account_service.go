package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/markdave123-py/chatterbox/internal/core"
	"github.com/markdave123-py/chatterbox/internal/metrics"
	"github.com/markdave123-py/chatterbox/internal/models"
)

const defaultPromptTemplate = "You are the personal assistant of %s"

// DefaultPrompt is the prompt a company starts with.
func DefaultPrompt(companyName string) string {
	return fmt.Sprintf(defaultPromptTemplate, companyName)
}

type SignupInput struct {
	Phone         string
	Password      string
	CompanyName   string
	MetaID        string
	WhatsappToken string
}

type AccountService struct {
	db        core.DbClient
	cost      int
	sessions  *SessionIssuer
	dummyHash []byte
	log       zerolog.Logger
}

// NewAccountService builds the service. sessions may be nil, in which case login
// returns no session token.
func NewAccountService(db core.DbClient, cost int, sessions *SessionIssuer, log zerolog.Logger) (*AccountService, error) {
	// Compared against when the phone is unknown so both failure paths cost one bcrypt check.
	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("bcrypt cost %d: %w", cost, err)
	}
	return &AccountService{
		db:        db,
		cost:      cost,
		sessions:  sessions,
		dummyHash: dummy,
		log:       log.With().Str("component", "account-service").Logger(),
	}, nil
}

// Signup creates a company and its login credential atomically and returns the company id.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (int64, error) {
	for _, f := range []struct{ name, value string }{
		{"phone", in.Phone},
		{"password", in.Password},
		{"companyName", in.CompanyName},
		{"metaId", in.MetaID},
		{"whatsappToken", in.WhatsappToken},
	} {
		if strings.TrimSpace(f.value) == "" {
			return 0, validationError(f.name + " is required")
		}
	}

	log := s.log.With().Str("company_name", in.CompanyName).Logger()
	log.Info().Msg("signup started")

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return 0, validationError("password is too long")
		}
		return 0, newError(KindInternal, "signup failed", err)
	}

	company := &models.Company{
		Name:     in.CompanyName,
		NumberID: in.MetaID,
		Token:    in.WhatsappToken,
		Prompt:   DefaultPrompt(in.CompanyName),
	}
	login := &models.Login{
		Phone:        in.Phone,
		PasswordHash: string(hash),
	}

	id, err := s.db.CreateCompanyWithLogin(ctx, company, login)
	if err != nil {
		if errors.Is(err, core.ErrConflict) {
			metrics.RecordSignup("conflict")
			log.Warn().Err(err).Msg("signup rejected: account already exists")
			return 0, newError(KindConflict, "account already exists", err)
		}
		metrics.RecordSignup("failure")
		log.Error().Err(err).Msg("signup transaction failed")
		return 0, persistence("signup failed", err)
	}

	metrics.RecordSignup("success")
	log.Info().Int64("company_id", id).Msg("company and login created")
	return id, nil
}

// Login verifies phone and password and returns the sanitized account.
// Unknown phone and wrong password fail identically with ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, phone, password string) (*models.Account, error) {
	if strings.TrimSpace(phone) == "" || password == "" {
		return nil, validationError("phone and password are required")
	}

	row, err := s.db.GetLoginByPhone(ctx, phone)
	if err != nil {
		metrics.RecordLogin("error")
		s.log.Error().Err(err).Msg("login lookup failed")
		return nil, persistence("login failed", err)
	}

	hash := s.dummyHash
	if row != nil {
		hash = []byte(row.Login.PasswordHash)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil || row == nil {
		metrics.RecordLogin("failure")
		s.log.Info().Msg("login rejected")
		return nil, ErrInvalidCredentials
	}

	account := &models.Account{
		ID:           row.Company.ID,
		Name:         row.Company.Name,
		NumberID:     row.Company.NumberID,
		Token:        row.Company.Token,
		Prompt:       row.Company.Prompt,
		SalesDataURL: row.Company.SalesDataURL,
		Phone:        row.Login.Phone,
		CompanyID:    row.Login.CompanyID,
	}

	if s.sessions != nil {
		tok, err := s.sessions.Issue(account.CompanyID, account.Phone)
		if err != nil {
			return nil, newError(KindInternal, "login failed", err)
		}
		account.SessionToken = tok
	}

	metrics.RecordLogin("success")
	s.log.Info().Int64("company_id", account.CompanyID).Msg("login succeeded")
	return account, nil
}
