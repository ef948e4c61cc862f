package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/markdave123-py/chatterbox/internal/config"
)

func newAccountService(t *testing.T, db *fakeDB, sessions *SessionIssuer) *AccountService {
	t.Helper()
	svc, err := NewAccountService(db, config.MinBcryptCost, sessions, zerolog.Nop())
	require.NoError(t, err)
	return svc
}

func acmeSignup() SignupInput {
	return SignupInput{
		Phone:         "+33612345678",
		Password:      "password123",
		CompanyName:   "Acme",
		MetaID:        "109876543210",
		WhatsappToken: "EAAG-token",
	}
}

func TestSignup_CreatesCompanyAndLogin(t *testing.T) {
	db := newFakeDB()
	svc := newAccountService(t, db, nil)

	id, err := svc.Signup(context.Background(), acmeSignup())
	require.NoError(t, err)

	company := db.companies[id]
	require.NotNil(t, company)
	require.Equal(t, "Acme", company.Name)
	require.Equal(t, "You are the personal assistant of Acme", company.Prompt)
	require.Nil(t, company.SalesDataURL)

	login := db.logins["+33612345678"]
	require.NotNil(t, login)
	require.Equal(t, id, login.CompanyID)
	require.NotEqual(t, "password123", login.PasswordHash)

	cost, err := bcrypt.Cost([]byte(login.PasswordHash))
	require.NoError(t, err)
	require.GreaterOrEqual(t, cost, 10)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(login.PasswordHash), []byte("password123")))
}

func TestSignup_DuplicatePhoneLeavesNoCompany(t *testing.T) {
	db := newFakeDB()
	svc := newAccountService(t, db, nil)

	_, err := svc.Signup(context.Background(), acmeSignup())
	require.NoError(t, err)

	dup := acmeSignup()
	dup.MetaID = "another-number"
	dup.CompanyName = "Other"
	_, err = svc.Signup(context.Background(), dup)
	require.Equal(t, KindConflict, KindOf(err))
	require.Len(t, db.companies, 1)
	require.Len(t, db.logins, 1)
}

func TestSignup_DuplicateMetaIDIsConflict(t *testing.T) {
	db := newFakeDB()
	svc := newAccountService(t, db, nil)

	_, err := svc.Signup(context.Background(), acmeSignup())
	require.NoError(t, err)

	dup := acmeSignup()
	dup.Phone = "+33700000000"
	_, err = svc.Signup(context.Background(), dup)
	require.Equal(t, KindConflict, KindOf(err))
	require.Len(t, db.companies, 1)
}

func TestSignup_MissingFields(t *testing.T) {
	svc := newAccountService(t, newFakeDB(), nil)

	for _, mutate := range []func(*SignupInput){
		func(in *SignupInput) { in.Phone = "" },
		func(in *SignupInput) { in.Password = "" },
		func(in *SignupInput) { in.CompanyName = "  " },
		func(in *SignupInput) { in.MetaID = "" },
		func(in *SignupInput) { in.WhatsappToken = "" },
	} {
		in := acmeSignup()
		mutate(&in)
		_, err := svc.Signup(context.Background(), in)
		require.Equal(t, KindValidation, KindOf(err))
	}
}

func TestSignup_StoreFailureIsPersistenceError(t *testing.T) {
	db := newFakeDB()
	db.createErr = errors.New("connection refused")
	svc := newAccountService(t, db, nil)

	_, err := svc.Signup(context.Background(), acmeSignup())
	require.Equal(t, KindPersistence, KindOf(err))
}

func TestLogin_ReturnsSanitizedAccount(t *testing.T) {
	db := newFakeDB()
	svc := newAccountService(t, db, nil)
	id, err := svc.Signup(context.Background(), acmeSignup())
	require.NoError(t, err)

	account, err := svc.Login(context.Background(), "+33612345678", "password123")
	require.NoError(t, err)
	require.Equal(t, id, account.ID)
	require.Equal(t, id, account.CompanyID)
	require.Equal(t, "Acme", account.Name)
	require.Equal(t, "109876543210", account.NumberID)
	require.Equal(t, "EAAG-token", account.Token)
	require.Empty(t, account.SessionToken)

	raw, err := json.Marshal(account)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "$2a$")
	require.NotContains(t, string(raw), "password")
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	db := newFakeDB()
	svc := newAccountService(t, db, nil)
	_, err := svc.Signup(context.Background(), acmeSignup())
	require.NoError(t, err)

	_, unknownErr := svc.Login(context.Background(), "+10000000000", "password123")
	_, wrongErr := svc.Login(context.Background(), "+33612345678", "wrong-password")

	require.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	require.ErrorIs(t, wrongErr, ErrInvalidCredentials)
	require.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestLogin_LookupFailure(t *testing.T) {
	db := newFakeDB()
	db.lookupErr = errors.New("timeout")
	svc := newAccountService(t, db, nil)

	_, err := svc.Login(context.Background(), "+33612345678", "password123")
	require.Equal(t, KindPersistence, KindOf(err))
}

func TestLogin_IssuesSessionToken(t *testing.T) {
	db := newFakeDB()
	sessions := NewSessionIssuer("s3cret", time.Hour)
	svc := newAccountService(t, db, sessions)
	id, err := svc.Signup(context.Background(), acmeSignup())
	require.NoError(t, err)

	account, err := svc.Login(context.Background(), "+33612345678", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, account.SessionToken)

	claims, err := sessions.Parse(account.SessionToken)
	require.NoError(t, err)
	require.Equal(t, id, claims.CompanyID)
	require.Equal(t, "+33612345678", claims.Phone)
	require.NotEmpty(t, claims.ID)
}
