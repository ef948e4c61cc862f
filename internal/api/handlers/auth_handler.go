package handlers

import (
	"context"
	"net/http"

	"github.com/markdave123-py/chatterbox/internal/models"
	"github.com/markdave123-py/chatterbox/internal/services"
)

type AccountService interface {
	Signup(ctx context.Context, in services.SignupInput) (int64, error)
	Login(ctx context.Context, phone, password string) (*models.Account, error)
}

type AuthHandler struct {
	accounts AccountService
}

func NewAuthHandler(accounts AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// Signup handles POST /signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := h.accounts.Signup(r.Context(), services.SignupInput{
		Phone:         req.Phone,
		Password:      req.Password,
		CompanyName:   req.CompanyName,
		MetaID:        req.MetaID,
		WhatsappToken: req.WhatsappToken,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, signupResponse{Message: "company created", CompanyID: id})
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	account, err := h.accounts.Login(r.Context(), req.Phone, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}
