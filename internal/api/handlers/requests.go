package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	middleware "github.com/markdave123-py/chatterbox/internal/api/middlewares"
	"github.com/markdave123-py/chatterbox/internal/services"
)

const maxJSONBodyBytes = 1 << 20

var errInvalidCompanyID = errors.New("companyId must be a positive integer")

// CompanyID accepts a JSON number or a numeric string.
type CompanyID int64

func (c *CompanyID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return errInvalidCompanyID
		}
		if strings.TrimSpace(s) == "" {
			*c = 0
			return nil
		}
		b = []byte(strings.TrimSpace(s))
	}
	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil || id < 0 {
		return errInvalidCompanyID
	}
	*c = CompanyID(id)
	return nil
}

// ParseCompanyID parses a query or form value.
func ParseCompanyID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, services.NewValidationError("companyId is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, services.NewValidationError(errInvalidCompanyID.Error())
	}
	return id, nil
}

type signupRequest struct {
	Phone         string `json:"phone" validate:"required,max=50"`
	Password      string `json:"password" validate:"required,max=72"`
	CompanyName   string `json:"companyName" validate:"required,max=255"`
	MetaID        string `json:"metaId" validate:"required,max=50"`
	WhatsappToken string `json:"whatsappToken" validate:"required"`
}

type signupResponse struct {
	Message   string `json:"message"`
	CompanyID int64  `json:"companyId"`
}

type loginRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type promptRequest struct {
	Prompt    string    `json:"prompt" validate:"required"`
	CompanyID CompanyID `json:"companyId" validate:"required,gt=0"`
}

type uploadResponse struct {
	NewFileLocation string `json:"newFileLocation"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads a JSON body into dst and validates it, reporting the first invalid field.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		switch {
		case errors.Is(err, errInvalidCompanyID):
			return services.NewValidationError(errInvalidCompanyID.Error())
		case errors.Is(err, io.EOF):
			return services.NewValidationError("request body is required")
		default:
			return services.NewValidationError("invalid request body")
		}
	}
	return validateStruct(dst)
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return services.NewValidationError("invalid request")
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return services.NewValidationError(fe.Field() + " is required")
	case "max":
		return services.NewValidationError(fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
	case "gt":
		return services.NewValidationError(fe.Field() + " must be a positive integer")
	default:
		return services.NewValidationError(fe.Field() + " is invalid")
	}
}

// authorizeCompany rejects a request whose session belongs to another company.
// Requests without a session pass; the session guard decides whether one is required.
func authorizeCompany(r *http.Request, companyID int64) error {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok || claims.CompanyID == companyID {
		return nil
	}
	zerolog.Ctx(r.Context()).Warn().
		Int64("session_company_id", claims.CompanyID).
		Int64("company_id", companyID).
		Msg("cross-tenant request rejected")
	return services.ErrForbidden
}
