package core

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/markdave123-py/chatterbox/internal/models"
)

var (
	// ErrNotFound is returned by scoped updates that matched no row.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write violates a unique constraint.
	ErrConflict = errors.New("unique constraint violated")
)

// DbClient defines all persistence operations the services need.
// Every query touching tenant data is scoped by company id.
type DbClient interface {
	// CreateCompanyWithLogin inserts the company and its credential in one transaction.
	CreateCompanyWithLogin(ctx context.Context, company *models.Company, login *models.Login) (companyID int64, err error)
	GetLoginByPhone(ctx context.Context, phone string) (*models.LoginWithCompany, error)

	GetCompanyByID(ctx context.Context, id int64) (*models.Company, error)
	UpdateCompanyPrompt(ctx context.Context, id int64, prompt string) (*models.Company, error)
	UpdateCompanySalesDataURL(ctx context.Context, id int64, url string) error

	CountActivitySince(ctx context.Context, companyID int64, since time.Time) (models.ActivityCount, error)
	WeekdayActivitySince(ctx context.Context, companyID int64, since time.Time) ([]models.ActivityPoint, error)
	MonthlyActivitySince(ctx context.Context, companyID int64, since time.Time) ([]models.ActivityPoint, error)

	ListConversations(ctx context.Context, companyID int64) ([]models.Conversation, error)

	Ping(ctx context.Context) error
	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	CreateBucket(ctx context.Context, bucket string) error
	PutObject(ctx context.Context, bucket, key string, body io.Reader, contentType string) error
	DeleteObject(ctx context.Context, bucket, key string) error
}
