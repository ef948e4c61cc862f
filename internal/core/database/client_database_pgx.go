package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/markdave123-py/chatterbox/internal/config"
	"github.com/markdave123-py/chatterbox/internal/core"
	"github.com/markdave123-py/chatterbox/internal/models"
)

var _ core.DbClient = (*DatabaseClient)(nil)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	connCfg, err := connConfig(cfg)
	if err != nil {
		return nil, err
	}
	db := stdlib.OpenDB(*connCfg)

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.DBConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if cfg.DBAutoMigrate {
		if err := EnsureBootstrapped(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
	}

	return &DatabaseClient{db: db}, nil
}

// connConfig parses DATABASE_URL. An explicit TIMEZONE becomes the session time zone, so
// now() defaults on timestamp columns and the statistics day boundaries share one zone.
func connConfig(cfg *config.Config) (*pgx.ConnConfig, error) {
	connCfg, err := pgx.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	if tz := sessionTimezone(cfg.Timezone); tz != "" {
		connCfg.RuntimeParams["timezone"] = tz
	}
	return connCfg, nil
}

func sessionTimezone(tz string) string {
	tz = strings.TrimSpace(tz)
	if tz == "" || strings.EqualFold(tz, "local") {
		return ""
	}
	return tz
}

// NewFromDB wraps an already opened pool.
func NewFromDB(db *sql.DB) *DatabaseClient {
	return &DatabaseClient{db: db}
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *DatabaseClient) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Accounts

// CreateCompanyWithLogin inserts a company and its login in a single transaction.
// Nothing is persisted unless both inserts succeed.
func (c *DatabaseClient) CreateCompanyWithLogin(ctx context.Context, company *models.Company, login *models.Login) (int64, error) {
	if company == nil || login == nil {
		return 0, errors.New("nil company or login")
	}

	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const insertCompany = `
		INSERT INTO companies (name, number_id, token, prompt, sales_data_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var companyID int64
	if err := tx.QueryRowContext(ctx, insertCompany,
		company.Name, company.NumberID, company.Token, company.Prompt, company.SalesDataURL,
	).Scan(&companyID); err != nil {
		return 0, fmt.Errorf("insert company: %w", mapPgError(err))
	}

	const insertLogin = `
		INSERT INTO login (phone, password, company_id)
		VALUES ($1, $2, $3)
	`
	if _, err := tx.ExecContext(ctx, insertLogin, login.Phone, login.PasswordHash, companyID); err != nil {
		return 0, fmt.Errorf("insert login: %w", mapPgError(err))
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	company.ID = companyID
	login.CompanyID = companyID
	return companyID, nil
}

func (c *DatabaseClient) GetLoginByPhone(ctx context.Context, phone string) (*models.LoginWithCompany, error) {
	const q = `
		SELECT l.id, l.phone, l.password, l.company_id,
		       c.id, c.name, c.number_id, c.token, c.prompt, c.sales_data_url
		FROM login l
		JOIN companies c ON l.company_id = c.id
		WHERE l.phone = $1
	`
	var (
		out    models.LoginWithCompany
		prompt sql.NullString
		sales  sql.NullString
	)
	err := c.db.QueryRowContext(ctx, q, phone).Scan(
		&out.Login.ID, &out.Login.Phone, &out.Login.PasswordHash, &out.Login.CompanyID,
		&out.Company.ID, &out.Company.Name, &out.Company.NumberID, &out.Company.Token, &prompt, &sales,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get login: %w", err)
	}
	out.Company.Prompt = prompt.String
	out.Company.SalesDataURL = nullableString(sales)
	return &out, nil
}

// Companies

func (c *DatabaseClient) GetCompanyByID(ctx context.Context, id int64) (*models.Company, error) {
	const q = `
		SELECT id, name, number_id, token, prompt, sales_data_url
		FROM companies
		WHERE id = $1
	`
	var (
		co     models.Company
		prompt sql.NullString
		sales  sql.NullString
	)
	err := c.db.QueryRowContext(ctx, q, id).Scan(&co.ID, &co.Name, &co.NumberID, &co.Token, &prompt, &sales)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}
	co.Prompt = prompt.String
	co.SalesDataURL = nullableString(sales)
	return &co, nil
}

// UpdateCompanyPrompt overwrites the prompt and returns the updated company, or core.ErrNotFound.
func (c *DatabaseClient) UpdateCompanyPrompt(ctx context.Context, id int64, prompt string) (*models.Company, error) {
	const q = `
		UPDATE companies
		SET prompt = $1
		WHERE id = $2
		RETURNING id, name, prompt
	`
	var (
		co      models.Company
		updated sql.NullString
	)
	err := c.db.QueryRowContext(ctx, q, prompt, id).Scan(&co.ID, &co.Name, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update prompt: %w", err)
	}
	co.Prompt = updated.String
	return &co, nil
}

func (c *DatabaseClient) UpdateCompanySalesDataURL(ctx context.Context, id int64, url string) error {
	const q = `
		UPDATE companies
		SET sales_data_url = $1
		WHERE id = $2
	`
	res, err := c.db.ExecContext(ctx, q, url, id)
	if err != nil {
		return fmt.Errorf("update sales data url: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update sales data url: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// Statistics

// CountActivitySince counts conversation rows updated at or after since, and their distinct end users.
func (c *DatabaseClient) CountActivitySince(ctx context.Context, companyID int64, since time.Time) (models.ActivityCount, error) {
	const q = `
		SELECT COUNT(*), COUNT(DISTINCT user_whatsapp_id)
		FROM conversations
		WHERE company_id = $1 AND updated_at >= $2
	`
	var out models.ActivityCount
	if err := c.db.QueryRowContext(ctx, q, companyID, since).Scan(&out.Messages, &out.Users); err != nil {
		return models.ActivityCount{}, fmt.Errorf("count activity: %w", err)
	}
	return out, nil
}

// WeekdayActivitySince groups activity by weekday name, ordered by weekday index.
func (c *DatabaseClient) WeekdayActivitySince(ctx context.Context, companyID int64, since time.Time) ([]models.ActivityPoint, error) {
	const q = `
		SELECT to_char(updated_at, 'Dy') AS day, COUNT(*) AS messages, COUNT(DISTINCT user_whatsapp_id) AS users
		FROM conversations
		WHERE company_id = $1 AND updated_at >= $2
		GROUP BY day, to_char(updated_at, 'D')
		ORDER BY to_char(updated_at, 'D')::int
	`
	return c.activitySeries(ctx, q, companyID, since)
}

// MonthlyActivitySince groups activity by month name, ordered by month number.
func (c *DatabaseClient) MonthlyActivitySince(ctx context.Context, companyID int64, since time.Time) ([]models.ActivityPoint, error) {
	const q = `
		SELECT to_char(updated_at, 'Mon') AS month, COUNT(*) AS messages, COUNT(DISTINCT user_whatsapp_id) AS users
		FROM conversations
		WHERE company_id = $1 AND updated_at >= $2
		GROUP BY month, to_char(updated_at, 'MM')
		ORDER BY to_char(updated_at, 'MM')::int
	`
	return c.activitySeries(ctx, q, companyID, since)
}

func (c *DatabaseClient) activitySeries(ctx context.Context, q string, companyID int64, since time.Time) ([]models.ActivityPoint, error) {
	rows, err := c.db.QueryContext(ctx, q, companyID, since)
	if err != nil {
		return nil, fmt.Errorf("activity series: %w", err)
	}
	defer rows.Close()

	out := []models.ActivityPoint{}
	for rows.Next() {
		var p models.ActivityPoint
		if err := rows.Scan(&p.Label, &p.Messages, &p.Users); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Conversations

func (c *DatabaseClient) ListConversations(ctx context.Context, companyID int64) ([]models.Conversation, error) {
	const q = `
		SELECT id, company_id, user_whatsapp_id, messages, updated_at, COALESCE(response_count, 0)
		FROM conversations
		WHERE company_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, companyID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	out := []models.Conversation{}
	for rows.Next() {
		var (
			conv      models.Conversation
			messages  []byte
			updatedAt sql.NullTime
		)
		if err := rows.Scan(&conv.ID, &conv.CompanyID, &conv.UserWhatsappID, &messages, &updatedAt, &conv.ResponseCount); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		conv.Messages = messages
		conv.UpdatedAt = updatedAt.Time
		out = append(out, conv)
	}
	return out, rows.Err()
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
