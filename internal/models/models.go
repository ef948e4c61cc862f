package models

import (
	"encoding/json"
	"time"
)

// Company is the tenant root. Everything else is scoped by its ID.
type Company struct {
	ID           int64   `db:"id" json:"id"`
	Name         string  `db:"name" json:"name"`
	NumberID     string  `db:"number_id" json:"number_id"`
	Token        string  `db:"token" json:"token"`
	Prompt       string  `db:"prompt" json:"prompt"`
	SalesDataURL *string `db:"sales_data_url" json:"sales_data_url"` // s3://bucket/key, nil until first upload
}

// Login is the credential of one operator of one company.
type Login struct {
	ID           int64     `db:"id" json:"id"`
	Phone        string    `db:"phone" json:"phone"`
	PasswordHash string    `db:"password" json:"-"`
	CompanyID    int64     `db:"company_id" json:"company_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// LoginWithCompany is a credential row joined with its owning company.
type LoginWithCompany struct {
	Login   Login
	Company Company
}

// Account is the sanitized record returned by a successful login.
type Account struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	NumberID     string  `json:"number_id"`
	Token        string  `json:"token"`
	Prompt       string  `json:"prompt"`
	SalesDataURL *string `json:"sales_data_url"`
	Phone        string  `json:"phone"`
	CompanyID    int64   `json:"company_id"`
	SessionToken string  `json:"session_token,omitempty"`
}

// Conversation is the single message thread between a company and one end user.
// It is written by the bot ingestion path; this service only reads it.
type Conversation struct {
	ID             int64           `db:"id" json:"id"`
	CompanyID      int64           `db:"company_id" json:"company_id"`
	UserWhatsappID string          `db:"user_whatsapp_id" json:"user_whatsapp_id"`
	Messages       json.RawMessage `db:"messages" json:"messages"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
	ResponseCount  int             `db:"response_count" json:"response_count"`
}

// ConversationSummary is a Conversation with fields derived for the dashboard list.
type ConversationSummary struct {
	ID             int64           `json:"id"`
	UserWhatsappID string          `json:"user_whatsapp_id"`
	Messages       json.RawMessage `json:"messages"`
	UpdatedAt      time.Time       `json:"updated_at"`
	ResponseCount  int             `json:"response_count"`
	LastMessage    string          `json:"lastMessage"`
	MessageCount   int             `json:"messageCount"`
	Status         string          `json:"status"`
}

// ProcessedMessage is the ingestion dedup ledger entry.
type ProcessedMessage struct {
	ID        int64     `db:"id" json:"id"`
	MessageID string    `db:"message_id" json:"message_id"`
	CompanyID int64     `db:"company_id" json:"company_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ActivityCount is the number of conversation rows and distinct end users in a window.
type ActivityCount struct {
	Messages int64 `json:"messages"`
	Users    int64 `json:"users"`
}

// ActivityPoint is one labeled bucket of a weekly or monthly series.
type ActivityPoint struct {
	Label    string
	Messages int64
	Users    int64
}

type DailyPoint struct {
	Day      string `json:"day"`
	Messages int64  `json:"messages"`
	Users    int64  `json:"users"`
}

type MonthlyPoint struct {
	Month    string `json:"month"`
	Messages int64  `json:"messages"`
	Users    int64  `json:"users"`
}

// Performance is the statistics payload for one company.
type Performance struct {
	DailyMessageCount int64          `json:"dailyMessageCount"`
	DailyActiveUsers  int64          `json:"dailyActiveUsers"`
	WeeklySeries      []DailyPoint   `json:"weeklySeries"`
	MonthlySeries     []MonthlyPoint `json:"monthlySeries"`
}
