package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/markdave123-py/chatterbox/internal/core"
	"github.com/markdave123-py/chatterbox/internal/models"
)

// fakeDB is an in-memory core.DbClient. Tenant scoping mirrors the SQL queries.
type fakeDB struct {
	mu            sync.Mutex
	nextID        int64
	companies     map[int64]*models.Company
	logins        map[string]*models.Login
	conversations []models.Conversation

	createErr    error
	lookupErr    error
	getErr       error
	updateURLErr error
	activityErr  error

	activityCompanyIDs []int64
	salesURLWrites     []string
}

func newFakeDB() *fakeDB {
	return &fakeDB{companies: map[int64]*models.Company{}, logins: map[string]*models.Login{}}
}

func (f *fakeDB) addCompany(c models.Company) *models.Company {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c.ID = f.nextID
	f.companies[c.ID] = &c
	return &c
}

func (f *fakeDB) CreateCompanyWithLogin(ctx context.Context, company *models.Company, login *models.Login) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return 0, f.createErr
	}
	for _, c := range f.companies {
		if c.NumberID == company.NumberID {
			return 0, fmt.Errorf("insert company: %w: companies_number_id_unique", core.ErrConflict)
		}
	}
	if _, ok := f.logins[login.Phone]; ok {
		return 0, fmt.Errorf("insert login: %w: login_phone_unique", core.ErrConflict)
	}
	f.nextID++
	c := *company
	c.ID = f.nextID
	f.companies[c.ID] = &c
	l := *login
	l.CompanyID = c.ID
	f.logins[l.Phone] = &l
	company.ID, login.CompanyID = c.ID, c.ID
	return c.ID, nil
}

func (f *fakeDB) GetLoginByPhone(ctx context.Context, phone string) (*models.LoginWithCompany, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	l, ok := f.logins[phone]
	if !ok {
		return nil, nil
	}
	return &models.LoginWithCompany{Login: *l, Company: *f.companies[l.CompanyID]}, nil
}

func (f *fakeDB) GetCompanyByID(ctx context.Context, id int64) (*models.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	c, ok := f.companies[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeDB) UpdateCompanyPrompt(ctx context.Context, id int64, prompt string) (*models.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.companies[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	c.Prompt = prompt
	cp := *c
	return &cp, nil
}

func (f *fakeDB) UpdateCompanySalesDataURL(ctx context.Context, id int64, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateURLErr != nil {
		return f.updateURLErr
	}
	c, ok := f.companies[id]
	if !ok {
		return core.ErrNotFound
	}
	u := url
	c.SalesDataURL = &u
	f.salesURLWrites = append(f.salesURLWrites, url)
	return nil
}

func (f *fakeDB) scoped(companyID int64, since time.Time) []models.Conversation {
	f.activityCompanyIDs = append(f.activityCompanyIDs, companyID)
	var out []models.Conversation
	for _, c := range f.conversations {
		if c.CompanyID == companyID && !c.UpdatedAt.Before(since) {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeDB) CountActivitySince(ctx context.Context, companyID int64, since time.Time) (models.ActivityCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.activityErr != nil {
		return models.ActivityCount{}, f.activityErr
	}
	rows := f.scoped(companyID, since)
	users := map[string]bool{}
	for _, r := range rows {
		users[r.UserWhatsappID] = true
	}
	return models.ActivityCount{Messages: int64(len(rows)), Users: int64(len(users))}, nil
}

func (f *fakeDB) group(companyID int64, since time.Time, label func(time.Time) string, order func(time.Time) int) []models.ActivityPoint {
	type bucket struct {
		order int
		rows  int64
		users map[string]bool
	}
	buckets := map[string]*bucket{}
	for _, r := range f.scoped(companyID, since) {
		l := label(r.UpdatedAt)
		b, ok := buckets[l]
		if !ok {
			b = &bucket{order: order(r.UpdatedAt), users: map[string]bool{}}
			buckets[l] = b
		}
		b.rows++
		b.users[r.UserWhatsappID] = true
	}
	out := []models.ActivityPoint{}
	for l, b := range buckets {
		out = append(out, models.ActivityPoint{Label: l, Messages: b.rows, Users: int64(len(b.users))})
	}
	sort.Slice(out, func(i, j int) bool { return buckets[out[i].Label].order < buckets[out[j].Label].order })
	return out
}

func (f *fakeDB) WeekdayActivitySince(ctx context.Context, companyID int64, since time.Time) ([]models.ActivityPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.activityErr != nil {
		return nil, f.activityErr
	}
	return f.group(companyID, since,
		func(t time.Time) string { return t.Weekday().String()[:3] },
		func(t time.Time) int { return int(t.Weekday()) }), nil
}

func (f *fakeDB) MonthlyActivitySince(ctx context.Context, companyID int64, since time.Time) ([]models.ActivityPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.activityErr != nil {
		return nil, f.activityErr
	}
	return f.group(companyID, since,
		func(t time.Time) string { return t.Month().String()[:3] },
		func(t time.Time) int { return int(t.Month()) }), nil
}

func (f *fakeDB) ListConversations(ctx context.Context, companyID int64) ([]models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Conversation
	for _, c := range f.conversations {
		if c.CompanyID == companyID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (f *fakeDB) Ping(ctx context.Context) error { return nil }
func (f *fakeDB) Close() error                   { return nil }

// fakeStorage is an in-memory core.ObjectClient.
type fakeStorage struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string][]byte
	types   map[string]string
	deletes []string

	createErr error
	putErr    error
	deleteErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{buckets: map[string]bool{}, objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *fakeStorage) CreateBucket(ctx context.Context, bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.buckets[bucket] = true
	return nil
}

func (s *fakeStorage) PutObject(ctx context.Context, bucket, key string, body io.Reader, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	if !s.buckets[bucket] {
		return errors.New("NoSuchBucket")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.objects[bucket+"/"+key] = data
	s.types[bucket+"/"+key] = contentType
	return nil
}

func (s *fakeStorage) DeleteObject(ctx context.Context, bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, bucket+"/"+key)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, bucket+"/"+key)
	return nil
}

func (s *fakeStorage) has(bucket, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[bucket+"/"+key]
	return ok
}
