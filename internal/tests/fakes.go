// Package tests holds in-memory stand-ins for the stores, mailer and clock,
// plus the Postgres helpers used by the integration tests.
package tests

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nutricare/server/internal/model"
	"github.com/nutricare/server/internal/repo"
)

// AccountStore is an in-memory repo.AccountRepo enforcing unique email and
// mobile like the accounts table does.
type AccountStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]model.Account

	// Fail, when set, is returned by every call
	Fail error
	// MissPrecheck makes FindByEmailOrMobile report no match, as when another
	// registration commits between the lookup and the insert. Create still
	// enforces uniqueness.
	MissPrecheck bool
	// Updates counts successful Update calls
	Updates int
}

func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: make(map[uuid.UUID]model.Account)}
}

var _ repo.AccountRepo = (*AccountStore)(nil)

func (s *AccountStore) Create(_ context.Context, a *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	for _, existing := range s.accounts {
		if existing.Email == a.Email {
			return repo.ErrDuplicateEmail
		}
		if existing.Mobile == a.Mobile {
			return repo.ErrDuplicateMobile
		}
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now()
	a.CreatedAt, a.UpdatedAt = now, now
	s.accounts[a.ID] = cloneAccount(*a)
	return nil
}

func (s *AccountStore) GetByID(_ context.Context, id uuid.UUID) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return model.Account{}, s.Fail
	}
	a, ok := s.accounts[id]
	if !ok {
		return model.Account{}, repo.ErrNotFound
	}
	return cloneAccount(a), nil
}

func (s *AccountStore) GetByEmail(_ context.Context, email string) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return model.Account{}, s.Fail
	}
	for _, a := range s.accounts {
		if a.Email == email {
			return cloneAccount(a), nil
		}
	}
	return model.Account{}, repo.ErrNotFound
}

func (s *AccountStore) FindByEmailOrMobile(_ context.Context, email, mobile string) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return model.Account{}, s.Fail
	}
	if s.MissPrecheck {
		return model.Account{}, repo.ErrNotFound
	}
	for _, a := range s.accounts {
		if a.Email == email || a.Mobile == mobile {
			return cloneAccount(a), nil
		}
	}
	return model.Account{}, repo.ErrNotFound
}

func (s *AccountStore) Update(_ context.Context, a *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	if _, ok := s.accounts[a.ID]; !ok {
		return repo.ErrNotFound
	}
	a.UpdatedAt = time.Now()
	s.accounts[a.ID] = cloneAccount(*a)
	s.Updates++
	return nil
}

func (s *AccountStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	if _, ok := s.accounts[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.accounts, id)
	return nil
}

// Len returns the number of stored accounts
func (s *AccountStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}

// Put stores an account as-is, bypassing uniqueness checks
func (s *AccountStore) Put(a model.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = cloneAccount(a)
}

func cloneAccount(a model.Account) model.Account {
	if a.OTP != nil {
		otp := *a.OTP
		if otp.LastAttemptAt != nil {
			t := *otp.LastAttemptAt
			otp.LastAttemptAt = &t
		}
		a.OTP = &otp
	}
	if a.Lockout.LastFailedAt != nil {
		t := *a.Lockout.LastFailedAt
		a.Lockout.LastFailedAt = &t
	}
	if a.Lockout.LockedUntil != nil {
		t := *a.Lockout.LockedUntil
		a.Lockout.LockedUntil = &t
	}
	return a
}

// ProfileStore is an in-memory repo.ProfileRepo
type ProfileStore struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]model.Profile

	// FailCreate, when set, is returned by Create
	FailCreate error
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{profiles: make(map[uuid.UUID]model.Profile)}
}

var _ repo.ProfileRepo = (*ProfileStore)(nil)

func (s *ProfileStore) Create(_ context.Context, p *model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreate != nil {
		return s.FailCreate
	}
	if _, ok := s.profiles[p.AccountID]; ok {
		return errors.New("profile already exists")
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	s.profiles[p.AccountID] = *p
	return nil
}

func (s *ProfileStore) GetByAccountID(_ context.Context, accountID uuid.UUID) (model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[accountID]
	if !ok {
		return model.Profile{}, repo.ErrNotFound
	}
	return p, nil
}

func (s *ProfileStore) Save(_ context.Context, p *model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if existing, ok := s.profiles[p.AccountID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.profiles[p.AccountID] = *p
	return nil
}

func (s *ProfileStore) DeleteByAccountID(_ context.Context, accountID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, accountID)
	return nil
}

// Len returns the number of stored profiles
func (s *ProfileStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.profiles)
}

// DietPlanStore is an in-memory repo.DietPlanRepo
type DietPlanStore struct {
	mu    sync.Mutex
	plans []model.DietPlan
	clock func() time.Time
}

func NewDietPlanStore() *DietPlanStore {
	return &DietPlanStore{clock: time.Now}
}

var _ repo.DietPlanRepo = (*DietPlanStore)(nil)

func (s *DietPlanStore) Create(_ context.Context, p *model.DietPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	// strictly increasing so Latest is deterministic
	p.CreatedAt = s.clock().Add(time.Duration(len(s.plans)) * time.Millisecond)
	s.plans = append(s.plans, *p)
	return nil
}

func (s *DietPlanStore) Latest(_ context.Context, accountID uuid.UUID) (model.DietPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var mine []model.DietPlan
	for _, p := range s.plans {
		if p.AccountID == accountID {
			mine = append(mine, p)
		}
	}
	if len(mine) == 0 {
		return model.DietPlan{}, repo.ErrNotFound
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].CreatedAt.After(mine[j].CreatedAt) })
	return mine[0], nil
}

// SentMail is one captured email
type SentMail struct {
	To      string
	Subject string
	Body    string
}

var otpInBody = regexp.MustCompile(`\b[0-9]{6}\b`)

// Code extracts the verification code from the body
func (m SentMail) Code() string {
	return otpInBody.FindString(m.Body)
}

// Mailer captures outgoing email instead of sending it
type Mailer struct {
	mu   sync.Mutex
	sent []SentMail

	// Fail, when set, is returned by Send and nothing is captured
	Fail error
}

func (m *Mailer) Send(_ context.Context, to, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.sent = append(m.sent, SentMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

// Sent returns a copy of all captured email
func (m *Mailer) Sent() []SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMail(nil), m.sent...)
}

// LastCode returns the code of the most recent email to the address
func (m *Mailer) LastCode(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].To == to {
			return m.sent[i].Code()
		}
	}
	return ""
}

// Clock is a manually advanced time source
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
