package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode"

	"excelbot-backend-go/internal/config"
	"excelbot-backend-go/internal/models"
	"excelbot-backend-go/internal/store"
)

const (
	maxFailedLogins = 5
	lockDuration    = 2 * time.Hour
	premiumFactor   = 5
	dayKeyFormat    = "2006-01-02"
)

// Accounts implements registration, login with lockout, and the per-day
// usage gate over an injected UserStore.
type Accounts struct {
	Users    store.UserStore
	Tokens   TokenService
	Config   config.Config
	Security *SecurityLog

	// Now is swappable in tests to cross lock and day boundaries.
	Now func() time.Time

	// Anonymous demo traffic shares one in-process counter at the base
	// limit; guests have no persisted usage record.
	guestMu    sync.Mutex
	guestCount int
	guestDate  string
}

func NewAccounts(users store.UserStore, tokens TokenService, cfg config.Config, security *SecurityLog) *Accounts {
	return &Accounts{
		Users:    users,
		Tokens:   tokens,
		Config:   cfg,
		Security: security,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register validates inputs, creates the user and returns it ready for
// auto-authentication. Duplicate username or email yields Conflict and no
// record is created.
func (a *Accounts) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if len(username) < 3 {
		return nil, ErrValidation("Username must be at least 3 characters")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrValidation("A valid email is required")
	}
	if err := a.checkPasswordPolicy(password); err != nil {
		return nil, err
	}
	hash, err := a.Tokens.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		IsActive:     true,
		UsageDate:    a.Now().Format(dayKeyFormat),
	}
	if err := a.Users.Create(ctx, user); err != nil {
		return nil, FromStore(err, "User not found", "Username or email already taken")
	}
	return user, nil
}

func (a *Accounts) checkPasswordPolicy(password string) error {
	if len(password) < a.Config.MinPasswordLength() {
		return ErrValidation("Password is too short")
	}
	if !a.Config.Hardened() {
		return nil
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return ErrValidation("Password must contain letters and digits")
	}
	return nil
}

// Login authenticates by username and password. The 5th consecutive failure
// locks the account for 2 hours; while locked every attempt fails regardless
// of the password. An expired lock resets the failure counter.
func (a *Accounts) Login(ctx context.Context, username, password string) (*models.User, error) {
	user, err := a.Users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAuthFailed("Invalid username or password")
		}
		return nil, err
	}
	now := a.Now()

	if user.IsLocked(now) {
		a.Security.Event("account_locked_attempt", "user", user.Username)
		return nil, ErrAccountLocked("Account is temporarily locked, try again later")
	}
	if user.LockUntil != nil {
		// Lock elapsed: counter starts fresh.
		user.LockUntil = nil
		user.FailedLogins = 0
	}

	if !user.IsActive {
		return nil, ErrForbidden("Account is deactivated")
	}

	if !a.Tokens.VerifyPassword(password, user.PasswordHash) {
		user.FailedLogins++
		if user.FailedLogins >= maxFailedLogins {
			until := now.Add(lockDuration)
			user.LockUntil = &until
			a.Security.Event("account_locked", "user", user.Username)
		}
		if err := a.Users.Update(ctx, user); err != nil {
			return nil, err
		}
		return nil, ErrAuthFailed("Invalid username or password")
	}

	user.FailedLogins = 0
	user.LockUntil = nil
	login := now
	user.LastLoginAt = &login
	if err := a.Users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DailyLimit scales the base quota by role. Zero or negative means
// unlimited.
func (a *Accounts) DailyLimit(role string) int {
	base := a.Config.DailyQuestionLimit
	switch role {
	case models.RoleAdmin:
		return 0
	case models.RolePremium:
		return base * premiumFactor
	default:
		return base
	}
}

// CanAskQuestion reports whether the user is under the role-scaled daily
// limit, resetting the counter when the stored day key differs from today.
// The mutation is persisted by ConsumeQuestion, not here.
func (a *Accounts) CanAskQuestion(user *models.User) bool {
	a.rollUsageWindow(user)
	limit := a.DailyLimit(user.Role)
	return limit <= 0 || user.QuestionsToday < limit
}

// RemainingToday returns the questions left today; -1 means unlimited.
func (a *Accounts) RemainingToday(user *models.User) int {
	a.rollUsageWindow(user)
	limit := a.DailyLimit(user.Role)
	if limit <= 0 {
		return -1
	}
	remaining := limit - user.QuestionsToday
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// ConsumeQuestion increments the daily and monthly counters and persists the
// user. Callers must have passed CanAskQuestion first.
func (a *Accounts) ConsumeQuestion(ctx context.Context, user *models.User) error {
	a.rollUsageWindow(user)
	user.QuestionsToday++
	user.QuestionsMonth++
	return a.Users.Update(ctx, user)
}

// CanGuestAsk reports whether the shared guest counter is under the base
// daily limit.
func (a *Accounts) CanGuestAsk() bool {
	limit := a.Config.DailyQuestionLimit
	if limit <= 0 {
		return true
	}
	a.guestMu.Lock()
	defer a.guestMu.Unlock()
	a.rollGuestWindow()
	return a.guestCount < limit
}

// ConsumeGuestQuestion charges one question to the shared guest counter.
func (a *Accounts) ConsumeGuestQuestion() {
	a.guestMu.Lock()
	defer a.guestMu.Unlock()
	a.rollGuestWindow()
	a.guestCount++
}

// GuestRemainingToday mirrors RemainingToday for the guest counter; -1 means
// unlimited.
func (a *Accounts) GuestRemainingToday() int {
	limit := a.Config.DailyQuestionLimit
	if limit <= 0 {
		return -1
	}
	a.guestMu.Lock()
	defer a.guestMu.Unlock()
	a.rollGuestWindow()
	remaining := limit - a.guestCount
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// rollGuestWindow resets the counter on day change; callers hold guestMu.
func (a *Accounts) rollGuestWindow() {
	today := a.Now().Format(dayKeyFormat)
	if a.guestDate != today {
		a.guestCount = 0
		a.guestDate = today
	}
}

func (a *Accounts) rollUsageWindow(user *models.User) {
	today := a.Now().Format(dayKeyFormat)
	if user.UsageDate == today {
		return
	}
	if len(user.UsageDate) < 7 || user.UsageDate[:7] != today[:7] {
		user.QuestionsMonth = 0
	}
	user.QuestionsToday = 0
	user.UsageDate = today
}

// EnsureDemoUser seeds the demo account used by the public playground.
// Existing users are left untouched.
func (a *Accounts) EnsureDemoUser(ctx context.Context) error {
	hash, err := a.Tokens.HashPassword("demo123")
	if err != nil {
		return err
	}
	user := &models.User{
		Username:     "demo",
		Email:        "demo@example.com",
		PasswordHash: hash,
		Role:         models.RoleUser,
		IsActive:     true,
		UsageDate:    a.Now().Format(dayKeyFormat),
	}
	if err := a.Users.Create(ctx, user); err != nil && !errors.Is(err, store.ErrConflict) {
		return err
	}
	return nil
}
