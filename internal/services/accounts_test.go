package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"excelbot-backend-go/internal/config"
	"excelbot-backend-go/internal/models"
	"excelbot-backend-go/internal/store"
)

func newTestAccounts(t *testing.T, cfg config.Config) *Accounts {
	t.Helper()
	tokens := TokenService{
		Secret:     []byte("test-secret"),
		Issuer:     "test",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
		BcryptCost: 10,
	}
	return NewAccounts(store.NewMemoryUserStore(), tokens, cfg, nil)
}

func demoConfig() config.Config {
	return config.Config{Profile: config.ProfileDemo, DailyQuestionLimit: 2}
}

func TestRegisterDuplicateUsernameConflicts(t *testing.T) {
	accounts := newTestAccounts(t, demoConfig())
	ctx := context.Background()

	_, err := accounts.Register(ctx, "alice", "alice@example.com", "secret1")
	require.NoError(t, err)

	_, err = accounts.Register(ctx, "alice", "other@example.com", "secret1")
	var svcErr ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, 409, svcErr.Status)
	assert.Equal(t, CodeConflict, svcErr.Code)
}

func TestRegisterValidation(t *testing.T) {
	accounts := newTestAccounts(t, demoConfig())
	ctx := context.Background()

	cases := map[string][3]string{
		"short username": {"ab", "a@example.com", "secret1"},
		"bad email":      {"alice", "not-an-email", "secret1"},
		"short password": {"alice", "a@example.com", "abc"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := accounts.Register(ctx, tc[0], tc[1], tc[2])
			var svcErr ServiceError
			require.ErrorAs(t, err, &svcErr)
			assert.Equal(t, 400, svcErr.Status)
		})
	}
}

func TestHardenedPasswordPolicy(t *testing.T) {
	cfg := demoConfig()
	cfg.Profile = config.ProfileHardened
	accounts := newTestAccounts(t, cfg)
	ctx := context.Background()

	_, err := accounts.Register(ctx, "alice", "a@example.com", "lettersonly")
	var svcErr ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, CodeValidation, svcErr.Code)

	_, err = accounts.Register(ctx, "alice", "a@example.com", "letters123")
	require.NoError(t, err)
}

func TestLoginLockout(t *testing.T) {
	accounts := newTestAccounts(t, demoConfig())
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	accounts.Now = func() time.Time { return now }

	_, err := accounts.Register(ctx, "bob", "bob@example.com", "correct1")
	require.NoError(t, err)

	// Five consecutive failures set the lock.
	for i := 0; i < 5; i++ {
		_, err = accounts.Login(ctx, "bob", "wrong")
		var svcErr ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, 401, svcErr.Status, "attempt %d", i+1)
	}

	// The right password is rejected while the lock holds.
	_, err = accounts.Login(ctx, "bob", "correct1")
	var svcErr ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, 423, svcErr.Status)
	assert.Equal(t, CodeAccountLocked, svcErr.Code)

	// Once the lock elapses a correct login succeeds and resets the counter.
	now = now.Add(2*time.Hour + time.Minute)
	user, err := accounts.Login(ctx, "bob", "correct1")
	require.NoError(t, err)
	assert.Zero(t, user.FailedLogins)
	assert.Nil(t, user.LockUntil)
}

func TestLoginWrongUserIndistinguishable(t *testing.T) {
	accounts := newTestAccounts(t, demoConfig())

	_, err := accounts.Login(context.Background(), "nobody", "whatever")
	var svcErr ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, 401, svcErr.Status)
}

func TestUsageGate(t *testing.T) {
	accounts := newTestAccounts(t, demoConfig())
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	accounts.Now = func() time.Time { return now }

	user, err := accounts.Register(ctx, "carol", "carol@example.com", "secret1")
	require.NoError(t, err)

	assert.True(t, accounts.CanAskQuestion(user))
	assert.Equal(t, 2, accounts.RemainingToday(user))

	require.NoError(t, accounts.ConsumeQuestion(ctx, user))
	require.NoError(t, accounts.ConsumeQuestion(ctx, user))
	assert.False(t, accounts.CanAskQuestion(user))
	assert.Equal(t, 0, accounts.RemainingToday(user))
	assert.Equal(t, 2, user.QuestionsMonth)

	// Crossing the day boundary resets the daily counter but not the month.
	now = now.Add(24 * time.Hour)
	assert.True(t, accounts.CanAskQuestion(user))
	assert.Zero(t, user.QuestionsToday)
	assert.Equal(t, 2, user.QuestionsMonth)

	// A new month clears the monthly counter too.
	now = now.AddDate(0, 1, 0)
	accounts.rollUsageWindow(user)
	assert.Zero(t, user.QuestionsMonth)
}

func TestRoleScaledLimits(t *testing.T) {
	accounts := newTestAccounts(t, demoConfig())

	assert.Equal(t, 2, accounts.DailyLimit(models.RoleUser))
	assert.Equal(t, 10, accounts.DailyLimit(models.RolePremium))
	assert.Equal(t, 0, accounts.DailyLimit(models.RoleAdmin))

	admin := &models.User{Role: models.RoleAdmin, UsageDate: accounts.Now().Format(dayKeyFormat)}
	assert.True(t, accounts.CanAskQuestion(admin))
	assert.Equal(t, -1, accounts.RemainingToday(admin))
}

func TestGuestQuotaRollsDaily(t *testing.T) {
	accounts := newTestAccounts(t, demoConfig())
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	accounts.Now = func() time.Time { return now }

	require.True(t, accounts.CanGuestAsk())
	accounts.ConsumeGuestQuestion()
	accounts.ConsumeGuestQuestion()
	assert.False(t, accounts.CanGuestAsk())
	assert.Equal(t, 0, accounts.GuestRemainingToday())

	now = now.AddDate(0, 0, 1)
	assert.True(t, accounts.CanGuestAsk())
	assert.Equal(t, demoConfig().DailyQuestionLimit, accounts.GuestRemainingToday())
}

func TestEnsureDemoUserIdempotent(t *testing.T) {
	accounts := newTestAccounts(t, demoConfig())
	ctx := context.Background()

	require.NoError(t, accounts.EnsureDemoUser(ctx))
	require.NoError(t, accounts.EnsureDemoUser(ctx))

	user, err := accounts.Login(ctx, "demo", "demo123")
	require.NoError(t, err)
	assert.Equal(t, "demo", user.Username)
}
