package repositories

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glasspro-backend/models"
	"glasspro-backend/store"
)

func newTestAccounts(t *testing.T) *AccountRepository {
	t.Helper()
	repo := NewAccountRepository(store.NewMemoryStore())
	repo.now = func() time.Time { return testNow }
	return repo
}

func validRegistration() models.RegisterInput {
	return models.RegisterInput{
		Email:       "Owner@Example.com",
		Name:        "Owner",
		Password:    "s3cret-pass",
		CompanyName: "Clear View Glass",
	}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	repo := newTestAccounts(t)
	ctx := context.Background()

	acc, err := repo.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.NotEmpty(t, acc.ID)
	assert.Equal(t, "owner@example.com", acc.Email)
	assert.NotEqual(t, "s3cret-pass", acc.PasswordHash)

	got, err := repo.Authenticate(ctx, models.LoginInput{Email: "OWNER@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)
	require.NotNil(t, got.LastLogin)
	assert.True(t, testNow.Equal(*got.LastLogin))

	stored, err := repo.Get(ctx, "owner@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogin)
}

func TestRegisterRejectsDuplicatesAndBadInput(t *testing.T) {
	repo := newTestAccounts(t)
	ctx := context.Background()

	_, err := repo.Register(ctx, validRegistration())
	require.NoError(t, err)
	_, err = repo.Register(ctx, validRegistration())
	assert.ErrorIs(t, err, ErrAccountExists)

	in := validRegistration()
	in.Email = "fresh@example.com"
	in.Password = "short"
	_, err = repo.Register(ctx, in)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password", verr.Field)

	in = validRegistration()
	in.Email = "fresh@example.com"
	in.Phone = "call me"
	_, err = repo.Register(ctx, in)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "phone", verr.Field)
}

func TestAuthenticateFailuresLookAlike(t *testing.T) {
	repo := newTestAccounts(t)
	ctx := context.Background()
	_, err := repo.Register(ctx, validRegistration())
	require.NoError(t, err)

	_, err = repo.Authenticate(ctx, models.LoginInput{Email: "owner@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = repo.Authenticate(ctx, models.LoginInput{Email: "nobody@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestConcurrentRegistrationHasOneWinner(t *testing.T) {
	repo := newTestAccounts(t)
	ctx := context.Background()

	const attempts = 4
	accounts := make([]models.Account, attempts)
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			accounts[i], errs[i] = repo.Register(ctx, validRegistration())
		}(i)
	}
	wg.Wait()

	var winner models.Account
	wins := 0
	for i, err := range errs {
		if err == nil {
			wins++
			winner = accounts[i]
			continue
		}
		assert.ErrorIs(t, err, ErrAccountExists)
	}
	require.Equal(t, 1, wins)

	stored, err := repo.Get(ctx, "owner@example.com")
	require.NoError(t, err)
	assert.Equal(t, winner.ID, stored.ID)
	assert.Equal(t, winner.PasswordHash, stored.PasswordHash)
}
