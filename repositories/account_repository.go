package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"glasspro-backend/models"
	"glasspro-backend/store"
	"glasspro-backend/utils"
)

var (
	ErrAccountExists      = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// AccountRepository keeps logins in the system partition, keyed by the
// lower-cased email. Each account gets a fresh tenant id.
type AccountRepository struct {
	store store.RecordStore
	now   func() time.Time
}

func NewAccountRepository(st store.RecordStore) *AccountRepository {
	return &AccountRepository{store: st, now: time.Now}
}

type accountRecord struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	PasswordHash string `json:"passwordHash"`
	CreatedAt    string `json:"createdAt"`
	LastLogin    string `json:"lastLogin"`
}

func accountKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func decodeAccount(doc store.Document) (models.Account, error) {
	var rec accountRecord
	if err := decodeData(doc.Data, &rec); err != nil {
		return models.Account{}, err
	}
	acc := models.Account{
		ID:           rec.ID,
		Email:        rec.Email,
		Name:         rec.Name,
		Phone:        rec.Phone,
		PasswordHash: rec.PasswordHash,
		CreatedAt:    doc.CreatedAt,
	}
	if t, err := time.Parse(time.RFC3339Nano, rec.LastLogin); err == nil {
		acc.LastLogin = &t
	}
	return acc, nil
}

// Register creates a login. The password is stored as a bcrypt hash.
func (r *AccountRepository) Register(ctx context.Context, in models.RegisterInput) (models.Account, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	if err := validateStruct(in); err != nil {
		return models.Account{}, err
	}
	if in.Phone != "" && !utils.ValidatePhone(in.Phone) {
		return models.Account{}, &ValidationError{Field: "phone", Message: "is not a valid phone number"}
	}

	key := accountKey(in.Email)
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return models.Account{}, err
	}
	now := r.now().UTC()
	data := map[string]any{
		"id":           uuid.NewString(),
		"email":        key,
		"name":         in.Name,
		"phone":        in.Phone,
		"passwordHash": hash,
		"createdAt":    now.Format(time.RFC3339Nano),
	}
	// The email is the document id, so of two concurrent sign-ups only one
	// creates the account.
	err = r.store.CreateWithID(ctx, store.SystemTenant, store.CollectionAccounts, key, data)
	if errors.Is(err, store.ErrAlreadyExists) {
		return models.Account{}, ErrAccountExists
	}
	if err != nil {
		return models.Account{}, err
	}
	return r.Get(ctx, key)
}

// Get looks an account up by email.
func (r *AccountRepository) Get(ctx context.Context, email string) (models.Account, error) {
	doc, err := r.store.Get(ctx, store.SystemTenant, store.CollectionAccounts, accountKey(email))
	if err != nil {
		return models.Account{}, err
	}
	return decodeAccount(doc)
}

// Authenticate checks the password and records the login time. Unknown
// emails and wrong passwords return the same error.
func (r *AccountRepository) Authenticate(ctx context.Context, in models.LoginInput) (models.Account, error) {
	if err := validateStruct(in); err != nil {
		return models.Account{}, err
	}
	acc, err := r.Get(ctx, in.Email)
	if errors.Is(err, store.ErrNotFound) {
		return models.Account{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.Account{}, err
	}
	if !utils.CheckPasswordHash(in.Password, acc.PasswordHash) {
		return models.Account{}, ErrInvalidCredentials
	}

	now := r.now().UTC()
	if err := r.store.Update(ctx, store.SystemTenant, store.CollectionAccounts, accountKey(in.Email), map[string]any{
		"lastLogin": now.Format(time.RFC3339Nano),
	}); err != nil {
		utils.Logger.WithError(err).Warnf("Could not record login for %s", acc.ID)
	} else {
		acc.LastLogin = &now
	}
	return acc, nil
}
