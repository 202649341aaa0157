package repositories

import (
	"context"
	"strings"

	"glasspro-backend/models"
	"glasspro-backend/store"
)

type CustomerRepository struct {
	session *store.Session
}

func NewCustomerRepository(session *store.Session) *CustomerRepository {
	return &CustomerRepository{session: session}
}

type customerRecord struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

func decodeCustomer(doc store.Document) (models.Customer, error) {
	var rec customerRecord
	if err := decodeData(doc.Data, &rec); err != nil {
		return models.Customer{}, err
	}
	return models.Customer{
		ID:        doc.ID,
		Name:      rec.Name,
		Phone:     rec.Phone,
		Email:     rec.Email,
		Address:   rec.Address,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

func (r *CustomerRepository) Create(ctx context.Context, in models.CustomerInput) (models.Customer, error) {
	if !r.session.Active() {
		return models.Customer{}, store.ErrNoTenant
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	in.Address = strings.TrimSpace(in.Address)
	if err := validateStruct(in); err != nil {
		return models.Customer{}, err
	}

	id, err := r.session.Store.Create(ctx, r.session.TenantID, store.CollectionCustomers, map[string]any{
		"name":    in.Name,
		"phone":   in.Phone,
		"email":   in.Email,
		"address": in.Address,
	})
	if err != nil {
		return models.Customer{}, err
	}
	return r.Get(ctx, id)
}

func (r *CustomerRepository) Get(ctx context.Context, id string) (models.Customer, error) {
	if !r.session.Active() {
		return models.Customer{}, store.ErrNotFound
	}
	doc, err := r.session.Store.Get(ctx, r.session.TenantID, store.CollectionCustomers, id)
	if err != nil {
		return models.Customer{}, err
	}
	return decodeCustomer(doc)
}

// List returns the tenant's customers in creation order.
func (r *CustomerRepository) List(ctx context.Context) ([]models.Customer, error) {
	if !r.session.Active() {
		return []models.Customer{}, nil
	}
	docs, err := r.session.Store.List(ctx, r.session.TenantID, store.CollectionCustomers)
	if err != nil {
		return nil, err
	}
	return decodeAll(store.Snapshot{TenantID: r.session.TenantID, Collection: store.CollectionCustomers, Documents: docs}, decodeCustomer), nil
}

// Update writes only the fields present in patch.
func (r *CustomerRepository) Update(ctx context.Context, id string, patch models.CustomerPatch) (models.Customer, error) {
	if !r.session.Active() {
		return models.Customer{}, store.ErrNoTenant
	}
	patch.Name = trimPtr(patch.Name)
	patch.Phone = trimPtr(patch.Phone)
	patch.Email = trimPtr(patch.Email)
	patch.Address = trimPtr(patch.Address)
	if patch.Name != nil && *patch.Name == "" {
		return models.Customer{}, requiredField("name")
	}
	if err := validateStruct(patch); err != nil {
		return models.Customer{}, err
	}

	fields := map[string]any{}
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.Phone != nil {
		fields["phone"] = *patch.Phone
	}
	if patch.Email != nil {
		fields["email"] = *patch.Email
	}
	if patch.Address != nil {
		fields["address"] = *patch.Address
	}
	if len(fields) > 0 {
		if err := r.session.Store.Update(ctx, r.session.TenantID, store.CollectionCustomers, id, fields); err != nil {
			return models.Customer{}, err
		}
	}
	return r.Get(ctx, id)
}

// Delete removes the customer. Jobs that reference it keep their copy of
// the customer name.
func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	if !r.session.Active() {
		return store.ErrNoTenant
	}
	return r.session.Store.Delete(ctx, r.session.TenantID, store.CollectionCustomers, id)
}

// Watch streams the full customer list after every change.
func (r *CustomerRepository) Watch(ctx context.Context) (*Stream[models.Customer], error) {
	if !r.session.Active() {
		return nil, store.ErrNoTenant
	}
	session := r.session
	open := func(ctx context.Context) (*store.Subscription, error) {
		return session.Store.Subscribe(ctx, session.TenantID, store.CollectionCustomers)
	}
	return newStream(ctx, open, func(snap store.Snapshot) []models.Customer {
		return decodeAll(snap, decodeCustomer)
	}), nil
}
