package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"glasspro-backend/models"
	"glasspro-backend/pricing"
	"glasspro-backend/store"
)

// ErrOptionNotFound is returned when a workflow option id is not in its list.
var ErrOptionNotFound = errors.New("workflow option not found")

// ErrUnknownList is returned for a workflow list name that does not exist.
var ErrUnknownList = errors.New("unknown workflow list")

type ProfileRepository struct {
	session *store.Session
}

func NewProfileRepository(session *store.Session) *ProfileRepository {
	return &ProfileRepository{session: session}
}

type optionRecord struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Cost          pricing.RawNumber `json:"cost"`
	Quantity      pricing.RawNumber `json:"quantity"`
	DiscountType  string            `json:"discountType"`
	DiscountValue pricing.RawNumber `json:"discountValue"`
}

type profileRecord struct {
	CompanyName     string            `json:"companyName"`
	Address         string            `json:"address"`
	Phone           string            `json:"phone"`
	Email           string            `json:"email"`
	SalesTaxRate    pricing.RawNumber `json:"salesTaxRate"`
	WorkflowOptions struct {
		GlassTypes               []optionRecord `json:"glassTypes"`
		DamageTypes              []optionRecord `json:"damageTypes"`
		RepairReplacementOptions []optionRecord `json:"repairReplacementOptions"`
	} `json:"jobWorkflowOptions"`
}

// DefaultProfile is what a tenant sees before saving any settings.
func DefaultProfile() models.TenantProfile {
	return models.TenantProfile{
		WorkflowOptions: models.WorkflowOptions{
			GlassTypes:               []models.WorkflowOption{},
			DamageTypes:              []models.WorkflowOption{},
			RepairReplacementOptions: []models.WorkflowOption{},
		},
	}
}

func decodeProfile(doc store.Document) (models.TenantProfile, error) {
	var rec profileRecord
	if err := decodeData(doc.Data, &rec); err != nil {
		return models.TenantProfile{}, err
	}
	return models.TenantProfile{
		CompanyName:  rec.CompanyName,
		Address:      rec.Address,
		Phone:        rec.Phone,
		Email:        rec.Email,
		SalesTaxRate: rec.SalesTaxRate.Amount(),
		WorkflowOptions: models.WorkflowOptions{
			GlassTypes:               decodeOptions(models.GlassTypes, rec.WorkflowOptions.GlassTypes),
			DamageTypes:              decodeOptions(models.DamageTypes, rec.WorkflowOptions.DamageTypes),
			RepairReplacementOptions: decodeOptions(models.RepairReplacementOptions, rec.WorkflowOptions.RepairReplacementOptions),
		},
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

func decodeOptions(list models.WorkflowList, recs []optionRecord) []models.WorkflowOption {
	out := make([]models.WorkflowOption, 0, len(recs))
	for i, rec := range recs {
		id := rec.ID
		if id == "" {
			id = legacyOptionID(list, i, rec.Name)
		}
		out = append(out, models.WorkflowOption{
			ID:            id,
			Name:          rec.Name,
			Cost:          rec.Cost.Amount(),
			Quantity:      rec.Quantity.Quantity(),
			DiscountType:  pricing.ParseDiscountType(rec.DiscountType),
			DiscountValue: rec.DiscountValue.Amount(),
		})
	}
	return out
}

// legacyOptionID derives an id for options saved before options carried
// one. It is deterministic so every reader agrees on it until the list is
// next written, which persists the ids.
func legacyOptionID(list models.WorkflowList, position int, name string) string {
	key := fmt.Sprintf("%s/%d/%s", list, position, name)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

func encodeOptions(opts models.WorkflowOptions) map[string]any {
	encode := func(list []models.WorkflowOption) []any {
		out := make([]any, 0, len(list))
		for _, o := range list {
			out = append(out, map[string]any{
				"id":            o.ID,
				"name":          o.Name,
				"cost":          o.Cost,
				"quantity":      o.Quantity,
				"discountType":  string(o.DiscountType),
				"discountValue": o.DiscountValue,
			})
		}
		return out
	}
	return map[string]any{
		string(models.GlassTypes):               encode(opts.GlassTypes),
		string(models.DamageTypes):              encode(opts.DamageTypes),
		string(models.RepairReplacementOptions): encode(opts.RepairReplacementOptions),
	}
}

// Get returns the tenant profile, or DefaultProfile when none was saved.
func (r *ProfileRepository) Get(ctx context.Context) (models.TenantProfile, error) {
	if !r.session.Active() {
		return DefaultProfile(), nil
	}
	doc, err := r.session.Store.Get(ctx, r.session.TenantID, store.CollectionProfile, store.ProfileDocumentID)
	if errors.Is(err, store.ErrNotFound) {
		return DefaultProfile(), nil
	}
	if err != nil {
		return models.TenantProfile{}, err
	}
	return decodeProfile(doc)
}

// UpdateCompany merges the edited company fields into the profile,
// creating it on first save. Workflow options are left untouched.
func (r *ProfileRepository) UpdateCompany(ctx context.Context, patch models.CompanyPatch) (models.TenantProfile, error) {
	if !r.session.Active() {
		return models.TenantProfile{}, store.ErrNoTenant
	}
	patch.CompanyName = trimPtr(patch.CompanyName)
	patch.Address = trimPtr(patch.Address)
	patch.Phone = trimPtr(patch.Phone)
	patch.Email = trimPtr(patch.Email)
	if err := validateStruct(patch); err != nil {
		return models.TenantProfile{}, err
	}

	fields := map[string]any{}
	if patch.CompanyName != nil {
		fields["companyName"] = *patch.CompanyName
	}
	if patch.Address != nil {
		fields["address"] = *patch.Address
	}
	if patch.Phone != nil {
		fields["phone"] = *patch.Phone
	}
	if patch.Email != nil {
		fields["email"] = *patch.Email
	}
	if patch.SalesTaxRate != nil {
		fields["salesTaxRate"] = patch.SalesTaxRate.Amount()
	}
	if len(fields) > 0 {
		if err := r.session.Store.SetMerge(ctx, r.session.TenantID, store.CollectionProfile, store.ProfileDocumentID, fields); err != nil {
			return models.TenantProfile{}, err
		}
	}
	return r.Get(ctx)
}

func buildOption(in models.WorkflowOptionInput) (models.WorkflowOption, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in); err != nil {
		return models.WorkflowOption{}, err
	}
	return models.WorkflowOption{
		Name:          in.Name,
		Cost:          in.Cost.Amount(),
		Quantity:      in.Quantity.Quantity(),
		DiscountType:  pricing.ParseDiscountType(in.DiscountType),
		DiscountValue: in.DiscountValue.Amount(),
	}, nil
}

// AddOption appends a new option to the named list.
func (r *ProfileRepository) AddOption(ctx context.Context, list models.WorkflowList, in models.WorkflowOptionInput) (models.WorkflowOption, error) {
	opt, err := buildOption(in)
	if err != nil {
		return models.WorkflowOption{}, err
	}
	opt.ID = uuid.NewString()
	err = r.editOptions(ctx, list, func(items []models.WorkflowOption) ([]models.WorkflowOption, error) {
		return append(items, opt), nil
	})
	if err != nil {
		return models.WorkflowOption{}, err
	}
	return opt, nil
}

// UpdateOption replaces the option with the given id, keeping its position.
func (r *ProfileRepository) UpdateOption(ctx context.Context, list models.WorkflowList, id string, in models.WorkflowOptionInput) (models.WorkflowOption, error) {
	opt, err := buildOption(in)
	if err != nil {
		return models.WorkflowOption{}, err
	}
	opt.ID = id
	err = r.editOptions(ctx, list, func(items []models.WorkflowOption) ([]models.WorkflowOption, error) {
		for i := range items {
			if items[i].ID == id {
				items[i] = opt
				return items, nil
			}
		}
		return nil, ErrOptionNotFound
	})
	if err != nil {
		return models.WorkflowOption{}, err
	}
	return opt, nil
}

// DeleteOption removes the option with the given id.
func (r *ProfileRepository) DeleteOption(ctx context.Context, list models.WorkflowList, id string) error {
	return r.editOptions(ctx, list, func(items []models.WorkflowOption) ([]models.WorkflowOption, error) {
		for i := range items {
			if items[i].ID == id {
				return append(items[:i], items[i+1:]...), nil
			}
		}
		return nil, ErrOptionNotFound
	})
}

// editOptions reads the current options, applies edit to one list and
// writes all three lists back as a single field.
func (r *ProfileRepository) editOptions(ctx context.Context, list models.WorkflowList, edit func([]models.WorkflowOption) ([]models.WorkflowOption, error)) error {
	if !r.session.Active() {
		return store.ErrNoTenant
	}
	profile, err := r.Get(ctx)
	if err != nil {
		return err
	}
	opts := profile.WorkflowOptions
	target := opts.List(list)
	if target == nil {
		return ErrUnknownList
	}
	edited, err := edit(append([]models.WorkflowOption(nil), (*target)...))
	if err != nil {
		return err
	}
	*target = edited
	return r.session.Store.SetMerge(ctx, r.session.TenantID, store.CollectionProfile, store.ProfileDocumentID, map[string]any{
		"jobWorkflowOptions": encodeOptions(opts),
	})
}

// Watch streams the profile after every change. Each value holds exactly
// one profile.
func (r *ProfileRepository) Watch(ctx context.Context) (*Stream[models.TenantProfile], error) {
	if !r.session.Active() {
		return nil, store.ErrNoTenant
	}
	session := r.session
	open := func(ctx context.Context) (*store.Subscription, error) {
		return session.Store.Subscribe(ctx, session.TenantID, store.CollectionProfile)
	}
	return newStream(ctx, open, func(snap store.Snapshot) []models.TenantProfile {
		for _, doc := range snap.Documents {
			if doc.ID != store.ProfileDocumentID {
				continue
			}
			if p, err := decodeProfile(doc); err == nil {
				return []models.TenantProfile{p}
			}
		}
		return []models.TenantProfile{DefaultProfile()}
	}), nil
}
