package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glasspro-backend/models"
	"glasspro-backend/pricing"
	"glasspro-backend/store"
)

func TestProfileDefaultsWhenMissing(t *testing.T) {
	session, _ := newTestSession(t, "t1")
	profile, err := NewProfileRepository(session).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile(), profile)
	assert.NotNil(t, profile.WorkflowOptions.GlassTypes)
}

func TestProfileUpdateCompanyMerges(t *testing.T) {
	session, _ := newTestSession(t, "t1")
	repo := NewProfileRepository(session)
	ctx := context.Background()

	_, err := repo.AddOption(ctx, models.GlassTypes, models.WorkflowOptionInput{Name: "Windshield", Cost: "250"})
	require.NoError(t, err)

	profile, err := repo.UpdateCompany(ctx, models.CompanyPatch{
		CompanyName:  ptr(" Clear View Glass "),
		SalesTaxRate: ptr(pricing.RawNumber("8.25")),
	})
	require.NoError(t, err)
	assert.Equal(t, "Clear View Glass", profile.CompanyName)
	assert.Equal(t, 8.25, profile.SalesTaxRate)
	require.Len(t, profile.WorkflowOptions.GlassTypes, 1)

	profile, err = repo.UpdateCompany(ctx, models.CompanyPatch{Phone: ptr("555-0100")})
	require.NoError(t, err)
	assert.Equal(t, "Clear View Glass", profile.CompanyName)
	assert.Equal(t, "555-0100", profile.Phone)

	_, err = repo.UpdateCompany(ctx, models.CompanyPatch{Email: ptr("nope")})
	assert.ErrorAs(t, err, new(*ValidationError))
}

func TestWorkflowOptionsKeepStableIDs(t *testing.T) {
	session, _ := newTestSession(t, "t1")
	repo := NewProfileRepository(session)
	ctx := context.Background()

	first, err := repo.AddOption(ctx, models.DamageTypes, models.WorkflowOptionInput{Name: "Chip", Cost: "50"})
	require.NoError(t, err)
	second, err := repo.AddOption(ctx, models.DamageTypes, models.WorkflowOptionInput{Name: "Crack", Cost: "80", Quantity: "2"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	require.NoError(t, repo.DeleteOption(ctx, models.DamageTypes, first.ID))

	updated, err := repo.UpdateOption(ctx, models.DamageTypes, second.ID, models.WorkflowOptionInput{Name: "Long crack", Cost: "95", DiscountType: "flat", DiscountValue: "5"})
	require.NoError(t, err)
	assert.Equal(t, second.ID, updated.ID)

	profile, err := repo.Get(ctx)
	require.NoError(t, err)
	require.Len(t, profile.WorkflowOptions.DamageTypes, 1)
	opt := profile.WorkflowOptions.DamageTypes[0]
	assert.Equal(t, second.ID, opt.ID)
	assert.Equal(t, "Long crack", opt.Name)
	assert.Equal(t, 95.0, opt.Cost)
	assert.Equal(t, 1, opt.Quantity)
	assert.Equal(t, pricing.DiscountFlat, opt.DiscountType)
}

func TestWorkflowOptionErrors(t *testing.T) {
	session, _ := newTestSession(t, "t1")
	repo := NewProfileRepository(session)
	ctx := context.Background()

	_, err := repo.AddOption(ctx, models.GlassTypes, models.WorkflowOptionInput{Name: " "})
	assert.ErrorAs(t, err, new(*ValidationError))

	_, err = repo.UpdateOption(ctx, models.GlassTypes, "missing", models.WorkflowOptionInput{Name: "X"})
	assert.ErrorIs(t, err, ErrOptionNotFound)
	assert.ErrorIs(t, repo.DeleteOption(ctx, models.GlassTypes, "missing"), ErrOptionNotFound)

	_, err = repo.AddOption(ctx, models.WorkflowList("tints"), models.WorkflowOptionInput{Name: "X"})
	assert.ErrorIs(t, err, ErrUnknownList)
}

func TestLegacyOptionsGetDeterministicIDs(t *testing.T) {
	session, live := newTestSession(t, "t1")
	ctx := context.Background()
	require.NoError(t, live.SetMerge(ctx, "t1", store.CollectionProfile, store.ProfileDocumentID, map[string]any{
		"jobWorkflowOptions": map[string]any{
			"glassTypes": []any{
				map[string]any{"name": "Windshield", "cost": "250"},
				map[string]any{"name": "Side", "cost": 120},
			},
		},
	}))
	repo := NewProfileRepository(session)

	a, err := repo.Get(ctx)
	require.NoError(t, err)
	b, err := repo.Get(ctx)
	require.NoError(t, err)
	require.Len(t, a.WorkflowOptions.GlassTypes, 2)
	assert.Equal(t, a.WorkflowOptions.GlassTypes, b.WorkflowOptions.GlassTypes)
	assert.NotEqual(t, a.WorkflowOptions.GlassTypes[0].ID, a.WorkflowOptions.GlassTypes[1].ID)
	assert.Equal(t, 250.0, a.WorkflowOptions.GlassTypes[0].Cost)

	// Deleting the first legacy option keeps the second one's id.
	second := a.WorkflowOptions.GlassTypes[1].ID
	require.NoError(t, repo.DeleteOption(ctx, models.GlassTypes, a.WorkflowOptions.GlassTypes[0].ID))
	after, err := repo.Get(ctx)
	require.NoError(t, err)
	require.Len(t, after.WorkflowOptions.GlassTypes, 1)
	assert.Equal(t, second, after.WorkflowOptions.GlassTypes[0].ID)
}

func TestProfileWithoutTenant(t *testing.T) {
	_, live := newTestSession(t, "t1")
	repo := NewProfileRepository(store.NewSession("", live))
	ctx := context.Background()

	profile, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile(), profile)

	_, err = repo.UpdateCompany(ctx, models.CompanyPatch{CompanyName: ptr("X")})
	assert.ErrorIs(t, err, store.ErrNoTenant)
	_, err = repo.AddOption(ctx, models.GlassTypes, models.WorkflowOptionInput{Name: "X"})
	assert.ErrorIs(t, err, store.ErrNoTenant)
}
