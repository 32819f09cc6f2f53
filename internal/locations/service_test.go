package locations_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moridelogica/backoffice/internal/domain"
	"github.com/moridelogica/backoffice/internal/locations"
	"github.com/moridelogica/backoffice/internal/store"
	"github.com/moridelogica/backoffice/internal/store/memory"
)

func TestAddAndList(t *testing.T) {
	ctx := context.Background()
	svc := locations.NewService(memory.New(), nil)

	loc, err := svc.Add(ctx, "Warehouse A")
	require.NoError(t, err)
	assert.NotEmpty(t, loc.ID)
	assert.NotEmpty(t, loc.CreatedAt)

	_, err = svc.Add(ctx, "Warehouse B")
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	names := map[string]bool{}
	for _, l := range list {
		names[l.Name] = true
	}
	assert.True(t, names["Warehouse A"] && names["Warehouse B"])
}

func TestAddRejectsBlankName(t *testing.T) {
	ctx := context.Background()
	svc := locations.NewService(memory.New(), nil)

	for _, name := range []string{"", "   ", "\t"} {
		_, err := svc.Add(ctx, name)
		assert.ErrorIs(t, err, domain.ErrValidation, "name %q", name)
	}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc := locations.NewService(memory.New(), nil)

	loc, err := svc.Add(ctx, "Warehouse A")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, loc.ID))

	err = svc.Delete(ctx, loc.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
