package kos_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/koskit/modules/kos"
	"github.com/dmitrymomot/koskit/modules/kos/memstore"
	"github.com/dmitrymomot/koskit/pkg/rbac"
)

func TestNewService_Roles(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("default roles", func(t *testing.T) {
		t.Parallel()
		svc, err := kos.NewService(ctx, memstore.New())
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})

	t.Run("custom roles must define owner and operator", func(t *testing.T) {
		t.Parallel()
		authz, err := rbac.NewAuthorizer(ctx, rbac.StaticSource{
			kos.RoleOwner: {Permissions: []string{"*"}},
		})
		require.NoError(t, err)

		_, err = kos.NewService(ctx, memstore.New(), kos.WithAuthorizer(authz))
		require.ErrorIs(t, err, kos.ErrFailedToLoadRoles)
		require.ErrorIs(t, err, rbac.ErrInvalidRole)
	})
}
