package rbac_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/koskit/pkg/rbac"
)

func testRoles() rbac.StaticSource {
	return rbac.StaticSource{
		"viewer":   {Permissions: []string{"rooms.read", "bills.read"}},
		"owner":    {Permissions: []string{"rooms.*", "bills.*", "payments.submit"}, Inherits: []string{"viewer"}},
		"operator": {Permissions: []string{"*"}},
	}
}

func TestAuthorizer_Can(t *testing.T) {
	t.Parallel()
	auth, err := rbac.NewAuthorizer(context.Background(), testRoles())
	require.NoError(t, err)

	tests := []struct {
		name       string
		role       string
		permission string
		wantErr    error
	}{
		{"direct permission", "viewer", "rooms.read", nil},
		{"namespace wildcard", "owner", "bills.cancel", nil},
		{"inherited", "owner", "bills.read", nil},
		{"global wildcard", "operator", "plans.manage", nil},
		{"denied", "owner", "payments.confirm", rbac.ErrInsufficientPermissions},
		{"wildcard does not cover bare namespace", "owner", "rooms", rbac.ErrInsufficientPermissions},
		{"unknown role", "ghost", "rooms.read", rbac.ErrInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := auth.Can(tt.role, tt.permission)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAuthorizer_Roles(t *testing.T) {
	t.Parallel()
	auth, err := rbac.NewAuthorizer(context.Background(), testRoles())
	require.NoError(t, err)

	assert.Equal(t, []string{"operator", "owner", "viewer"}, auth.Roles())
	assert.NoError(t, auth.VerifyRole("owner"))
	assert.ErrorIs(t, auth.VerifyRole("ghost"), rbac.ErrInvalidRole)
}

func TestNewAuthorizer_Inheritance(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("cycle", func(t *testing.T) {
		_, err := rbac.NewAuthorizer(ctx, rbac.StaticSource{
			"a": {Inherits: []string{"b"}},
			"b": {Inherits: []string{"a"}},
		})
		assert.ErrorIs(t, err, rbac.ErrCircularInheritance)
	})

	t.Run("unknown parent", func(t *testing.T) {
		_, err := rbac.NewAuthorizer(ctx, rbac.StaticSource{
			"a": {Inherits: []string{"missing"}},
		})
		assert.ErrorIs(t, err, rbac.ErrUnknownInheritedRole)
	})

	t.Run("too deep", func(t *testing.T) {
		roles := rbac.StaticSource{"r0": {Permissions: []string{"x"}}}
		for i := 1; i <= rbac.MaxInheritanceDepth+2; i++ {
			roles[roleName(i)] = rbac.Role{Inherits: []string{roleName(i - 1)}}
		}
		_, err := rbac.NewAuthorizer(ctx, roles)
		assert.ErrorIs(t, err, rbac.ErrCircularInheritance)
	})
}

func roleName(i int) string {
	return fmt.Sprintf("r%d", i)
}

func TestFileSource(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "roles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
owner:
  permissions: [rooms.*, bills.*]
operator:
  inherits: [owner]
  permissions: [plans.manage]
`), 0o600))

	auth, err := rbac.NewAuthorizer(context.Background(), rbac.FileSource(path))
	require.NoError(t, err)
	assert.NoError(t, auth.Can("operator", "rooms.create"))
	assert.NoError(t, auth.Can("operator", "plans.manage"))
	assert.ErrorIs(t, auth.Can("owner", "plans.manage"), rbac.ErrInsufficientPermissions)

	_, err = rbac.NewAuthorizer(context.Background(), rbac.FileSource(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.ErrorIs(t, err, rbac.ErrLoadRoles)
}

func TestMatches(t *testing.T) {
	t.Parallel()
	assert.True(t, rbac.Matches("bills.create", "bills.create"))
	assert.True(t, rbac.Matches("bills.create", "bills.*"))
	assert.True(t, rbac.Matches("bills.items.add", "bills.*"))
	assert.True(t, rbac.Matches("anything", "*"))
	assert.False(t, rbac.Matches("billsx.create", "bills.*"))
	assert.False(t, rbac.Matches("bills", "bills.*"))
}
