package rbac

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// MaxInheritanceDepth bounds role inheritance chains.
const MaxInheritanceDepth = 10

// Authorizer answers permission checks for named roles.
type Authorizer interface {
	Can(role, permission string) error
	VerifyRole(role string) error
	Roles() []string
}

type authorizer struct {
	// flattened permissions per role, read-only after construction
	permissions map[string][]string
}

// NewAuthorizer loads roles from source and resolves inheritance.
func NewAuthorizer(ctx context.Context, source RoleSource) (Authorizer, error) {
	roles, err := source.Load(ctx)
	if err != nil {
		return nil, err
	}

	a := &authorizer{permissions: make(map[string][]string, len(roles))}
	for name := range roles {
		perms, err := resolve(name, roles, nil)
		if err != nil {
			return nil, err
		}
		a.permissions[name] = normalize(perms)
	}
	return a, nil
}

func resolve(name string, roles map[string]Role, path []string) ([]string, error) {
	if slices.Contains(path, name) {
		return nil, errors.Join(ErrCircularInheritance,
			fmt.Errorf("circular inheritance: %s -> %s", strings.Join(path, " -> "), name))
	}
	if len(path) > MaxInheritanceDepth {
		return nil, errors.Join(ErrCircularInheritance,
			fmt.Errorf("inheritance depth exceeds %d at role %s", MaxInheritanceDepth, name))
	}

	role, ok := roles[name]
	if !ok {
		return nil, errors.Join(ErrUnknownInheritedRole, fmt.Errorf("role %q", name))
	}

	perms := slices.Clone(role.Permissions)
	for _, parent := range role.Inherits {
		inherited, err := resolve(parent, roles, append(slices.Clone(path), name))
		if err != nil {
			return nil, err
		}
		perms = append(perms, inherited...)
	}
	return perms, nil
}

func (a *authorizer) Can(role, permission string) error {
	perms, ok := a.permissions[role]
	if !ok {
		return ErrInvalidRole
	}
	if !granted(perms, permission) {
		return ErrInsufficientPermissions
	}
	return nil
}

func (a *authorizer) VerifyRole(role string) error {
	if _, ok := a.permissions[role]; !ok {
		return ErrInvalidRole
	}
	return nil
}

// Roles returns the defined role names in sorted order.
func (a *authorizer) Roles() []string {
	names := make([]string, 0, len(a.permissions))
	for name := range a.permissions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
