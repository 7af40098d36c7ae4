package rbac

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Role is a set of permissions plus the roles it inherits from.
type Role struct {
	Permissions []string `yaml:"permissions"`
	Inherits    []string `yaml:"inherits"`
}

// RoleSource provides role definitions.
type RoleSource interface {
	Load(ctx context.Context) (map[string]Role, error)
}

// StaticSource serves roles defined in code.
type StaticSource map[string]Role

func (s StaticSource) Load(context.Context) (map[string]Role, error) {
	return s, nil
}

// FileSource reads roles from a YAML document keyed by role name:
//
//	owner:
//	  permissions: [rooms.*, bills.*]
//	operator:
//	  inherits: [owner]
//	  permissions: [plans.manage]
type FileSource string

func (f FileSource) Load(context.Context) (map[string]Role, error) {
	raw, err := os.ReadFile(string(f))
	if err != nil {
		return nil, errors.Join(ErrLoadRoles, err)
	}
	var roles map[string]Role
	if err := yaml.Unmarshal(raw, &roles); err != nil {
		return nil, errors.Join(ErrLoadRoles, fmt.Errorf("parse %s: %w", f, err))
	}
	return roles, nil
}
