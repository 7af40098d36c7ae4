// Package rbac maps roles to permissions with inheritance and wildcards.
//
// Permissions are dot-separated scopes such as "bills.create". A role may grant
// "bills.*" to cover every bills permission or "*" to cover everything. Roles
// can inherit other roles; the authorizer flattens inheritance once at
// construction and rejects cycles, so checks at runtime are plain lookups.
//
//	auth, err := rbac.NewAuthorizer(ctx, rbac.StaticSource{
//	    "operator": {Permissions: []string{"*"}},
//	    "owner":    {Permissions: []string{"rooms.*", "bills.*"}},
//	})
//	if err := auth.Can("owner", "plans.manage"); errors.Is(err, rbac.ErrInsufficientPermissions) {
//	    // deny
//	}
//
// Roles can also be loaded from YAML with FileSource.
package rbac
