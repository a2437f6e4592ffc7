package rbac

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultActions are the action verbs expanded for each resource when
// no explicit list is configured.
var DefaultActions = []string{"view", "create", "edit", "delete"}

// Generator expands registered resources into catalog permissions,
// e.g. resource "users" becomes view_users, create_users, edit_users
// and delete_users.
type Generator struct {
	service *Service
	actions []string
	titler  cases.Caser
}

// NewGenerator builds a Generator. An empty action list falls back to
// DefaultActions.
func NewGenerator(service *Service, actions []string) *Generator {
	if len(actions) == 0 {
		actions = DefaultActions
	}
	return &Generator{
		service: service,
		actions: actions,
		titler:  cases.Title(language.English),
	}
}

// PermissionName builds the canonical snake_case permission name.
func PermissionName(action, resource string) string {
	return strings.ToLower(strings.TrimSpace(action)) + "_" + strings.ToLower(strings.TrimSpace(resource))
}

// Label renders a human readable label for a permission name,
// e.g. "view_users" becomes "View Users".
func (g *Generator) Label(name string) string {
	return g.titler.String(strings.ReplaceAll(name, "_", " "))
}

// Generate ensures every (action, resource) permission exists under the
// guard and returns the ensured permissions in generation order.
func (g *Generator) Generate(ctx context.Context, guard string, resources []string) ([]Permission, error) {
	var ensured []Permission
	for _, resource := range resources {
		resource = strings.TrimSpace(resource)
		if resource == "" {
			continue
		}
		for _, action := range g.actions {
			perm, err := g.service.EnsurePermission(ctx, PermissionName(action, resource), guard)
			if err != nil {
				return nil, fmt.Errorf("rbac: generate %s for %s: %w", action, resource, err)
			}
			ensured = append(ensured, perm)
		}
	}
	return ensured, nil
}
