package services

import (
	"context"
	"strings"

	"github.com/readyresponse/dispatch/internal/apperrors"
	"github.com/readyresponse/dispatch/internal/models"
	"github.com/readyresponse/dispatch/internal/rbac"
	"github.com/readyresponse/dispatch/internal/types"
)

type UserService struct {
	deps Deps
}

// counterpart maps a searcher's role to the role they are allowed to find.
var counterpart = map[string]string{
	types.RoleCoordinator: types.RoleAgency,
	types.RoleAgency:      types.RoleCoordinator,
}

// Search is the coordinator/agency directory lookup, matching names
// case-insensitively.
func (s *UserService) Search(ctx context.Context, actor types.AuthenticatedUser, query string) ([]types.UserResponse, error) {
	target, ok := counterpart[actor.Role]
	if !ok || !s.deps.Policy.Allowed(actor.Role, rbac.PermUserSearch) {
		return nil, apperrors.Forbidden("Not allowed")
	}

	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(query))) + "%"

	users := []types.UserResponse{}
	if err := s.deps.conn(ctx).Model(&models.User{}).
		Select("id, name, role").
		Where("role = ? AND LOWER(name) LIKE ? ESCAPE '\\'", target, pattern).
		Order("name ASC").
		Scan(&users).Error; err != nil {
		return nil, apperrors.Internal("Failed to search users", err)
	}

	return users, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
