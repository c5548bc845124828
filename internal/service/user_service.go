package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"fileharbor/internal/auth"
	"fileharbor/internal/entity"
	"fileharbor/internal/model"
	"fileharbor/internal/rbac"
)

// UserService 负责用户资料与角色管理。
type UserService struct {
	repo model.Repository
}

func NewUserService(repo model.Repository) *UserService {
	return &UserService{repo: repo}
}

// ListUsers returns a page of user summaries.
func (s *UserService) ListUsers(ctx context.Context, params *entity.UserQuery) (*entity.UserListResponse, error) {
	users, meta, err := s.repo.ListUsers(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	summaries := make([]entity.UserSummary, 0, len(users))
	for i := range users {
		summaries = append(summaries, entity.MakeUserSummary(&users[i]))
	}
	return &entity.UserListResponse{Users: summaries, Meta: meta}, nil
}

// GetUser loads a single user by id.
func (s *UserService) GetUser(ctx context.Context, id uint) (*entity.DbUser, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

// UpdateProfile applies self-service changes to the current user. Password
// changes require the old password; email and username changes are checked
// for collisions before the update.
func (s *UserService) UpdateProfile(ctx context.Context, current *entity.DbUser, req *entity.UpdateProfileRequest) (*entity.UserSummary, error) {
	if current == nil {
		return nil, errors.New("current user is nil")
	}
	if req == nil {
		return nil, errors.New("update request is nil")
	}

	var updates entity.UserUpdates

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != "" && email != current.Email {
			if err := s.ensureIdentityFree(ctx, email, "", current.ID); err != nil {
				return nil, err
			}
			updates.Email = &email
		}
	}
	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username != "" && username != current.Username {
			if err := s.ensureIdentityFree(ctx, "", username, current.ID); err != nil {
				return nil, err
			}
			updates.Username = &username
		}
	}
	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		updates.DisplayName = &name
	}

	if req.NewPassword != nil {
		if req.OldPassword == nil {
			return nil, fmt.Errorf("%w: old password is required", auth.ErrInvalidCredentials)
		}
		if err := auth.VerifyPasswordOrFail(current.PasswordHash, *req.OldPassword, "password is not correct"); err != nil {
			return nil, err
		}
		hash, err := auth.HashPassword(*req.NewPassword)
		if err != nil {
			return nil, err
		}
		updates.PasswordHash = &hash
	}

	if updates.IsEmpty() {
		summary := entity.MakeUserSummary(current)
		return &summary, nil
	}

	if err := s.repo.UpdateUser(ctx, current.ID, updates); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: email or username already taken", ErrConflict)
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	updated, err := s.repo.GetUserByID(ctx, current.ID)
	if err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}
	summary := entity.MakeUserSummary(updated)
	return &summary, nil
}

// UpdateRole changes another user's role. An actor may only hand out roles
// strictly below their own, and owner accounts can only be modified by
// another owner.
func (s *UserService) UpdateRole(ctx context.Context, actor *entity.DbUser, targetID uint, newRole string) (*entity.UserSummary, error) {
	if actor == nil {
		return nil, errors.New("actor is nil")
	}

	role := rbac.Role(strings.ToLower(strings.TrimSpace(newRole)))
	if !rbac.IsValid(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrNotFound, newRole)
	}

	target, err := s.GetUser(ctx, targetID)
	if err != nil {
		return nil, err
	}

	actorRole := rbac.Role(actor.Role)
	if !rbac.IsOwner(actorRole) {
		if rbac.IsOwner(rbac.Role(target.Role)) {
			return nil, fmt.Errorf("%w: only an owner can modify an owner account", ErrForbidden)
		}
		if rbac.Level(role) >= rbac.Level(actorRole) {
			return nil, fmt.Errorf("%w: cannot assign a role at or above your own", ErrForbidden)
		}
	}

	roleValue := string(role)
	if err := s.repo.UpdateUser(ctx, target.ID, entity.UserUpdates{Role: &roleValue}); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}

	target.Role = roleValue
	summary := entity.MakeUserSummary(target)
	return &summary, nil
}

// SetActive enables or disables an account. Disabled accounts fail login
// and refresh until re-enabled.
func (s *UserService) SetActive(ctx context.Context, actor *entity.DbUser, targetID uint, active bool) (*entity.UserSummary, error) {
	if actor == nil {
		return nil, errors.New("actor is nil")
	}

	target, err := s.GetUser(ctx, targetID)
	if err != nil {
		return nil, err
	}

	actorRole := rbac.Role(actor.Role)
	if !rbac.IsOwner(actorRole) && rbac.Level(rbac.Role(target.Role)) >= rbac.Level(actorRole) {
		return nil, fmt.Errorf("%w: cannot modify a user at or above your own role", ErrForbidden)
	}

	updates := entity.UserUpdates{IsActive: &active}
	if err := s.repo.UpdateUser(ctx, target.ID, updates); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if !active {
		if err := s.repo.ClearRefreshToken(ctx, target.ID); err != nil {
			return nil, fmt.Errorf("clear refresh token: %w", err)
		}
	}

	target.IsActive = active
	summary := entity.MakeUserSummary(target)
	return &summary, nil
}

// ensureIdentityFree 检查邮箱或用户名是否已被其他账户占用。
func (s *UserService) ensureIdentityFree(ctx context.Context, email, username string, selfID uint) error {
	existing, err := s.repo.FindUserByEmailOrUsername(ctx, email, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	if existing.ID != selfID {
		return fmt.Errorf("%w: email or username already taken", ErrConflict)
	}
	return nil
}
