package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/pizzanova/backend/app/models"
	"github.com/pizzanova/backend/app/repositories"
	"github.com/pizzanova/backend/pkg/audit"
	"github.com/pizzanova/backend/pkg/auth"
	"github.com/pizzanova/backend/pkg/logger"
	"github.com/pizzanova/backend/pkg/paginate"
	"github.com/pizzanova/backend/pkg/session"
)

// UserUpdate is the admin bulk-edit payload. Role may promote a customer;
// it can never demote or otherwise touch an admin account.
type UserUpdate struct {
	Name       string `json:"name"        validate:"nullable,min=2,max=100"`
	Email      string `json:"email"       validate:"nullable,email"`
	Role       string `json:"role"        validate:"nullable,in=customer,admin"`
	IsVerified *bool  `json:"is_verified" validate:"nullable"`
}

// ProfileUpdate is the self-service profile payload, the only route through
// which an admin may edit their own account.
type ProfileUpdate struct {
	Name     string `json:"name"     validate:"nullable,min=2,max=100"`
	Email    string `json:"email"    validate:"nullable,email"`
	Password string `json:"password" validate:"nullable,min=8,max=72"`
}

// UserStore is the persistence surface the back office needs.
// *repositories.UserRepository satisfies it.
type UserStore interface {
	List(ctx context.Context, filter repositories.UserFilter, page, limit int) ([]models.User, paginate.Pagination, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	Block(ctx context.Context, id, reason, byAdminID string) error
	Unblock(ctx context.Context, id string) error
	UpdateFields(ctx context.Context, id string, fields bson.M) error
	Delete(ctx context.Context, id string) error
}

// AdminService implements the user-management back office. Every mutation
// enforces the two protection invariants before touching the store: no
// self-moderation, and no admin-on-admin moderation.
type AdminService struct {
	users UserStore
}

func NewAdminService(users UserStore) *AdminService {
	return &AdminService{users: users}
}

func (s *AdminService) ListUsers(ctx context.Context, filter repositories.UserFilter, page, limit int) ([]models.User, paginate.Pagination, error) {
	return s.users.List(ctx, filter, page, limit)
}

func (s *AdminService) GetUser(ctx context.Context, id string) (models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return user, ErrNotFound
	}
	return user, err
}

// guardTarget loads the target user and applies the moderation invariants.
func (s *AdminService) guardTarget(ctx context.Context, actorID, targetID, action string) (models.User, error) {
	if actorID == targetID {
		audit.Security(ctx, "admin_self_action", actorID, models.RoleAdmin, "/admin/users/"+targetID, "admin_protected",
			bson.M{"action": action})
		return models.User{}, ErrSelfAction
	}

	target, err := s.users.FindByID(ctx, targetID)
	if errors.Is(err, repositories.ErrNotFound) {
		return target, ErrNotFound
	}
	if err != nil {
		return target, err
	}

	if target.Role == models.RoleAdmin {
		audit.Security(ctx, "admin_on_admin_action", actorID, models.RoleAdmin, "/admin/users/"+targetID, "admin_protected",
			bson.M{"action": action, "target_id": targetID})
		return target, ErrAdminProtected
	}
	return target, nil
}

// BlockUser blocks a customer and invalidates their sessions so the block
// takes effect on their next request.
func (s *AdminService) BlockUser(ctx context.Context, actorID, targetID, reason string) error {
	if _, err := s.guardTarget(ctx, actorID, targetID, "block"); err != nil {
		return err
	}
	if err := s.users.Block(ctx, targetID, reason, actorID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	session.Revoke(targetID)

	audit.Security(ctx, "user_blocked", actorID, models.RoleAdmin, "/admin/users/"+targetID+"/block", "blocked",
		bson.M{"target_id": targetID, "block_reason": reason})
	return nil
}

func (s *AdminService) UnblockUser(ctx context.Context, actorID, targetID string) error {
	if _, err := s.guardTarget(ctx, actorID, targetID, "unblock"); err != nil {
		return err
	}
	if err := s.users.Unblock(ctx, targetID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	// The revocation record is left in place: tokens issued before the
	// block stay dead and the user logs in again.
	logger.WithCtx(ctx).Info("user unblocked", "target_id", targetID, "by", actorID)
	return nil
}

// UpdateUser applies the admin bulk-edit. Self-edits must go through
// UpdateProfile instead.
func (s *AdminService) UpdateUser(ctx context.Context, actorID, targetID string, upd UserUpdate) (models.User, error) {
	if _, err := s.guardTarget(ctx, actorID, targetID, "edit"); err != nil {
		return models.User{}, err
	}

	fields := bson.M{}
	if upd.Name != "" {
		fields["name"] = upd.Name
	}
	if upd.Email != "" {
		fields["email"] = upd.Email
	}
	if upd.Role != "" {
		fields["role"] = upd.Role
	}
	if upd.IsVerified != nil {
		fields["is_verified"] = *upd.IsVerified
	}
	if len(fields) > 0 {
		if err := s.users.UpdateFields(ctx, targetID, fields); err != nil {
			switch {
			case errors.Is(err, repositories.ErrNotFound):
				return models.User{}, ErrNotFound
			case errors.Is(err, repositories.ErrDuplicate):
				return models.User{}, ErrEmailTaken
			}
			return models.User{}, err
		}
	}
	return s.GetUser(ctx, targetID)
}

// DeleteUser removes a customer account, snapshotting it to the security
// log first.
func (s *AdminService) DeleteUser(ctx context.Context, actorID, targetID string) error {
	target, err := s.guardTarget(ctx, actorID, targetID, "delete")
	if err != nil {
		return err
	}

	audit.Security(ctx, "user_deleted", actorID, models.RoleAdmin, "/admin/users/"+targetID, "admin_delete", bson.M{
		"target_id":    targetID,
		"target_email": target.Email,
		"was_blocked":  target.IsBlocked,
	})

	if err := s.users.Delete(ctx, targetID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	session.Revoke(targetID)
	return nil
}

// UpdateProfile edits the caller's own account. Open to both roles.
func (s *AdminService) UpdateProfile(ctx context.Context, actorID string, upd ProfileUpdate) (models.User, error) {
	fields := bson.M{}
	if upd.Name != "" {
		fields["name"] = upd.Name
	}
	if upd.Email != "" {
		fields["email"] = upd.Email
	}
	if upd.Password != "" {
		hash, err := auth.HashPassword(upd.Password)
		if err != nil {
			return models.User{}, err
		}
		fields["password"] = hash
	}
	if len(fields) > 0 {
		if err := s.users.UpdateFields(ctx, actorID, fields); err != nil {
			switch {
			case errors.Is(err, repositories.ErrNotFound):
				return models.User{}, ErrNotFound
			case errors.Is(err, repositories.ErrDuplicate):
				return models.User{}, ErrEmailTaken
			}
			return models.User{}, err
		}
	}
	return s.GetUser(ctx, actorID)
}
