// Package service implements the domain services between the HTTP layer and
// the store: groups and memberships, cycles (via the lifecycle engine),
// notifications, and accounts.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/cache"
	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/models"
	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/storage"
)

// GroupService manages groups and memberships.
type GroupService struct {
	store storage.Store
	cache *cache.Cache
}

// NewGroupService creates a new GroupService with the given storage backend.
// The cache may be nil, in which case every read hits the store.
func NewGroupService(store storage.Store, c *cache.Cache) *GroupService {
	return &GroupService{store: store, cache: c}
}

// CreateGroupInput carries the fields of a group-creation request.
type CreateGroupInput struct {
	Name                  string                       `json:"name"`
	Description           string                       `json:"description"`
	ContributionAmount    decimal.Decimal              `json:"contribution_amount"`
	ContributionFrequency models.ContributionFrequency `json:"contribution_frequency"`
	MaxMembers            int                          `json:"max_members"`
	TotalCycles           int                          `json:"total_cycles"`
}

func (in *CreateGroupInput) validate() error {
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !in.ContributionAmount.IsPositive() {
		return fmt.Errorf("%w: contribution amount must be positive", ErrInvalidInput)
	}
	if !models.ValidFrequency(in.ContributionFrequency) {
		return fmt.Errorf("%w: unknown contribution frequency %q", ErrInvalidInput, in.ContributionFrequency)
	}
	if in.MaxMembers < 1 {
		return fmt.Errorf("%w: max members must be at least 1", ErrInvalidInput)
	}
	if in.TotalCycles < 1 {
		return fmt.Errorf("%w: total cycles must be at least 1", ErrInvalidInput)
	}
	return nil
}

// CreateGroup creates a group and makes the creator its first admin member.
func (s *GroupService) CreateGroup(ctx context.Context, creatorID string, in CreateGroupInput) (*models.Group, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	group := &models.Group{
		Name:                  in.Name,
		Description:           in.Description,
		ContributionAmount:    in.ContributionAmount,
		ContributionFrequency: in.ContributionFrequency,
		MaxMembers:            in.MaxMembers,
		TotalCycles:           in.TotalCycles,
		CreatedBy:             creatorID,
	}
	creator := &models.Membership{
		UserID:  creatorID,
		IsAdmin: true,
	}

	if err := s.store.CreateGroup(ctx, group, creator); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, err
	}

	slog.Info("Group created", "group_id", group.ID, "created_by", creatorID)
	return group, nil
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return s.store.GetGroup(ctx, groupID)
}

// ListGroups retrieves all groups the user belongs to. The cached listing
// depends on the membership table as a whole: a join or leave changes which
// groups the query returns without touching any group row the listing loaded.
func (s *GroupService) ListGroups(ctx context.Context, userID string) ([]*models.Group, error) {
	key := "groups:user:" + userID
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			return v.([]*models.Group), nil
		}
	}

	groups, err := s.store.ListGroupsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		ids := make([]string, len(groups))
		for i, g := range groups {
			ids[i] = g.ID
		}
		s.cache.Put(key, groups,
			cache.Dep{Table: storage.TableGroups, IDs: ids},
			cache.Dep{Table: storage.TableMembers})
	}
	return groups, nil
}

// UpdateGroupInput carries the mutable settings of a group.
type UpdateGroupInput struct {
	Name                  string                       `json:"name"`
	Description           string                       `json:"description"`
	ContributionAmount    decimal.Decimal              `json:"contribution_amount"`
	ContributionFrequency models.ContributionFrequency `json:"contribution_frequency"`
	MaxMembers            int                          `json:"max_members"`
	TotalCycles           int                          `json:"total_cycles"`
}

// UpdateGroup updates group settings. Admin-only. The cycle counters are not
// client-writable; only the lifecycle engine moves them.
func (s *GroupService) UpdateGroup(ctx context.Context, callerID, groupID string, in UpdateGroupInput) (*models.Group, error) {
	if err := s.requireAdmin(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	probe := CreateGroupInput{
		Name:                  in.Name,
		ContributionAmount:    in.ContributionAmount,
		ContributionFrequency: in.ContributionFrequency,
		MaxMembers:            in.MaxMembers,
		TotalCycles:           in.TotalCycles,
	}
	if err := probe.validate(); err != nil {
		return nil, err
	}
	if in.TotalCycles < group.CurrentCycle {
		return nil, fmt.Errorf("%w: total cycles cannot drop below the current cycle", ErrInvalidInput)
	}

	group.Name = in.Name
	group.Description = in.Description
	group.ContributionAmount = in.ContributionAmount
	group.ContributionFrequency = in.ContributionFrequency
	group.MaxMembers = in.MaxMembers
	group.TotalCycles = in.TotalCycles

	if err := s.store.UpdateGroup(ctx, group); err != nil {
		slog.Error("UpdateGroup failed", "group_id", groupID, "error", err)
		return nil, err
	}

	slog.Info("Group updated", "group_id", groupID, "updated_by", callerID)
	return group, nil
}

// DeleteGroup removes a group and everything it owns. Admin-only.
func (s *GroupService) DeleteGroup(ctx context.Context, callerID, groupID string) error {
	if err := s.requireAdmin(ctx, groupID, callerID); err != nil {
		return err
	}

	if err := s.store.DeleteGroup(ctx, groupID); err != nil {
		slog.Error("DeleteGroup failed", "group_id", groupID, "error", err)
		return err
	}

	slog.Info("Group deleted", "group_id", groupID, "deleted_by", callerID)
	return nil
}

// Join adds the user as a regular member, enforcing capacity and the unique
// (group, user) constraint.
func (s *GroupService) Join(ctx context.Context, userID, groupID string) (*models.Membership, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.GetMembership(ctx, groupID, userID); err == nil {
		return nil, ErrAlreadyMember
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	members, err := s.store.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if len(members) >= group.MaxMembers {
		return nil, ErrGroupFull
	}

	m := &models.Membership{GroupID: groupID, UserID: userID}
	if err := s.store.AddMember(ctx, m); err != nil {
		slog.Error("Join failed", "group_id", groupID, "user_id", userID, "error", err)
		return nil, err
	}

	slog.Info("Member joined", "group_id", groupID, "user_id", userID)
	return m, nil
}

// Leave removes the user's membership. The last admin cannot leave while the
// group exists; they must delete the group or promote someone first.
func (s *GroupService) Leave(ctx context.Context, userID, groupID string) error {
	m, err := s.store.GetMembership(ctx, groupID, userID)
	if err != nil {
		return err
	}

	if m.IsAdmin {
		admins, err := s.countAdmins(ctx, groupID)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}

	if err := s.store.RemoveMember(ctx, groupID, userID); err != nil {
		return err
	}

	slog.Info("Member left", "group_id", groupID, "user_id", userID)
	return nil
}

// ListMembers retrieves a group's memberships in join order.
func (s *GroupService) ListMembers(ctx context.Context, groupID string) ([]*models.Membership, error) {
	return s.store.ListMembers(ctx, groupID)
}

// SetAdmin grants or revokes the admin flag on a membership. Admin-only, and
// the last admin cannot be demoted.
func (s *GroupService) SetAdmin(ctx context.Context, callerID, groupID, userID string, isAdmin bool) (*models.Membership, error) {
	if err := s.requireAdmin(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	m, err := s.store.GetMembership(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if m.IsAdmin == isAdmin {
		return m, nil
	}

	if !isAdmin {
		admins, err := s.countAdmins(ctx, groupID)
		if err != nil {
			return nil, err
		}
		if admins <= 1 {
			return nil, ErrLastAdmin
		}
	}

	m.IsAdmin = isAdmin
	if err := s.store.UpdateMembership(ctx, m); err != nil {
		return nil, err
	}

	slog.Info("Membership updated", "group_id", groupID, "user_id", userID, "is_admin", isAdmin)
	return m, nil
}

func (s *GroupService) requireAdmin(ctx context.Context, groupID, userID string) error {
	m, err := s.store.GetMembership(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !m.IsAdmin {
		return ErrNotAdmin
	}
	return nil
}

func (s *GroupService) countAdmins(ctx context.Context, groupID string) (int, error) {
	members, err := s.store.ListMembers(ctx, groupID)
	if err != nil {
		return 0, err
	}
	admins := 0
	for _, m := range members {
		if m.IsAdmin {
			admins++
		}
	}
	return admins, nil
}
