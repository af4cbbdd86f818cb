// AngelaMos | 2026
// service.go

package wiki

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/northstarhq/northstar/internal/audit"
	"github.com/northstarhq/northstar/internal/authz"
	"github.com/northstarhq/northstar/internal/core"
	"github.com/northstarhq/northstar/internal/rbac"
	"github.com/northstarhq/northstar/internal/tenancy"
	"github.com/northstarhq/northstar/internal/validation"
)

type Service struct {
	repo     Repository
	gate     *authz.Gate
	rules    *validation.Validator
	recorder *audit.Recorder
}

func NewService(
	repo Repository,
	gate *authz.Gate,
	rules *validation.Validator,
	recorder *audit.Recorder,
) *Service {
	return &Service{
		repo:     repo,
		gate:     gate,
		rules:    rules,
		recorder: recorder,
	}
}

func (s *Service) ListCategories(
	ctx context.Context,
	scope *tenancy.Scope,
) ([]Category, error) {
	if err := s.gate.Require(ctx, scope, rbac.RoleMember); err != nil {
		return nil, err
	}

	return s.repo.ListCategories(ctx, scope.EffectiveTenant())
}

func (s *Service) CreateCategory(
	ctx context.Context,
	scope *tenancy.Scope,
	req CreateCategoryRequest,
) (*Category, error) {
	if err := s.gate.Require(ctx, scope, rbac.RoleLeader); err != nil {
		return nil, err
	}

	tenantID := scope.EffectiveTenant()
	if tenantID == nil {
		return nil, fmt.Errorf(
			"create wiki category: tenant scope required: %w",
			core.ErrInvalidInput,
		)
	}

	c := &Category{
		ID:       uuid.New().String(),
		TenantID: *tenantID,
		Name:     strings.TrimSpace(req.Name),
		Slug:     req.Slug,
		Position: req.Position,
	}

	if err := s.validateCategory(c); err != nil {
		return nil, err
	}

	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}

	s.record(ctx, scope, audit.ActionCreated, audit.EntityWikiCategory, c.ID,
		map[string]any{"slug": c.Slug})

	return c, nil
}

func (s *Service) UpdateCategory(
	ctx context.Context,
	scope *tenancy.Scope,
	id string,
	req UpdateCategoryRequest,
) (*Category, error) {
	if err := s.gate.Require(ctx, scope, rbac.RoleLeader); err != nil {
		return nil, err
	}

	c, err := s.repo.GetCategory(ctx, scope.EffectiveTenant(), id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		c.Name = strings.TrimSpace(*req.Name)
	}
	if req.Slug != nil {
		c.Slug = *req.Slug
	}
	if req.Position != nil {
		c.Position = *req.Position
	}

	if err := s.validateCategory(c); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}

	s.record(ctx, scope, audit.ActionUpdated, audit.EntityWikiCategory, c.ID, nil)

	return c, nil
}

func (s *Service) DeleteCategory(
	ctx context.Context,
	scope *tenancy.Scope,
	id string,
) error {
	if err := s.gate.Require(ctx, scope, rbac.RoleLeader); err != nil {
		return err
	}

	err := s.repo.DeleteCategory(ctx, scope.EffectiveTenant(), id)
	if err != nil {
		return err
	}

	s.record(ctx, scope, audit.ActionDeleted, audit.EntityWikiCategory, id, nil)

	return nil
}

func (s *Service) ListDocuments(
	ctx context.Context,
	scope *tenancy.Scope,
	params ListDocumentsParams,
) ([]Document, int, error) {
	if err := s.gate.Require(ctx, scope, rbac.RoleMember); err != nil {
		return nil, 0, err
	}

	params.TenantID = s.gate.TenantFilter(ctx, scope, params.TenantID)

	return s.repo.ListDocuments(ctx, params)
}

func (s *Service) GetDocument(
	ctx context.Context,
	scope *tenancy.Scope,
	id string,
) (*Document, error) {
	if err := s.gate.Require(ctx, scope, rbac.RoleMember); err != nil {
		return nil, err
	}

	return s.repo.GetDocument(ctx, scope.EffectiveTenant(), id)
}

func (s *Service) CreateDocument(
	ctx context.Context,
	scope *tenancy.Scope,
	req CreateDocumentRequest,
) (*Document, error) {
	if err := s.gate.Require(ctx, scope, rbac.RoleLeader); err != nil {
		return nil, err
	}

	tenantID := scope.EffectiveTenant()
	if tenantID == nil {
		return nil, fmt.Errorf(
			"create wiki document: tenant scope required: %w",
			core.ErrInvalidInput,
		)
	}

	d := &Document{
		ID:         uuid.New().String(),
		TenantID:   *tenantID,
		CategoryID: req.CategoryID,
		Title:      strings.TrimSpace(req.Title),
		Slug:       req.Slug,
		Content:    req.Content,
	}
	if scope.ProfileID != "" {
		d.CreatedBy = &scope.ProfileID
	}

	if err := s.validateDocument(d); err != nil {
		return nil, err
	}

	if err := s.repo.CreateDocument(ctx, d); err != nil {
		return nil, err
	}

	s.record(ctx, scope, audit.ActionCreated, audit.EntityWikiDocument, d.ID,
		map[string]any{"slug": d.Slug})

	return d, nil
}

func (s *Service) UpdateDocument(
	ctx context.Context,
	scope *tenancy.Scope,
	id string,
	req UpdateDocumentRequest,
) (*Document, error) {
	if err := s.gate.Require(ctx, scope, rbac.RoleLeader); err != nil {
		return nil, err
	}

	d, err := s.repo.GetDocument(ctx, scope.EffectiveTenant(), id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		d.Title = strings.TrimSpace(*req.Title)
	}
	if req.Slug != nil {
		d.Slug = *req.Slug
	}
	if req.Content != nil {
		d.Content = *req.Content
	}
	if req.CategoryID != nil {
		d.CategoryID = req.CategoryID
	}

	if err := s.validateDocument(d); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateDocument(ctx, d); err != nil {
		return nil, err
	}

	s.record(ctx, scope, audit.ActionUpdated, audit.EntityWikiDocument, d.ID, nil)

	return d, nil
}

func (s *Service) DeleteDocument(
	ctx context.Context,
	scope *tenancy.Scope,
	id string,
) error {
	if err := s.gate.Require(ctx, scope, rbac.RoleLeader); err != nil {
		return err
	}

	err := s.repo.DeleteDocument(ctx, scope.EffectiveTenant(), id)
	if err != nil {
		return err
	}

	s.record(ctx, scope, audit.ActionDeleted, audit.EntityWikiDocument, id, nil)

	return nil
}

func (s *Service) validateCategory(c *Category) error {
	result, err := s.rules.Validate(validation.EntityWikiCategory, map[string]any{
		"name":     c.Name,
		"slug":     c.Slug,
		"position": c.Position,
	})
	if err != nil {
		return fmt.Errorf("validate wiki category: %w", err)
	}
	if !result.Valid {
		return &validation.Error{Result: result}
	}

	return nil
}

func (s *Service) validateDocument(d *Document) error {
	data := map[string]any{
		"title":   d.Title,
		"slug":    d.Slug,
		"content": d.Content,
	}
	if d.CategoryID != nil {
		data["category_id"] = *d.CategoryID
	}

	result, err := s.rules.Validate(validation.EntityWikiDocument, data)
	if err != nil {
		return fmt.Errorf("validate wiki document: %w", err)
	}
	if !result.Valid {
		return &validation.Error{Result: result}
	}

	return nil
}

func (s *Service) record(
	ctx context.Context,
	scope *tenancy.Scope,
	action, entityType, entityID string,
	details map[string]any,
) {
	if s.recorder == nil {
		return
	}

	s.recorder.Record(ctx, audit.Entry{
		ActorUserID: scope.UserID,
		TenantID:    scope.EffectiveTenant(),
		Action:      action,
		EntityType:  entityType,
		EntityID:    &entityID,
		Details:     details,
	})
}
