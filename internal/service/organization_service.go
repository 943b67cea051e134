package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type organizationRepository interface {
	List(ctx context.Context, filter models.OrganizationFilter) ([]models.Organization, int, error)
	FindByID(ctx context.Context, id string) (*models.Organization, error)
	ExistsBySlug(ctx context.Context, slug string, excludeID string) (bool, error)
	Create(ctx context.Context, org *models.Organization) error
	Update(ctx context.Context, org *models.Organization) error
	Delete(ctx context.Context, id string) error
}

// OrganizationService handles organization use-cases.
type OrganizationService struct {
	repo      organizationRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOrganizationService constructs the organization service.
func NewOrganizationService(repo organizationRepository, validate *validator.Validate, logger *zap.Logger) *OrganizationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrganizationService{repo: repo, validator: validate, logger: logger}
}

// List returns organizations and pagination metadata.
func (s *OrganizationService) List(ctx context.Context, filter models.OrganizationFilter) ([]models.Organization, *models.Pagination, error) {
	orgs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list organizations")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return orgs, pagination, nil
}

// Get returns a single organization.
func (s *OrganizationService) Get(ctx context.Context, id string) (*models.Organization, error) {
	org, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "organization not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load organization")
	}
	return org, nil
}

// Create registers a new organization.
func (s *OrganizationService) Create(ctx context.Context, req dto.CreateOrganizationRequest) (*models.Organization, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid organization payload")
	}
	exists, err := s.repo.ExistsBySlug(ctx, req.Slug, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate slug")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "slug already used")
	}
	org := &models.Organization{Name: req.Name, Slug: req.Slug}
	if err := s.repo.Create(ctx, org); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create organization")
	}
	return org, nil
}

// Update modifies an existing organization.
func (s *OrganizationService) Update(ctx context.Context, id string, req dto.UpdateOrganizationRequest) (*models.Organization, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid organization payload")
	}
	org, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "organization not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load organization")
	}
	exists, err := s.repo.ExistsBySlug(ctx, req.Slug, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate slug")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "slug already used")
	}
	org.Name = req.Name
	org.Slug = req.Slug
	if err := s.repo.Update(ctx, org); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update organization")
	}
	return org, nil
}

// Delete removes an organization and everything beneath it.
func (s *OrganizationService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "organization not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load organization")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete organization")
	}
	return nil
}
