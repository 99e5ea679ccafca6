package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/trackmate-dev/trackmate-api/internal/models"
	appErrors "github.com/trackmate-dev/trackmate-api/pkg/errors"
)

type itemRepository interface {
	List(ctx context.Context, filter models.ItemFilter) ([]models.Item, int, error)
	FindByID(ctx context.Context, kind models.ItemKind, id string) (*models.Item, error)
	Create(ctx context.Context, item *models.Item) error
	Update(ctx context.Context, item *models.Item) error
	UpdateStatus(ctx context.Context, id string, status models.ItemStatus) error
}

type listingCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type cacheObserver interface {
	ObserveCacheLookup(hit bool)
}

// CreateItemRequest holds the payload for posting a listing.
type CreateItemRequest struct {
	Title           string    `json:"title" validate:"required,max=100"`
	Description     string    `json:"description" validate:"required,max=1000"`
	Category        string    `json:"category" validate:"required"`
	Location        string    `json:"location" validate:"required"`
	OccurredOn      time.Time `json:"occurred_on" validate:"required"`
	ContactInfo     *string   `json:"contact_info,omitempty"`
	RewardOffered   *string   `json:"reward_offered,omitempty"`
	StorageLocation *string   `json:"storage_location,omitempty"`
}

// UpdateItemRequest holds the mutable listing fields. Owner, kind and
// creation time cannot be changed through this payload.
type UpdateItemRequest struct {
	Title           *string    `json:"title,omitempty"`
	Description     *string    `json:"description,omitempty"`
	Category        *string    `json:"category,omitempty"`
	Location        *string    `json:"location,omitempty"`
	OccurredOn      *time.Time `json:"occurred_on,omitempty"`
	ContactInfo     *string    `json:"contact_info,omitempty"`
	RewardOffered   *string    `json:"reward_offered,omitempty"`
	StorageLocation *string    `json:"storage_location,omitempty"`
}

// UpdateStatusRequest flips the lifecycle status of a listing.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ItemService handles lost/found listing use cases. One instance serves both
// kinds; handlers pass the kind of the resource they expose.
type ItemService struct {
	repo      itemRepository
	cache     listingCache
	metrics   cacheObserver
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewItemService constructs the item service.
func NewItemService(repo itemRepository, cache listingCache, metrics cacheObserver, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *ItemService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ItemService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger, cacheTTL: cacheTTL}
}

// List returns listings and pagination metadata.
func (s *ItemService) List(ctx context.Context, filter models.ItemFilter) ([]models.Item, *models.Pagination, error) {
	if filter.Status != "" && !models.ItemStatus(filter.Status).IsValid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown status filter")
	}
	if filter.Category != "" && !models.ItemCategory(filter.Category).IsValid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown category filter")
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = 20
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "limit must be between 1 and 100")
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list items")
	}

	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// ListMine returns the caller's own listings of the given kind.
func (s *ItemService) ListMine(ctx context.Context, kind models.ItemKind, ownerID string, page, pageSize int) ([]models.Item, *models.Pagination, error) {
	return s.List(ctx, models.ItemFilter{Kind: kind, OwnerID: ownerID, Page: page, PageSize: pageSize})
}

// ListAvailable returns active found items, served from cache when possible.
func (s *ItemService) ListAvailable(ctx context.Context, page, pageSize int) ([]models.Item, *models.Pagination, error) {
	type cached struct {
		Items      []models.Item     `json:"items"`
		Pagination models.Pagination `json:"pagination"`
	}

	key := fmt.Sprintf("items:available:%d:%d", page, pageSize)
	if s.cache != nil {
		var hit cached
		if err := s.cache.Get(ctx, key, &hit); err == nil {
			if s.metrics != nil {
				s.metrics.ObserveCacheLookup(true)
			}
			return hit.Items, &hit.Pagination, nil
		}
		if s.metrics != nil {
			s.metrics.ObserveCacheLookup(false)
		}
	}

	items, pagination, err := s.List(ctx, models.ItemFilter{
		Kind:     models.KindFound,
		Status:   string(models.StatusActive),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, cached{Items: items, Pagination: *pagination}, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache available items", zap.Error(err))
		}
	}
	return items, pagination, nil
}

// Get returns a single listing.
func (s *ItemService) Get(ctx context.Context, kind models.ItemKind, id string) (*models.Item, error) {
	item, err := s.repo.FindByID(ctx, kind, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load item")
	}
	return item, nil
}

// Create posts a new listing owned by the caller with status active.
func (s *ItemService) Create(ctx context.Context, kind models.ItemKind, ownerID string, req CreateItemRequest) (*models.Item, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid item payload")
	}
	category := models.ItemCategory(req.Category)
	if !category.IsValid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown item category")
	}

	item := &models.Item{
		Kind:            kind,
		OwnerID:         ownerID,
		Title:           req.Title,
		Description:     req.Description,
		Category:        category,
		Location:        req.Location,
		OccurredOn:      req.OccurredOn,
		Status:          models.StatusActive,
		ContactInfo:     req.ContactInfo,
		RewardOffered:   req.RewardOffered,
		StorageLocation: req.StorageLocation,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create item")
	}

	s.invalidateAvailable(ctx, kind)
	return item, nil
}

// Update modifies a listing. Only the owner may do so.
func (s *ItemService) Update(ctx context.Context, kind models.ItemKind, id, callerID string, req UpdateItemRequest) (*models.Item, error) {
	item, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != callerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the owner can modify this item")
	}

	if req.Title != nil {
		item.Title = *req.Title
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Category != nil {
		category := models.ItemCategory(*req.Category)
		if !category.IsValid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown item category")
		}
		item.Category = category
	}
	if req.Location != nil {
		item.Location = *req.Location
	}
	if req.OccurredOn != nil {
		item.OccurredOn = *req.OccurredOn
	}
	if req.ContactInfo != nil {
		item.ContactInfo = req.ContactInfo
	}
	if req.RewardOffered != nil {
		item.RewardOffered = req.RewardOffered
	}
	if req.StorageLocation != nil {
		item.StorageLocation = req.StorageLocation
	}

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update item")
	}

	s.invalidateAvailable(ctx, kind)
	return item, nil
}

// UpdateStatus lets the owner move a listing through its lifecycle directly,
// e.g. marking it resolved without going through the claim workflow.
func (s *ItemService) UpdateStatus(ctx context.Context, kind models.ItemKind, id, callerID string, req UpdateStatusRequest) (*models.Item, error) {
	status := models.ItemStatus(req.Status)
	if !status.IsValid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown item status")
	}

	item, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != callerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the owner can modify this item")
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update item status")
	}
	item.Status = status

	s.invalidateAvailable(ctx, kind)
	return item, nil
}

// InvalidateFoundListings clears the available-items cache. Exposed for the
// claim workflow, which flips found items to claimed outside this service.
func (s *ItemService) InvalidateFoundListings(ctx context.Context) {
	s.invalidateAvailable(ctx, models.KindFound)
}

func (s *ItemService) invalidateAvailable(ctx context.Context, kind models.ItemKind) {
	if s.cache == nil || kind != models.KindFound {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "items:available:*"); err != nil {
		s.logger.Warn("failed to invalidate available items cache", zap.Error(err))
	}
}
