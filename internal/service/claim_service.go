package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/trackmate-dev/trackmate-api/internal/models"
	appErrors "github.com/trackmate-dev/trackmate-api/pkg/errors"
	"github.com/trackmate-dev/trackmate-api/pkg/export"
)

type claimRepository interface {
	Create(ctx context.Context, claim *models.Claim) error
	FindByID(ctx context.Context, id string) (*models.Claim, error)
	ListPending(ctx context.Context) ([]models.Claim, error)
	ListByClaimant(ctx context.Context, claimantID string) ([]models.Claim, error)
	ListAll(ctx context.Context) ([]models.Claim, error)
	Approve(ctx context.Context, claimID, adminID string) (*models.Claim, error)
	Reject(ctx context.Context, claimID, adminID, reason string) (*models.Claim, error)
}

type foundListingInvalidator interface {
	InvalidateFoundListings(ctx context.Context)
}

// CreateClaimRequest holds the payload for filing a claim.
type CreateClaimRequest struct {
	FoundItemID     string  `json:"found_item_id" validate:"required"`
	ClaimReason     string  `json:"claim_reason" validate:"required,max=1000"`
	ContactInfo     string  `json:"contact_info" validate:"required"`
	AdditionalProof *string `json:"additional_proof,omitempty"`
}

// RejectClaimRequest carries the admin's rejection reason.
type RejectClaimRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

// ExportFormat selects the claim report output.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ClaimExport bundles rendered report bytes with transport metadata.
type ClaimExport struct {
	ContentType string
	FileName    string
	Data        []byte
}

// ClaimService implements the claim workflow state machine.
type ClaimService struct {
	repo      claimRepository
	listings  foundListingInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
}

// NewClaimService constructs the claim service.
func NewClaimService(repo claimRepository, listings foundListingInvalidator, validate *validator.Validate, logger *zap.Logger) *ClaimService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClaimService{
		repo:      repo,
		listings:  listings,
		validator: validate,
		logger:    logger,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
	}
}

// Create files a pending claim on a found item. The repository enforces the
// active-item and single-pending-claim invariants under a row lock.
func (s *ClaimService) Create(ctx context.Context, claimantID string, req CreateClaimRequest) (*models.Claim, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid claim payload")
	}

	claim := &models.Claim{
		FoundItemID:     req.FoundItemID,
		ClaimantID:      claimantID,
		ClaimReason:     req.ClaimReason,
		ContactInfo:     req.ContactInfo,
		AdditionalProof: req.AdditionalProof,
	}
	if err := s.repo.Create(ctx, claim); err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrInternal.Code {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create claim")
		}
		return nil, err
	}

	s.logger.Info("claim filed",
		zap.String("claim_id", claim.ID),
		zap.String("found_item_id", claim.FoundItemID),
		zap.String("claimant_id", claimantID))
	return claim, nil
}

// ListPending returns undecided claims oldest-first so the queue is reviewed
// in submission order.
func (s *ClaimService) ListPending(ctx context.Context, actor models.Actor) ([]models.Claim, error) {
	if !actor.Role.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "admin privilege required")
	}
	claims, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending claims")
	}
	return claims, nil
}

// ListMine returns the caller's claims.
func (s *ClaimService) ListMine(ctx context.Context, claimantID string) ([]models.Claim, error) {
	claims, err := s.repo.ListByClaimant(ctx, claimantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list claims")
	}
	return claims, nil
}

// Approve accepts a pending claim and marks the found item claimed. The two
// mutations are atomic; a second approval attempt fails with a conflict.
func (s *ClaimService) Approve(ctx context.Context, actor models.Actor, claimID string) (*models.Claim, error) {
	if !actor.Role.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "admin privilege required")
	}

	claim, err := s.repo.Approve(ctx, claimID, actor.UserID)
	if err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrInternal.Code {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve claim")
		}
		return nil, err
	}

	if s.listings != nil {
		s.listings.InvalidateFoundListings(ctx)
	}

	s.logger.Info("claim approved", zap.String("claim_id", claimID), zap.String("admin_id", actor.UserID))
	return claim, nil
}

// Reject declines a pending claim. The found item stays active and remains
// open to other claims.
func (s *ClaimService) Reject(ctx context.Context, actor models.Actor, claimID string, req RejectClaimRequest) (*models.Claim, error) {
	if !actor.Role.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "admin privilege required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "rejection reason required")
	}

	claim, err := s.repo.Reject(ctx, claimID, actor.UserID, req.Reason)
	if err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrInternal.Code {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject claim")
		}
		return nil, err
	}

	s.logger.Info("claim rejected", zap.String("claim_id", claimID), zap.String("admin_id", actor.UserID))
	return claim, nil
}

// Export renders all claims as a CSV or PDF report for admins.
func (s *ClaimService) Export(ctx context.Context, actor models.Actor, format ExportFormat) (*ClaimExport, error) {
	if !actor.Role.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "admin privilege required")
	}

	claims, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load claims")
	}

	dataset := export.Dataset{
		Headers: []string{"ID", "Found Item", "Claimant", "Status", "Decided By", "Created At", "Decided At"},
	}
	for _, claim := range claims {
		row := map[string]string{
			"ID":         claim.ID,
			"Found Item": claim.FoundItemID,
			"Claimant":   claim.ClaimantID,
			"Status":     string(claim.Status),
			"Created At": claim.CreatedAt.Format("2006-01-02 15:04"),
		}
		if claim.DecidedBy != nil {
			row["Decided By"] = *claim.DecidedBy
		}
		if claim.DecidedAt != nil {
			row["Decided At"] = claim.DecidedAt.Format("2006-01-02 15:04")
		}
		dataset.Rows = append(dataset.Rows, row)
	}

	switch ExportFormat(strings.ToLower(string(format))) {
	case ExportCSV:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ClaimExport{ContentType: "text/csv", FileName: "claims.csv", Data: data}, nil
	case ExportPDF:
		data, err := s.pdf.Render(dataset, "Claim Report")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ClaimExport{ContentType: "application/pdf", FileName: "claims.pdf", Data: data}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}
