package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trackmate-dev/trackmate-api/internal/models"
	appErrors "github.com/trackmate-dev/trackmate-api/pkg/errors"
)

type mockClaimRepo struct {
	claims      []models.Claim
	createErr   error
	approveErr  error
	rejectErr   error
	listErr     error
	approved    *models.Claim
	rejected    *models.Claim
	lastAdminID string
	lastReason  string
}

func (m *mockClaimRepo) Create(ctx context.Context, claim *models.Claim) error {
	if m.createErr != nil {
		return m.createErr
	}
	claim.ID = "c1"
	claim.Status = models.ClaimPending
	claim.CreatedAt = time.Now().UTC()
	m.claims = append(m.claims, *claim)
	return nil
}

func (m *mockClaimRepo) FindByID(ctx context.Context, id string) (*models.Claim, error) {
	for i := range m.claims {
		if m.claims[i].ID == id {
			return &m.claims[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "claim not found")
}

func (m *mockClaimRepo) ListPending(ctx context.Context) ([]models.Claim, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var pending []models.Claim
	for _, c := range m.claims {
		if c.Status == models.ClaimPending {
			pending = append(pending, c)
		}
	}
	return pending, nil
}

func (m *mockClaimRepo) ListByClaimant(ctx context.Context, claimantID string) ([]models.Claim, error) {
	var out []models.Claim
	for _, c := range m.claims {
		if c.ClaimantID == claimantID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockClaimRepo) ListAll(ctx context.Context) ([]models.Claim, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.claims, nil
}

func (m *mockClaimRepo) Approve(ctx context.Context, claimID, adminID string) (*models.Claim, error) {
	if m.approveErr != nil {
		return nil, m.approveErr
	}
	m.lastAdminID = adminID
	now := time.Now().UTC()
	claim := &models.Claim{ID: claimID, Status: models.ClaimApproved, DecidedBy: &adminID, DecidedAt: &now}
	m.approved = claim
	return claim, nil
}

func (m *mockClaimRepo) Reject(ctx context.Context, claimID, adminID, reason string) (*models.Claim, error) {
	if m.rejectErr != nil {
		return nil, m.rejectErr
	}
	m.lastAdminID = adminID
	m.lastReason = reason
	now := time.Now().UTC()
	claim := &models.Claim{ID: claimID, Status: models.ClaimRejected, DecidedBy: &adminID, DecidedAt: &now, DecisionReason: &reason}
	m.rejected = claim
	return claim, nil
}

type mockInvalidator struct {
	invalidated int
}

func (m *mockInvalidator) InvalidateFoundListings(ctx context.Context) {
	m.invalidated++
}

var (
	adminActor   = models.Actor{UserID: "admin-1", Role: models.RoleAdmin}
	studentActor = models.Actor{UserID: "student-1", Role: models.RoleStudent}
)

func TestClaimServiceCreate(t *testing.T) {
	repo := &mockClaimRepo{}
	svc := NewClaimService(repo, &mockInvalidator{}, validator.New(), zap.NewNop())

	claim, err := svc.Create(context.Background(), "student-1", CreateClaimRequest{
		FoundItemID: "item-1",
		ClaimReason: "blue backpack with my initials",
		ContactInfo: "student@campus.edu",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ClaimPending, claim.Status)
	assert.Equal(t, "student-1", claim.ClaimantID)
	assert.Len(t, repo.claims, 1)
}

func TestClaimServiceCreateMissingReason(t *testing.T) {
	svc := NewClaimService(&mockClaimRepo{}, &mockInvalidator{}, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), "student-1", CreateClaimRequest{
		FoundItemID: "item-1",
		ContactInfo: "student@campus.edu",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestClaimServiceCreatePassesThroughDomainErrors(t *testing.T) {
	repo := &mockClaimRepo{createErr: appErrors.Clone(appErrors.ErrItemNotActive, "")}
	svc := NewClaimService(repo, &mockInvalidator{}, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), "student-1", CreateClaimRequest{
		FoundItemID: "item-1",
		ClaimReason: "mine",
		ContactInfo: "student@campus.edu",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrItemNotActive.Code, appErrors.FromError(err).Code)
}

func TestClaimServiceCreateWrapsInternalErrors(t *testing.T) {
	repo := &mockClaimRepo{createErr: errors.New("connection reset")}
	svc := NewClaimService(repo, &mockInvalidator{}, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), "student-1", CreateClaimRequest{
		FoundItemID: "item-1",
		ClaimReason: "mine",
		ContactInfo: "student@campus.edu",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestClaimServiceListPendingRequiresAdmin(t *testing.T) {
	svc := NewClaimService(&mockClaimRepo{}, &mockInvalidator{}, validator.New(), zap.NewNop())

	_, err := svc.ListPending(context.Background(), studentActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestClaimServiceListPending(t *testing.T) {
	repo := &mockClaimRepo{claims: []models.Claim{
		{ID: "c1", Status: models.ClaimPending},
		{ID: "c2", Status: models.ClaimApproved},
	}}
	svc := NewClaimService(repo, &mockInvalidator{}, validator.New(), zap.NewNop())

	pending, err := svc.ListPending(context.Background(), adminActor)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "c1", pending[0].ID)
}

func TestClaimServiceApprove(t *testing.T) {
	repo := &mockClaimRepo{}
	listings := &mockInvalidator{}
	svc := NewClaimService(repo, listings, validator.New(), zap.NewNop())

	claim, err := svc.Approve(context.Background(), adminActor, "c1")
	require.NoError(t, err)
	assert.Equal(t, models.ClaimApproved, claim.Status)
	assert.Equal(t, "admin-1", repo.lastAdminID)
	assert.Equal(t, 1, listings.invalidated)
}

func TestClaimServiceApproveRequiresAdmin(t *testing.T) {
	listings := &mockInvalidator{}
	svc := NewClaimService(&mockClaimRepo{}, listings, validator.New(), zap.NewNop())

	_, err := svc.Approve(context.Background(), studentActor, "c1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Zero(t, listings.invalidated)
}

func TestClaimServiceApproveAlreadyDecided(t *testing.T) {
	repo := &mockClaimRepo{approveErr: appErrors.Clone(appErrors.ErrClaimDecided, "")}
	listings := &mockInvalidator{}
	svc := NewClaimService(repo, listings, validator.New(), zap.NewNop())

	_, err := svc.Approve(context.Background(), adminActor, "c1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrClaimDecided.Code, appErrors.FromError(err).Code)
	assert.Zero(t, listings.invalidated)
}

func TestClaimServiceReject(t *testing.T) {
	repo := &mockClaimRepo{}
	listings := &mockInvalidator{}
	svc := NewClaimService(repo, listings, validator.New(), zap.NewNop())

	claim, err := svc.Reject(context.Background(), adminActor, "c1", RejectClaimRequest{Reason: "proof did not match"})
	require.NoError(t, err)
	assert.Equal(t, models.ClaimRejected, claim.Status)
	assert.Equal(t, "proof did not match", repo.lastReason)
	assert.Zero(t, listings.invalidated)
}

func TestClaimServiceRejectRequiresReason(t *testing.T) {
	svc := NewClaimService(&mockClaimRepo{}, &mockInvalidator{}, validator.New(), zap.NewNop())

	_, err := svc.Reject(context.Background(), adminActor, "c1", RejectClaimRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestClaimServiceExportCSV(t *testing.T) {
	adminID := "admin-1"
	decidedAt := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	repo := &mockClaimRepo{claims: []models.Claim{
		{ID: "c1", FoundItemID: "item-1", ClaimantID: "student-1", Status: models.ClaimApproved, DecidedBy: &adminID, DecidedAt: &decidedAt, CreatedAt: decidedAt.Add(-time.Hour)},
		{ID: "c2", FoundItemID: "item-2", ClaimantID: "student-2", Status: models.ClaimPending, CreatedAt: decidedAt},
	}}
	svc := NewClaimService(repo, &mockInvalidator{}, validator.New(), zap.NewNop())

	out, err := svc.Export(context.Background(), adminActor, ExportCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", out.ContentType)
	assert.Equal(t, "claims.csv", out.FileName)

	body := string(out.Data)
	assert.True(t, strings.HasPrefix(body, "ID,"))
	assert.Contains(t, body, "c1")
	assert.Contains(t, body, "approved")
	assert.Contains(t, body, "admin-1")
}

func TestClaimServiceExportPDF(t *testing.T) {
	repo := &mockClaimRepo{claims: []models.Claim{{ID: "c1", Status: models.ClaimPending, CreatedAt: time.Now().UTC()}}}
	svc := NewClaimService(repo, &mockInvalidator{}, validator.New(), zap.NewNop())

	out, err := svc.Export(context.Background(), adminActor, ExportPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", out.ContentType)
	assert.NotEmpty(t, out.Data)
}

func TestClaimServiceExportBadFormat(t *testing.T) {
	svc := NewClaimService(&mockClaimRepo{}, &mockInvalidator{}, validator.New(), zap.NewNop())

	_, err := svc.Export(context.Background(), adminActor, ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestClaimServiceExportRequiresAdmin(t *testing.T) {
	svc := NewClaimService(&mockClaimRepo{}, &mockInvalidator{}, validator.New(), zap.NewNop())

	_, err := svc.Export(context.Background(), studentActor, ExportCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
