package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trackmate-dev/trackmate-api/internal/models"
	appErrors "github.com/trackmate-dev/trackmate-api/pkg/errors"
)

// ClaimRepository manages claim persistence. The create and decide paths run
// inside transactions that lock the claimed item row, so the "item must be
// active" precondition and the claim+item status cascade cannot race.
type ClaimRepository struct {
	db *sqlx.DB
}

// NewClaimRepository constructs a ClaimRepository.
func NewClaimRepository(db *sqlx.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

const claimColumns = `id, found_item_id, claimant_id, claim_reason, contact_info, additional_proof, status, decided_by, decision_reason, created_at, decided_at`

// Create inserts a pending claim after verifying, under a row lock, that the
// target is an active found item, not the claimant's own listing, and not
// already claimed by the same user.
func (r *ClaimRepository) Create(ctx context.Context, claim *models.Claim) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin claim transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var item struct {
		Kind    models.ItemKind   `db:"kind"`
		OwnerID string            `db:"owner_id"`
		Status  models.ItemStatus `db:"status"`
	}
	const lockQuery = `SELECT kind, owner_id, status FROM items WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &item, lockQuery, claim.FoundItemID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "found item not found")
		}
		return fmt.Errorf("lock claimed item: %w", err)
	}

	if item.Kind != models.KindFound {
		return appErrors.Clone(appErrors.ErrValidation, "claims can only target found items")
	}
	if item.OwnerID == claim.ClaimantID {
		return appErrors.Clone(appErrors.ErrValidation, "you cannot claim your own found item")
	}
	if item.Status != models.StatusActive {
		return appErrors.Clone(appErrors.ErrItemNotActive, "item is not available for claiming")
	}

	var exists int
	const dupQuery = `SELECT 1 FROM claims WHERE found_item_id = $1 AND claimant_id = $2 AND status = $3 LIMIT 1`
	if err = tx.GetContext(ctx, &exists, dupQuery, claim.FoundItemID, claim.ClaimantID, models.ClaimPending); err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("check pending claim: %w", err)
	}
	if err == nil {
		return appErrors.Clone(appErrors.ErrConflict, "you already have a pending claim on this item")
	}

	if claim.ID == "" {
		claim.ID = uuid.NewString()
	}
	claim.Status = models.ClaimPending
	if claim.CreatedAt.IsZero() {
		claim.CreatedAt = time.Now().UTC()
	}

	const insertQuery = `INSERT INTO claims (id, found_item_id, claimant_id, claim_reason, contact_info, additional_proof, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err = tx.ExecContext(ctx, insertQuery, claim.ID, claim.FoundItemID, claim.ClaimantID, claim.ClaimReason, claim.ContactInfo, claim.AdditionalProof, claim.Status, claim.CreatedAt); err != nil {
		return fmt.Errorf("insert claim: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit claim: %w", err)
	}
	return nil
}

// FindByID returns a claim by identifier.
func (r *ClaimRepository) FindByID(ctx context.Context, id string) (*models.Claim, error) {
	query := fmt.Sprintf(`SELECT %s FROM claims WHERE id = $1 LIMIT 1`, claimColumns)
	var claim models.Claim
	if err := r.db.GetContext(ctx, &claim, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find claim by id: %w", err)
	}
	return &claim, nil
}

// ListPending returns all undecided claims, oldest first.
func (r *ClaimRepository) ListPending(ctx context.Context) ([]models.Claim, error) {
	query := fmt.Sprintf(`SELECT %s FROM claims WHERE status = $1 ORDER BY created_at ASC`, claimColumns)
	var claims []models.Claim
	if err := r.db.SelectContext(ctx, &claims, query, models.ClaimPending); err != nil {
		return nil, fmt.Errorf("list pending claims: %w", err)
	}
	return claims, nil
}

// ListByClaimant returns every claim the user has filed, newest first.
func (r *ClaimRepository) ListByClaimant(ctx context.Context, claimantID string) ([]models.Claim, error) {
	query := fmt.Sprintf(`SELECT %s FROM claims WHERE claimant_id = $1 ORDER BY created_at DESC`, claimColumns)
	var claims []models.Claim
	if err := r.db.SelectContext(ctx, &claims, query, claimantID); err != nil {
		return nil, fmt.Errorf("list claims by claimant: %w", err)
	}
	return claims, nil
}

// ListAll returns every claim, oldest first. Used by the admin export.
func (r *ClaimRepository) ListAll(ctx context.Context) ([]models.Claim, error) {
	query := fmt.Sprintf(`SELECT %s FROM claims ORDER BY created_at ASC`, claimColumns)
	var claims []models.Claim
	if err := r.db.SelectContext(ctx, &claims, query); err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	return claims, nil
}

// Approve marks a pending claim approved and flips the claimed item to
// "claimed" in the same transaction. Either both rows change or neither does.
func (r *ClaimRepository) Approve(ctx context.Context, claimID, adminID string) (_ *models.Claim, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin approve transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	claim, err := r.lockPendingClaim(ctx, tx, claimID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	const updateClaim = `UPDATE claims SET status = $2, decided_by = $3, decided_at = $4 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, updateClaim, claimID, models.ClaimApproved, adminID, now); err != nil {
		return nil, fmt.Errorf("approve claim: %w", err)
	}

	const updateItem = `UPDATE items SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, updateItem, claim.FoundItemID, models.StatusClaimed, now); err != nil {
		return nil, fmt.Errorf("mark item claimed: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit approve: %w", err)
	}

	claim.Status = models.ClaimApproved
	claim.DecidedBy = &adminID
	claim.DecidedAt = &now
	return claim, nil
}

// Reject marks a pending claim rejected with a decision reason. The item
// stays active and open to other claims.
func (r *ClaimRepository) Reject(ctx context.Context, claimID, adminID, reason string) (_ *models.Claim, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reject transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	claim, err := r.lockPendingClaim(ctx, tx, claimID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	const updateClaim = `UPDATE claims SET status = $2, decided_by = $3, decision_reason = $4, decided_at = $5 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, updateClaim, claimID, models.ClaimRejected, adminID, reason, now); err != nil {
		return nil, fmt.Errorf("reject claim: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reject: %w", err)
	}

	claim.Status = models.ClaimRejected
	claim.DecidedBy = &adminID
	claim.DecisionReason = &reason
	claim.DecidedAt = &now
	return claim, nil
}

func (r *ClaimRepository) lockPendingClaim(ctx context.Context, tx *sqlx.Tx, claimID string) (*models.Claim, error) {
	query := fmt.Sprintf(`SELECT %s FROM claims WHERE id = $1 FOR UPDATE`, claimColumns)
	var claim models.Claim
	if err := tx.GetContext(ctx, &claim, query, claimID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "claim not found")
		}
		return nil, fmt.Errorf("lock claim: %w", err)
	}
	if claim.Status != models.ClaimPending {
		return nil, appErrors.Clone(appErrors.ErrClaimDecided, "claim has already been decided")
	}
	return &claim, nil
}
