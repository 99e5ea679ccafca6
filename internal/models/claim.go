package models

import "time"

// ClaimStatus is the decision state of a claim.
type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "pending"
	ClaimApproved ClaimStatus = "approved"
	ClaimRejected ClaimStatus = "rejected"
)

// CanTransition reports whether moving to the target status is allowed.
// Pending is the only non-terminal state.
func (s ClaimStatus) CanTransition(to ClaimStatus) bool {
	if s != ClaimPending {
		return false
	}
	return to == ClaimApproved || to == ClaimRejected
}

// Claim links a claimant to a found item and records the admin decision.
type Claim struct {
	ID              string      `db:"id" json:"id"`
	FoundItemID     string      `db:"found_item_id" json:"found_item_id"`
	ClaimantID      string      `db:"claimant_id" json:"claimant_id"`
	ClaimReason     string      `db:"claim_reason" json:"claim_reason"`
	ContactInfo     string      `db:"contact_info" json:"contact_info"`
	AdditionalProof *string     `db:"additional_proof" json:"additional_proof,omitempty"`
	Status          ClaimStatus `db:"status" json:"status"`
	DecidedBy       *string     `db:"decided_by" json:"decided_by,omitempty"`
	DecisionReason  *string     `db:"decision_reason" json:"decision_reason,omitempty"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	DecidedAt       *time.Time  `db:"decided_at" json:"decided_at,omitempty"`
}
