package models

import "time"

// ItemKind discriminates lost listings from found listings.
type ItemKind string

const (
	KindLost  ItemKind = "lost"
	KindFound ItemKind = "found"
)

// IsValid reports whether the kind is one of the known values.
func (k ItemKind) IsValid() bool {
	return k == KindLost || k == KindFound
}

// ItemCategory enumerates the supported item categories.
type ItemCategory string

const (
	CategoryElectronics ItemCategory = "electronics"
	CategoryClothing    ItemCategory = "clothing"
	CategoryAccessories ItemCategory = "accessories"
	CategoryBooks       ItemCategory = "books"
	CategoryDocuments   ItemCategory = "documents"
	CategorySports      ItemCategory = "sports"
	CategoryBags        ItemCategory = "bags"
	CategoryJewelry     ItemCategory = "jewelry"
	CategoryKeys        ItemCategory = "keys"
	CategoryOthers      ItemCategory = "others"
)

// IsValid reports whether the category is part of the closed set.
func (c ItemCategory) IsValid() bool {
	switch c {
	case CategoryElectronics, CategoryClothing, CategoryAccessories, CategoryBooks,
		CategoryDocuments, CategorySports, CategoryBags, CategoryJewelry,
		CategoryKeys, CategoryOthers:
		return true
	}
	return false
}

// ItemStatus is the lifecycle state of a listing.
type ItemStatus string

const (
	StatusActive   ItemStatus = "active"
	StatusClaimed  ItemStatus = "claimed"
	StatusResolved ItemStatus = "resolved"
	StatusExpired  ItemStatus = "expired"
)

// IsValid reports whether the status is part of the closed set.
func (s ItemStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusClaimed, StatusResolved, StatusExpired:
		return true
	}
	return false
}

// Item represents a lost or found listing. Lost and found items share one
// lifecycle and one column set; the kind column keeps the two resources apart.
type Item struct {
	ID          string       `db:"id" json:"id"`
	Kind        ItemKind     `db:"kind" json:"kind"`
	OwnerID     string       `db:"owner_id" json:"owner_id"`
	Title       string       `db:"title" json:"title"`
	Description string       `db:"description" json:"description"`
	Category    ItemCategory `db:"category" json:"category"`
	Location    string       `db:"location" json:"location"`
	OccurredOn  time.Time    `db:"occurred_on" json:"occurred_on"`
	Status      ItemStatus   `db:"status" json:"status"`
	ContactInfo *string      `db:"contact_info" json:"contact_info,omitempty"`
	// RewardOffered is meaningful for lost items, StorageLocation for found ones.
	RewardOffered   *string   `db:"reward_offered" json:"reward_offered,omitempty"`
	StorageLocation *string   `db:"storage_location" json:"storage_location,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// ItemFilter captures search criteria for listing items.
type ItemFilter struct {
	Kind     ItemKind
	OwnerID  string
	Search   string
	Category string
	Status   string
	Location string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}
