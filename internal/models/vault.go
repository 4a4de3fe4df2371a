package models

import "time"

// VaultEntry is a user-scoped credential stored out of band.
// Entries are resolvable either by their identifier or by logical name.
type VaultEntry struct {
	ID        string    `json:"id" badgerhold:"key"`
	OwnerID   string    `json:"owner_id" badgerhold:"index"`
	Name      string    `json:"name" badgerhold:"index"`
	Value     string    `json:"-"` // never serialized to API responses
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
