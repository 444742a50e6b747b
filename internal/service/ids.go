package service

import "github.com/google/uuid"

// newID returns a version 7 uuid. Its text form sorts in creation order, which
// breaks createdAt ties in post listings.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
