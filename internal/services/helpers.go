package services

import (
	"github.com/google/uuid"

	"github.com/poofware/liszt-service/internal/utils"
)

func requireParam(name, value string) error {
	if value == "" {
		return utils.NewValidationError(name + " parameter is required")
	}
	return nil
}

// newID returns a fresh 36-char hyphenated UUIDv4.
func newID() string {
	return uuid.NewString()
}

func storeErr(message string, err error) error {
	return utils.NewStoreError(message, err)
}
