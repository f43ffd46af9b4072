package service

import (
	"github.com/google/uuid"

	appErrors "github.com/noah-isme/institute-portal-api/pkg/errors"
)

// requireID rejects identifiers that cannot address a UUID primary key, so
// malformed path ids read as missing records instead of reaching Postgres.
func requireID(id, resource string) error {
	if _, err := uuid.Parse(id); err != nil {
		return appErrors.Clone(appErrors.ErrNotFound, resource+" not found")
	}
	return nil
}
