package postgresadapter

import (
	"context"

	"github.com/google/uuid"
)

// UUIDGenerator issues membership identifiers for production wiring.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
