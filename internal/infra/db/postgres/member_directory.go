package postgres

import (
	"context"

	"consulting-payments/internal/domain/ports/adapter"
	"consulting-payments/internal/domain/ports/repository"
)

var _ adapter.MemberDirectory = (*memberDirectory)(nil)

// memberDirectory answers the membership collaborator's active-entitlement
// query from the contract ledger. A deployment with a separate membership
// service swaps this for an HTTP client behind the same port.
type memberDirectory struct {
	contracts repository.ContractRepository
}

func NewMemberDirectory(contracts repository.ContractRepository) *memberDirectory {
	return &memberDirectory{contracts: contracts}
}

func (d *memberDirectory) FindActiveServices(ctx context.Context, memberID int64) ([]string, error) {
	return d.contracts.ListActiveCodes(ctx, nil, memberID)
}
