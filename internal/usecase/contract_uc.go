// File: internal/usecase/contract_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"consulting-payments/internal/domain"
	"consulting-payments/internal/domain/model"
	"consulting-payments/internal/domain/ports/repository"
	"consulting-payments/internal/infra/metrics"
)

// Compile-time check
var _ ContractUseCase = (*contractUC)(nil)

type ContractUseCase interface {
	// Grant issues the entitlement shape the product's type code calls for.
	// Runs inside the caller's transaction.
	Grant(ctx context.Context, tx repository.Tx, productID, memberID int64, orderID string) error
	// RevokeForOrder deactivates the contract tied to an order and reverses a
	// ticket grant when the shape included one. No-op when no contract exists.
	RevokeForOrder(ctx context.Context, tx repository.Tx, orderID string, memberID int64) error
}

type contractUC struct {
	contracts repository.ContractRepository
	tickets   repository.TicketRepository
	products  repository.ProductRepository
	log       *zerolog.Logger
}

func NewContractUseCase(contracts repository.ContractRepository, tickets repository.TicketRepository, products repository.ProductRepository, logger *zerolog.Logger) *contractUC {
	return &contractUC{contracts: contracts, tickets: tickets, products: products, log: logger}
}

func (u *contractUC) Grant(ctx context.Context, tx repository.Tx, productID, memberID int64, orderID string) error {
	product, err := u.products.FindByID(ctx, tx, productID)
	if err != nil {
		return err
	}

	now := time.Now()
	switch product.TypeCode {
	case model.ProductTypeFixedTerm:
		err = u.grantFixedTerm(ctx, tx, product, memberID, orderID, now)
	case model.ProductTypeTicket:
		err = u.grantTicket(ctx, tx, product, memberID, orderID, now)
	case model.ProductTypePackage:
		err = u.grantPackage(ctx, tx, product, memberID, orderID, now)
	default:
		// Legacy products without a type code still get a dated contract.
		u.log.Warn().Int64("product_id", productID).Str("type", string(product.TypeCode)).
			Msg("unknown product type, granting fixed-term")
		err = u.grantFixedTerm(ctx, tx, product, memberID, orderID, now)
	}
	if err != nil {
		return err
	}

	metrics.IncContractGrant(string(product.TypeCode))
	u.log.Info().Int64("member_id", memberID).Str("order_id", orderID).
		Str("type", string(product.TypeCode)).Msg("contract granted")
	return nil
}

func (u *contractUC) grantFixedTerm(ctx context.Context, tx repository.Tx, product *model.Product, memberID int64, orderID string, now time.Time) error {
	return u.contracts.Save(ctx, tx, u.newContract(product, memberID, orderID, fixedTermEnd(product, now), now))
}

func (u *contractUC) grantTicket(ctx context.Context, tx repository.Tx, product *model.Product, memberID int64, orderID string, now time.Time) error {
	if err := u.contracts.Save(ctx, tx, u.newContract(product, memberID, orderID, model.PerpetualEnd(now), now)); err != nil {
		return err
	}
	return u.tickets.Increment(ctx, tx, memberID)
}

func (u *contractUC) grantPackage(ctx context.Context, tx repository.Tx, product *model.Product, memberID int64, orderID string, now time.Time) error {
	if err := u.contracts.Save(ctx, tx, u.newContract(product, memberID, orderID, fixedTermEnd(product, now), now)); err != nil {
		return err
	}
	return u.tickets.Increment(ctx, tx, memberID)
}

func (u *contractUC) newContract(product *model.Product, memberID int64, orderID string, endAt, now time.Time) *model.Contract {
	return &model.Contract{
		ID:          ulid.Make().String(),
		MemberID:    memberID,
		OrderID:     orderID,
		ProductCode: product.TypeCode,
		StartAt:     now,
		EndAt:       endAt,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (u *contractUC) RevokeForOrder(ctx context.Context, tx repository.Tx, orderID string, memberID int64) error {
	contract, err := u.contracts.FindByOrder(ctx, tx, orderID, memberID)
	if err != nil {
		if err == domain.ErrNotFound {
			// Nothing was granted for this order (e.g. failure before grant).
			return nil
		}
		return err
	}

	if err := u.contracts.Deactivate(ctx, tx, contract.ID); err != nil {
		return err
	}
	if model.IncludesTicket(contract.ProductCode) {
		if err := u.tickets.Decrement(ctx, tx, memberID); err != nil {
			return err
		}
	}

	metrics.IncContractRevoke(string(contract.ProductCode))
	u.log.Info().Int64("member_id", memberID).Str("order_id", orderID).Msg("contract revoked")
	return nil
}

// fixedTermEnd is the product's configured term date, or one month out when
// the product has none.
func fixedTermEnd(product *model.Product, now time.Time) time.Time {
	if product.Term != nil {
		return *product.Term
	}
	return now.AddDate(0, 1, 0)
}
