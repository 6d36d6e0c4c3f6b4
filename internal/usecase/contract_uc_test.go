//go:build !integration

// File: internal/usecase/contract_uc_test.go
package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"consulting-payments/internal/domain/model"
)

type contractFixture struct {
	contracts *memContractRepo
	tickets   *memTicketRepo
	products  *memProductRepo
	uc        ContractUseCase
}

func newContractFixture() *contractFixture {
	logger := zerolog.Nop()
	f := &contractFixture{
		contracts: newMemContractRepo(),
		tickets:   newMemTicketRepo(),
		products:  newMemProductRepo(),
	}
	f.uc = NewContractUseCase(f.contracts, f.tickets, f.products, &logger)
	return f
}

func (f *contractFixture) contractFor(t *testing.T, orderID string) *model.Contract {
	t.Helper()
	c, err := f.contracts.FindByOrder(context.Background(), nil, orderID, 77)
	if err != nil {
		t.Fatalf("FindByOrder: %v", err)
	}
	return c
}

func TestGrantFixedTermUsesProductTerm(t *testing.T) {
	f := newContractFixture()
	term := time.Now().AddDate(0, 6, 0).Truncate(time.Second)
	f.products.add(&model.Product{ID: 1, Price: 50000, TypeCode: model.ProductTypeFixedTerm, Term: &term})

	if err := f.uc.Grant(context.Background(), nil, 1, 77, "ord-1"); err != nil {
		t.Fatalf("Grant: %v", err)
	}

	c := f.contractFor(t, "ord-1")
	if !c.EndAt.Equal(term) {
		t.Fatalf("expected configured term %v, got %v", term, c.EndAt)
	}
	if cnt, _ := f.tickets.Count(context.Background(), nil, 77); cnt != 0 {
		t.Fatalf("fixed-term grant must not issue tickets, got %d", cnt)
	}
}

func TestGrantFixedTermDefaultsToOneMonth(t *testing.T) {
	f := newContractFixture()
	f.products.add(&model.Product{ID: 1, Price: 50000, TypeCode: model.ProductTypeFixedTerm})

	before := time.Now()
	if err := f.uc.Grant(context.Background(), nil, 1, 77, "ord-1"); err != nil {
		t.Fatalf("Grant: %v", err)
	}

	c := f.contractFor(t, "ord-1")
	lo, hi := before.AddDate(0, 1, 0), time.Now().AddDate(0, 1, 0)
	if c.EndAt.Before(lo) || c.EndAt.After(hi) {
		t.Fatalf("expected end one month out, got %v", c.EndAt)
	}
}

func TestGrantTicketIssuesPerpetualContractAndCounter(t *testing.T) {
	f := newContractFixture()
	f.products.add(&model.Product{ID: 2, Price: 30000, TypeCode: model.ProductTypeTicket})

	if err := f.uc.Grant(context.Background(), nil, 2, 77, "ord-2"); err != nil {
		t.Fatalf("Grant: %v", err)
	}

	c := f.contractFor(t, "ord-2")
	// Ticket contracts never expire on their own; the end date is a
	// far-future sentinel.
	if c.EndAt.Before(time.Now().AddDate(99, 0, 0)) {
		t.Fatalf("expected far-future end, got %v", c.EndAt)
	}
	if cnt, _ := f.tickets.Count(context.Background(), nil, 77); cnt != 1 {
		t.Fatalf("expected one ticket, got %d", cnt)
	}
}

func TestGrantPackageIssuesDatedContractAndTicket(t *testing.T) {
	f := newContractFixture()
	f.products.add(&model.Product{ID: 3, Price: 90000, TypeCode: model.ProductTypePackage})

	if err := f.uc.Grant(context.Background(), nil, 3, 77, "ord-3"); err != nil {
		t.Fatalf("Grant: %v", err)
	}

	c := f.contractFor(t, "ord-3")
	if c.EndAt.After(time.Now().AddDate(0, 2, 0)) {
		t.Fatalf("package contract must be dated, got %v", c.EndAt)
	}
	if cnt, _ := f.tickets.Count(context.Background(), nil, 77); cnt != 1 {
		t.Fatalf("expected one ticket with the package, got %d", cnt)
	}
}

func TestGrantUnknownTypeFallsBackToFixedTerm(t *testing.T) {
	f := newContractFixture()
	f.products.add(&model.Product{ID: 9, Price: 10000, TypeCode: "LEGACY"})

	if err := f.uc.Grant(context.Background(), nil, 9, 77, "ord-9"); err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if _, err := f.contracts.FindByOrder(context.Background(), nil, "ord-9", 77); err != nil {
		t.Fatalf("expected a contract for unknown type, got %v", err)
	}
	if cnt, _ := f.tickets.Count(context.Background(), nil, 77); cnt != 0 {
		t.Fatalf("fallback grant must not issue tickets, got %d", cnt)
	}
}

func TestRevokeForOrderDeactivatesAndReversesTicket(t *testing.T) {
	f := newContractFixture()
	f.products.add(&model.Product{ID: 2, Price: 30000, TypeCode: model.ProductTypeTicket})
	if err := f.uc.Grant(context.Background(), nil, 2, 77, "ord-2"); err != nil {
		t.Fatalf("Grant: %v", err)
	}

	if err := f.uc.RevokeForOrder(context.Background(), nil, "ord-2", 77); err != nil {
		t.Fatalf("RevokeForOrder: %v", err)
	}
	if n := f.contracts.activeCount(77); n != 0 {
		t.Fatalf("contract must be inactive, %d active", n)
	}
	if cnt, _ := f.tickets.Count(context.Background(), nil, 77); cnt != 0 {
		t.Fatalf("ticket must be reversed, got %d", cnt)
	}
}

func TestRevokeForOrderWithoutContractIsNoop(t *testing.T) {
	f := newContractFixture()
	if err := f.uc.RevokeForOrder(context.Background(), nil, "missing", 77); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}

func TestTicketDecrementFloorsAtZero(t *testing.T) {
	f := newContractFixture()
	if err := f.tickets.Decrement(context.Background(), nil, 77); err != nil {
		t.Fatalf("Decrement: %v", err)
	}
	if cnt, _ := f.tickets.Count(context.Background(), nil, 77); cnt != 0 {
		t.Fatalf("count must not go negative, got %d", cnt)
	}
}
