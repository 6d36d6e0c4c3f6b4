package model

import "time"

// perpetualTerm is the sentinel horizon for ticket-backed contracts.
const perpetualTerm = 100 * 365 * 24 * time.Hour

// Contract is a granted service entitlement tied to exactly one order.
// Contracts are deactivated on failure/cancellation, never deleted.
type Contract struct {
	ID          string // ULID
	MemberID    int64
	OrderID     string
	ProductCode ProductTypeCode
	StartAt     time.Time
	EndAt       time.Time
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PerpetualEnd returns the far-future end date used for ticket contracts.
func PerpetualEnd(now time.Time) time.Time {
	return now.Add(perpetualTerm)
}

// TicketCounter tracks a member's consumable entitlements. The count is
// incremented on grant and decremented on compensation, floored at zero.
type TicketCounter struct {
	MemberID  int64
	Count     int64
	UpdatedAt time.Time
}

// IncludesTicket reports whether a contract of the given product code carried
// a ticket grant that must be reversed on revocation.
func IncludesTicket(code ProductTypeCode) bool {
	return code == ProductTypeTicket || code == ProductTypePackage
}
