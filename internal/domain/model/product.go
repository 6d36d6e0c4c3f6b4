package model

import "time"

// ProductTypeCode selects the contract shape issued when an order completes.
type ProductTypeCode string

const (
	ProductTypeFixedTerm ProductTypeCode = "FIXEDTERM" // dated entitlement
	ProductTypeTicket    ProductTypeCode = "TICKET"    // consumable counter, perpetual contract
	ProductTypePackage   ProductTypeCode = "PACKAGE"   // dated entitlement plus one ticket
)

// Product is a purchasable service definition from the catalog.
type Product struct {
	ID       int64
	Name     string
	Price    int64
	TypeCode ProductTypeCode
	// Term is the fixed contract end date for FIXEDTERM/PACKAGE products.
	// nil means "one month from grant".
	Term *time.Time
}
