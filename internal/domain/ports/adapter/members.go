package adapter

import "context"

// MemberDirectory is the boundary to the membership collaborator. Only the
// active-entitlement query the payment flow needs is modeled here.
type MemberDirectory interface {
	FindActiveServices(ctx context.Context, memberID int64) ([]string, error)
}
