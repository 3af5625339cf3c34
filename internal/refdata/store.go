// Package refdata resolves category, company, and fund names to durable ids,
// creating reference rows on first sight.
package refdata

import "context"

// RefStore defines the persistence operations the resolver needs. Find
// methods report (id, found); a missing row is not an error.
type RefStore interface {
	FindCategory(ctx context.Context, name string) (int64, bool, error)
	CreateCategory(ctx context.Context, name string) (int64, error)

	FindCompany(ctx context.Context, name string) (int64, bool, error)
	CreateCompany(ctx context.Context, name string) (int64, error)

	FindFund(ctx context.Context, name string) (int64, bool, error)
	CreateFund(ctx context.Context, name string, companyID, categoryID int64) (int64, error)
}
