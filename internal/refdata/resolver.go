package refdata

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ResolvedIDs holds the durable ids for one (category, company, fund) triple.
type ResolvedIDs struct {
	CategoryID int64
	CompanyID  int64
	FundID     int64
}

// Resolver maps reference names to ids, creating rows on first sight and
// caching the mapping for the lifetime of a run. A single mutex serializes
// the full check-then-create sequence so concurrent workers never both miss
// a name and both insert it.
type Resolver struct {
	mu         sync.Mutex
	store      RefStore
	categories map[string]int64
	companies  map[string]int64
	funds      map[string]int64
}

// NewResolver creates a resolver with empty caches. Construct one per run
// and share it across all workers.
func NewResolver(store RefStore) *Resolver {
	return &Resolver{
		store:      store,
		categories: make(map[string]int64),
		companies:  make(map[string]int64),
		funds:      make(map[string]int64),
	}
}

// Resolve returns the ids for a (category, company, fund) triple, creating
// any rows not yet present. Resolution runs in dependency order so the fund
// insert has both foreign keys in hand. Fails only on store errors; a failed
// name leaves no cache entry behind.
func (r *Resolver) Resolve(ctx context.Context, category, company, fund string) (ResolvedIDs, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	categoryID, err := r.resolveName(ctx, r.categories, category,
		r.store.FindCategory, r.store.CreateCategory, "category")
	if err != nil {
		return ResolvedIDs{}, err
	}

	companyID, err := r.resolveName(ctx, r.companies, company,
		r.store.FindCompany, r.store.CreateCompany, "company")
	if err != nil {
		return ResolvedIDs{}, err
	}

	fundID, err := r.resolveName(ctx, r.funds, fund,
		r.store.FindFund,
		func(ctx context.Context, name string) (int64, error) {
			return r.store.CreateFund(ctx, name, companyID, categoryID)
		},
		"fund")
	if err != nil {
		return ResolvedIDs{}, err
	}

	return ResolvedIDs{CategoryID: categoryID, CompanyID: companyID, FundID: fundID}, nil
}

// resolveName runs the cache -> store lookup -> create sequence for one name.
// Caller holds r.mu.
func (r *Resolver) resolveName(
	ctx context.Context,
	cache map[string]int64,
	name string,
	find func(context.Context, string) (int64, bool, error),
	create func(context.Context, string) (int64, error),
	kind string,
) (int64, error) {
	if id, ok := cache[name]; ok {
		return id, nil
	}

	id, found, err := find(ctx, name)
	if err != nil {
		return 0, eris.Wrapf(err, "refdata: resolve %s", kind)
	}
	if !found {
		id, err = create(ctx, name)
		if err != nil {
			return 0, eris.Wrapf(err, "refdata: resolve %s", kind)
		}
		zap.L().Debug("created reference row",
			zap.String("kind", kind),
			zap.String("name", name),
			zap.Int64("id", id),
		)
	}

	cache[name] = id
	return id, nil
}
