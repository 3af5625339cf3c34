package refdata

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/roach88/navsync/internal/db"
)

const (
	findCategorySQL   = `SELECT category_id FROM fund_category WHERE category_name = $1`
	createCategorySQL = `INSERT INTO fund_category (category_name) VALUES ($1) RETURNING category_id`
	findCompanySQL    = `SELECT company_id FROM fund_company WHERE company_name = $1`
	createCompanySQL  = `INSERT INTO fund_company (company_name) VALUES ($1) RETURNING company_id`
	findFundSQL       = `SELECT fund_id FROM fund_name WHERE fund_name = $1`
	createFundSQL     = `INSERT INTO fund_name (fund_name, company_id, category_id) VALUES ($1, $2, $3) RETURNING fund_id`
)

// PreparedStatements returns the hot reference queries to prepare on each
// new pool connection.
func PreparedStatements() map[string]string {
	return map[string]string{
		"find_category":   findCategorySQL,
		"create_category": createCategorySQL,
		"find_company":    findCompanySQL,
		"create_company":  createCompanySQL,
		"find_fund":       findFundSQL,
		"create_fund":     createFundSQL,
	}
}

// PostgresStore implements RefStore using pgx.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) findID(ctx context.Context, sql, name, what string) (int64, bool, error) {
	var id int64
	err := s.pool.QueryRow(ctx, sql, name).Scan(&id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, eris.Wrapf(err, "refdata: find %s %q", what, name)
	}
	return id, true, nil
}

// FindCategory looks up a category id by exact name.
func (s *PostgresStore) FindCategory(ctx context.Context, name string) (int64, bool, error) {
	return s.findID(ctx, findCategorySQL, name, "category")
}

// CreateCategory inserts a category row and returns its generated id.
func (s *PostgresStore) CreateCategory(ctx context.Context, name string) (int64, error) {
	var id int64
	if err := s.pool.QueryRow(ctx, createCategorySQL, name).Scan(&id); err != nil {
		return 0, eris.Wrapf(err, "refdata: create category %q", name)
	}
	return id, nil
}

// FindCompany looks up a company id by exact name.
func (s *PostgresStore) FindCompany(ctx context.Context, name string) (int64, bool, error) {
	return s.findID(ctx, findCompanySQL, name, "company")
}

// CreateCompany inserts a company row and returns its generated id.
func (s *PostgresStore) CreateCompany(ctx context.Context, name string) (int64, error) {
	var id int64
	if err := s.pool.QueryRow(ctx, createCompanySQL, name).Scan(&id); err != nil {
		return 0, eris.Wrapf(err, "refdata: create company %q", name)
	}
	return id, nil
}

// FindFund looks up a fund id by exact name. Fund name is the sole key;
// the category/company association is fixed at first creation.
func (s *PostgresStore) FindFund(ctx context.Context, name string) (int64, bool, error) {
	return s.findID(ctx, findFundSQL, name, "fund")
}

// CreateFund inserts a fund row with its resolved foreign keys.
func (s *PostgresStore) CreateFund(ctx context.Context, name string, companyID, categoryID int64) (int64, error) {
	var id int64
	if err := s.pool.QueryRow(ctx, createFundSQL, name, companyID, categoryID).Scan(&id); err != nil {
		return 0, eris.Wrapf(err, "refdata: create fund %q", name)
	}
	return id, nil
}
