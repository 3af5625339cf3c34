package ingest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/navsync/internal/refdata"
	"github.com/roach88/navsync/internal/window"
)

// memRefStore is an in-memory RefStore for pipeline tests.
type memRefStore struct {
	mu     sync.Mutex
	nextID int64
	ids    map[string]int64
	err    error
}

func newMemRefStore() *memRefStore {
	return &memRefStore{ids: make(map[string]int64)}
}

func (m *memRefStore) find(kind, name string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, false, m.err
	}
	id, ok := m.ids[kind+"/"+name]
	return id, ok, nil
}

func (m *memRefStore) create(kind, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.nextID++
	m.ids[kind+"/"+name] = m.nextID
	return m.nextID, nil
}

func (m *memRefStore) FindCategory(_ context.Context, name string) (int64, bool, error) {
	return m.find("cat", name)
}
func (m *memRefStore) CreateCategory(_ context.Context, name string) (int64, error) {
	return m.create("cat", name)
}
func (m *memRefStore) FindCompany(_ context.Context, name string) (int64, bool, error) {
	return m.find("com", name)
}
func (m *memRefStore) CreateCompany(_ context.Context, name string) (int64, error) {
	return m.create("com", name)
}
func (m *memRefStore) FindFund(_ context.Context, name string) (int64, bool, error) {
	return m.find("fund", name)
}
func (m *memRefStore) CreateFund(_ context.Context, name string, _, _ int64) (int64, error) {
	return m.create("fund", name)
}

// fakeSource serves a canned report per window start, or an error.
type fakeSource struct {
	reports map[string]string
	errFor  map[string]error
}

func (f *fakeSource) NAVHistory(_ context.Context, w window.Window) (string, error) {
	if err := f.errFor[w.FromParam()]; err != nil {
		return "", err
	}
	return f.reports[w.FromParam()], nil
}

func monthWindow(from string) window.Window {
	t, err := time.Parse(window.ParamLayout, from)
	if err != nil {
		panic(err)
	}
	return window.Window{From: t, To: t.AddDate(0, 1, 0).AddDate(0, 0, -1)}
}

func reportFor(fund, date string) string {
	return fmt.Sprintf("Header\nEquity\nAcme\nSC;%s;I1;I2;10.00;9.90;10.10;%s\n", fund, date)
}

func TestRunWindow_LoadsResolvedRecords(t *testing.T) {
	mock := newMockPool(t)
	source := &fakeSource{reports: map[string]string{
		"01-Nov-2023": reportFor("Fund A", "01-Nov-2023"),
	}}
	resolver := refdata.NewResolver(newMemRefStore())
	p := NewPipeline(source, resolver, mock, 100)

	mock.ExpectCopyFrom(pgx.Identifier{"fund_value"}, priceColumns).WillReturnResult(1)

	n, err := p.RunWindow(context.Background(), monthWindow("01-Nov-2023"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunWindow_FetchFailureInsertsNothing(t *testing.T) {
	mock := newMockPool(t)
	source := &fakeSource{errFor: map[string]error{
		"01-Nov-2023": eris.New("http 503"),
	}}
	p := NewPipeline(source, refdata.NewResolver(newMemRefStore()), mock, 100)

	n, err := p.RunWindow(context.Background(), monthWindow("01-Nov-2023"))
	require.Error(t, err)
	assert.Zero(t, n)
	// No CopyFrom was ever expected, so an insert attempt would fail here.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunWindow_ResolutionFailureAbortsWindow(t *testing.T) {
	mock := newMockPool(t)
	store := newMemRefStore()
	store.err = eris.New("connection reset")
	source := &fakeSource{reports: map[string]string{
		"01-Nov-2023": reportFor("Fund A", "01-Nov-2023"),
	}}
	p := NewPipeline(source, refdata.NewResolver(store), mock, 100)

	_, err := p.RunWindow(context.Background(), monthWindow("01-Nov-2023"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingest: window 01-Nov-2023")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunner_FailedWindowIsIsolated(t *testing.T) {
	mock := newMockPool(t)
	mock.MatchExpectationsInOrder(false)

	source := &fakeSource{
		reports: map[string]string{
			"01-Nov-2023": reportFor("Fund A", "01-Nov-2023"),
			"01-Jan-2024": reportFor("Fund C", "01-Jan-2024"),
		},
		errFor: map[string]error{
			"01-Dec-2023": eris.New("timeout"),
		},
	}

	resolver := refdata.NewResolver(newMemRefStore())
	p := NewPipeline(source, resolver, mock, 100)
	windows := []window.Window{
		monthWindow("01-Nov-2023"),
		monthWindow("01-Dec-2023"),
		monthWindow("01-Jan-2024"),
	}

	// Exactly one load per surviving window; none for the failed one.
	mock.ExpectCopyFrom(pgx.Identifier{"fund_value"}, priceColumns).WillReturnResult(1)
	mock.ExpectCopyFrom(pgx.Identifier{"fund_value"}, priceColumns).WillReturnResult(1)

	s := NewRunner(p, windows, 0).Run(context.Background())

	assert.Equal(t, 3, s.Windows)
	assert.Equal(t, 2, s.Succeeded)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, int64(2), s.Rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunner_DefaultConcurrency(t *testing.T) {
	p := NewPipeline(&fakeSource{}, refdata.NewResolver(newMemRefStore()), nil, 0)
	r := NewRunner(p, make([]window.Window, 5), 0)
	assert.Equal(t, 6, r.concurrency)
}
