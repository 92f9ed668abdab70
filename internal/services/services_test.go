package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pipeline/internal/models"
	"pipeline/internal/pdf"
	"pipeline/internal/repositories"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, entry models.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// stepClock hands out strictly increasing timestamps one second apart.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type fixture struct {
	db        *sql.DB
	path      string
	clock     *stepClock
	pub       *mockPublisher
	stages    *StageService
	deals     *DealService
	analytics *AnalyticsService
}

var (
	tenantA = models.Tenant{ID: 1, UserID: 11, RoleID: 10}
	tenantB = models.Tenant{ID: 2, UserID: 22, RoleID: 10}
)

func setupServices(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pipeline.db")
	db, err := repositories.Open(ctx, repositories.DialectSQLite, path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repositories.Migrate(ctx, db, repositories.DialectSQLite))

	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()

	f := newFixture(db, pub, true)
	f.path = path
	return f
}

// reopen wires a second set of services over a separate connection pool on
// the same database file, the way a second process would see it.
func (f *fixture) reopen(t *testing.T) *fixture {
	t.Helper()
	db, err := repositories.Open(context.Background(), repositories.DialectSQLite, f.path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	g := newFixture(db, f.pub, true)
	g.path = f.path
	return g
}

func newFixture(db *sql.DB, pub ActivityPublisher, allowReopen bool) *fixture {
	txm := repositories.NewTxManager(db)
	stageRepo := repositories.NewStageRepository(db)
	dealRepo := repositories.NewDealRepository(db)
	ledger := repositories.NewTransitionRepository(db)
	activityRepo := repositories.NewActivityRepository(db)
	clock := newStepClock()

	f := &fixture{
		db:        db,
		clock:     clock,
		stages:    NewStageService(txm, stageRepo, dealRepo, activityRepo, pub),
		deals:     NewDealService(txm, dealRepo, stageRepo, ledger, activityRepo, pub, allowReopen),
		analytics: NewAnalyticsService(dealRepo, stageRepo, activityRepo, pdf.NewReportGenerator("")),
	}
	if mp, ok := pub.(*mockPublisher); ok {
		f.pub = mp
	}
	f.stages.now = clock.Now
	f.deals.now = clock.Now
	f.analytics.now = clock.Now
	return f
}

func (f *fixture) stage(t *testing.T, tenant models.Tenant, name string, position int) *models.Stage {
	t.Helper()
	s, err := f.stages.Create(context.Background(), tenant, CreateStageInput{Name: name, Position: position})
	require.NoError(t, err)
	return s
}

func (f *fixture) deal(t *testing.T, tenant models.Tenant, title string, value string, stageID *int64) *models.Deal {
	t.Helper()
	in := CreateDealInput{ClientID: 1, Title: title, CurrentStageID: stageID}
	if value != "" {
		in.NegotiatedValue = &value
	}
	d, err := f.deals.Create(context.Background(), tenant, in)
	require.NoError(t, err)
	return d
}

func strPtr(s string) *string { return &s }

// storageErrorCount reads pipeline_storage_errors_total for one op label.
func storageErrorCount(t *testing.T, op string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "pipeline_storage_errors_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "op" && l.GetValue() == op {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

// blockWrites installs a trigger that aborts the matching statement, so the
// surrounding transaction fails part way through.
func (f *fixture) blockWrites(t *testing.T, name, event string) {
	t.Helper()
	_, err := f.db.Exec(`CREATE TRIGGER ` + name + ` ` + event + ` BEGIN SELECT RAISE(ABORT, 'blocked'); END`)
	require.NoError(t, err)
}

func (f *fixture) actions(t *testing.T, tenant models.Tenant) []string {
	t.Helper()
	entries, err := f.analytics.ActivityLog(context.Background(), tenant, 0)
	require.NoError(t, err)
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Action)
	}
	return out
}
