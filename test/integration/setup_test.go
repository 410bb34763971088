package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carevista/carevista/internal/domain/identity"
	"github.com/carevista/carevista/internal/platform/db"
)

// testDB holds the shared database infrastructure for integration tests.
type testDB struct {
	Pool          *pgxpool.Pool
	ConnStr       string
	MigrationsDir string
}

// globalDB is the package-level test database, initialized once in TestMain.
var globalDB *testDB

func TestMain(m *testing.M) {
	ctx := context.Background()

	connStr, cleanup, err := startPostgresContainer(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to setup postgres container: %v\n", err)
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		cleanup()
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}

	migrationsDir := findMigrationsDir()
	migrator := db.NewMigrator(pool, migrationsDir)
	if _, err := migrator.Up(ctx); err != nil {
		pool.Close()
		cleanup()
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		os.Exit(1)
	}

	globalDB = &testDB{Pool: pool, ConnStr: connStr, MigrationsDir: migrationsDir}
	code := m.Run()
	pool.Close()
	cleanup()
	os.Exit(code)
}

// findMigrationsDir locates the migrations directory relative to this test
// file.
func findMigrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	// test/integration -> repo root
	root := filepath.Join(dir, "..", "..")
	return filepath.Join(root, "migrations")
}

// truncateAll wipes every domain table between tests. The _migrations
// table is left alone.
func truncateAll(t *testing.T, ctx context.Context) {
	t.Helper()
	_, err := globalDB.Pool.Exec(ctx, `TRUNCATE
		users, temporary_patients, consents, assisted_sessions,
		vitals, symptom_cases, case_summaries, reports, lab_reports,
		triage_records, prescriptions, discussion_posts, discussion_replies,
		audit_logs, rtc_uids`)
	if err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

// createTestUser inserts a directory entry with the given role.
func createTestUser(t *testing.T, ctx context.Context, id, role string) {
	t.Helper()
	repo := identity.NewRepoPG(globalDB.Pool)
	err := repo.CreateUser(ctx, &identity.User{
		ID:          id,
		Role:        role,
		DisplayName: "Test " + role,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create test user %s: %v", id, err)
	}
}

// uniqueID generates a unique subject id for test isolation.
func uniqueID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.New().String()[:8])
}

func ptrStr(s string) *string { return &s }
