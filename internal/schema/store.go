package schema

import (
	"context"
	"fmt"
	"time"

	"tenant-service/internal/model"
	"tenant-service/prometheus"

	"github.com/hashicorp/go-multierror"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Module is one named group of tenant-scoped models migrated together.
// Modules are migrated independently so a failure in one does not abort the
// others.
type Module struct {
	Name   string
	Models []interface{}
}

// DefaultModules returns the full tenant-scoped table set mirrored into
// every tenant schema.
func DefaultModules() []Module {
	return []Module{
		{Name: "settings", Models: []interface{}{&model.TenantSettings{}}},
		{Name: "questions", Models: []interface{}{&model.QuestionCategory{}, &model.Question{}}},
		{Name: "interviews", Models: []interface{}{&model.Interview{}}},
		{Name: "candidates", Models: []interface{}{&model.Candidate{}}},
		{Name: "submissions", Models: []interface{}{&model.Submission{}}},
	}
}

// MigrationResult reports the per-module outcome of MigrateSchema.
type MigrationResult struct {
	Applied []string
	Failed  []string
	errs    *multierror.Error
}

// Err returns the accumulated migration errors, or nil if all modules
// applied cleanly.
func (r *MigrationResult) Err() error {
	if r == nil {
		return nil
	}
	return r.errs.ErrorOrNil()
}

// Store performs schema-level DDL against the shared database. Every
// identifier is allow-list validated and then quoted before it reaches a
// statement. Operations that change search_path do so on a dedicated
// connection that is reset and released before returning, so the pool's
// sessions always keep the shared search_path.
type Store struct {
	db           *gorm.DB
	sharedSchema string
	locks        *nameLocks
	log          *zap.Logger
}

// NewStore creates a schema store over the shared database handle.
func NewStore(db *gorm.DB, sharedSchema string, log *zap.Logger) *Store {
	return &Store{
		db:           db,
		sharedSchema: sharedSchema,
		locks:        newNameLocks(),
		log:          log,
	}
}

// CreateSchema creates the schema if it does not already exist. Re-creating
// an existing schema is a no-op success.
func (s *Store) CreateSchema(ctx context.Context, name string) error {
	if err := ValidateSchemaName(name); err != nil {
		return err
	}
	lock := s.locks.get(name)
	lock.Lock()
	defer lock.Unlock()
	defer prometheus.TrackSchemaOperation("create")(time.Now())

	stmt := fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pq.QuoteIdentifier(name))
	if err := s.db.WithContext(ctx).Exec(stmt).Error; err != nil {
		s.log.Error("Failed to create schema", zap.String("schema", name), zap.Error(err))
		return fmt.Errorf("create schema %s: %w", name, err)
	}
	s.log.Info("Created schema", zap.String("schema", name))
	return nil
}

// DropSchema drops the schema and everything in it. Irreversible.
func (s *Store) DropSchema(ctx context.Context, name string) error {
	if err := ValidateSchemaName(name); err != nil {
		return err
	}
	lock := s.locks.get(name)
	lock.Lock()
	defer lock.Unlock()
	defer prometheus.TrackSchemaOperation("drop")(time.Now())

	stmt := fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", pq.QuoteIdentifier(name))
	if err := s.db.WithContext(ctx).Exec(stmt).Error; err != nil {
		s.log.Error("Failed to drop schema", zap.String("schema", name), zap.Error(err))
		return fmt.Errorf("drop schema %s: %w", name, err)
	}
	s.log.Info("Dropped schema", zap.String("schema", name))
	return nil
}

// SchemaExists checks the catalog for the schema. The physical catalog is
// the source of truth; existence is never cached.
func (s *Store) SchemaExists(ctx context.Context, name string) (bool, error) {
	if err := ValidateSchemaName(name); err != nil {
		return false, err
	}
	var exists bool
	err := s.db.WithContext(ctx).Raw(
		"SELECT EXISTS(SELECT 1 FROM information_schema.schemata WHERE schema_name = ?)",
		name,
	).Scan(&exists).Error
	if err != nil {
		return false, fmt.Errorf("check schema %s: %w", name, err)
	}
	return exists, nil
}

// ListSchemas returns all schema names with the given prefix in order.
func (s *Store) ListSchemas(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).Raw(
		"SELECT schema_name FROM information_schema.schemata WHERE schema_name LIKE ? ORDER BY schema_name",
		prefix+"%",
	).Scan(&names).Error
	if err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}
	return names, nil
}

// MigrateSchema applies each module's migrations inside the target schema.
// Modules are attempted independently: a failing module is recorded and the
// rest still run, since DDL applied mid-batch cannot be reliably rolled
// back. The work happens on a dedicated connection whose search_path is
// reset before the connection returns to the pool, on every path.
func (s *Store) MigrateSchema(ctx context.Context, name string, modules []Module) (*MigrationResult, error) {
	if err := ValidateSchemaName(name); err != nil {
		return nil, err
	}
	lock := s.locks.get(name)
	lock.Lock()
	defer lock.Unlock()
	defer prometheus.TrackSchemaOperation("migrate")(time.Now())

	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, fmt.Errorf("get connection pool: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer func() {
		// Restore the shared search_path before the connection goes back to
		// the pool, regardless of migration outcome.
		reset := fmt.Sprintf("SET search_path TO %s", pq.QuoteIdentifier(s.sharedSchema))
		if _, rerr := conn.ExecContext(context.WithoutCancel(ctx), reset); rerr != nil {
			s.log.Error("Failed to reset search_path", zap.String("schema", name), zap.Error(rerr))
		}
		conn.Close()
	}()

	setPath := fmt.Sprintf("SET search_path TO %s, %s",
		pq.QuoteIdentifier(name), pq.QuoteIdentifier(s.sharedSchema))
	if _, err := conn.ExecContext(ctx, setPath); err != nil {
		return nil, fmt.Errorf("set search_path to %s: %w", name, err)
	}

	// gorm session pinned to the dedicated connection, so AutoMigrate sees
	// the tenant schema as current.
	scoped, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 conn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open scoped session: %w", err)
	}

	result := &MigrationResult{}
	for _, module := range modules {
		if err := scoped.WithContext(ctx).AutoMigrate(module.Models...); err != nil {
			s.log.Error("Module migration failed",
				zap.String("schema", name),
				zap.String("module", module.Name),
				zap.Error(err))
			result.Failed = append(result.Failed, module.Name)
			result.errs = multierror.Append(result.errs, fmt.Errorf("module %s: %w", module.Name, err))
			continue
		}
		result.Applied = append(result.Applied, module.Name)
	}

	s.log.Info("Schema migration finished",
		zap.String("schema", name),
		zap.Strings("applied", result.Applied),
		zap.Strings("failed", result.Failed))
	return result, result.Err()
}
