package tenant

import (
	"context"
	"database/sql"
	"fmt"

	"tenant-service/internal/model"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SchemaChecker verifies physical schema existence before a bind.
type SchemaChecker interface {
	SchemaExists(ctx context.Context, name string) (bool, error)
}

// Binding is one request's hold on a tenant schema: a dedicated connection
// with search_path set to the tenant schema, wrapped in a gorm session. The
// binding is request-scoped; it must be released on every exit path.
type Binding struct {
	Tenant *model.Tenant
	DB     *gorm.DB

	conn         *sql.Conn
	sharedSchema string
	log          *zap.Logger
	released     bool
}

// Release restores the shared search_path and returns the connection to the
// pool. Safe to call more than once and on bindings without a live
// connection (test doubles).
func (b *Binding) Release(ctx context.Context) {
	if b == nil || b.released {
		return
	}
	b.released = true
	if b.conn == nil {
		return
	}
	// The reset must run even when the request context is already dead.
	reset := fmt.Sprintf("SET search_path TO %s", pq.QuoteIdentifier(b.sharedSchema))
	if _, err := b.conn.ExecContext(context.WithoutCancel(ctx), reset); err != nil {
		b.log.Error("Failed to restore shared search_path",
			zap.String("schema", b.Tenant.SchemaName), zap.Error(err))
	}
	if err := b.conn.Close(); err != nil {
		b.log.Error("Failed to release bound connection",
			zap.String("schema", b.Tenant.SchemaName), zap.Error(err))
	}
}

// Released reports whether the binding has been released.
func (b *Binding) Released() bool {
	return b == nil || b.released
}

// Binder binds requests to tenant schemas. Each bind claims its own
// connection from the pool and sets search_path on that connection only, so
// concurrently handled requests can never observe each other's binding.
type Binder struct {
	db           *gorm.DB
	schemas      SchemaChecker
	sharedSchema string
	log          *zap.Logger
}

// NewBinder creates a binder over the shared database handle.
func NewBinder(db *gorm.DB, schemas SchemaChecker, sharedSchema string, log *zap.Logger) *Binder {
	return &Binder{db: db, schemas: schemas, sharedSchema: sharedSchema, log: log}
}

// Bind verifies the tenant's schema exists and pins a connection to it. A
// missing schema fails with ErrSchemaMissing; the binder never falls back to
// the shared schema while claiming to be bound to the tenant.
func (b *Binder) Bind(ctx context.Context, t *model.Tenant) (*Binding, error) {
	exists, err := b.schemas.SchemaExists(ctx, t.SchemaName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrSchemaMissing, t.SchemaName)
	}

	sqlDB, err := b.db.DB()
	if err != nil {
		return nil, fmt.Errorf("get connection pool: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	setPath := fmt.Sprintf("SET search_path TO %s, %s",
		pq.QuoteIdentifier(t.SchemaName), pq.QuoteIdentifier(b.sharedSchema))
	if _, err := conn.ExecContext(ctx, setPath); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set search_path to %s: %w", t.SchemaName, err)
	}

	scoped, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 conn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open scoped session: %w", err)
	}

	return &Binding{
		Tenant:       t,
		DB:           scoped,
		conn:         conn,
		sharedSchema: b.sharedSchema,
		log:          b.log,
	}, nil
}

// CreateDefaultSettings writes the tenant's default settings row inside its
// own schema through a short-lived binding.
func (b *Binder) CreateDefaultSettings(ctx context.Context, t *model.Tenant) error {
	binding, err := b.Bind(ctx, t)
	if err != nil {
		return err
	}
	defer binding.Release(ctx)

	settings := model.NewDefaultSettings(t.ID)
	if err := binding.DB.WithContext(ctx).Create(settings).Error; err != nil {
		return fmt.Errorf("create default settings for %s: %w", t.Slug, err)
	}
	return nil
}
