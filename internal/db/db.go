package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/helpdesk/internal"
	ticketDatamodel "github.com/frahmantamala/helpdesk/internal/core/datamodel/ticket"
	userDatamodel "github.com/frahmantamala/helpdesk/internal/core/datamodel/user"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultPingTimeout = 5 * time.Second
)

// Handle owns the process-wide connection pool. Gorm and sqlx share the same
// *sql.DB, so closing the handle releases both.
type Handle struct {
	Gorm *gorm.DB
	SQL  *sqlx.DB
}

// Open connects to the configured database and verifies it with a ping.
func Open(ctx context.Context, cfg internal.DatabaseConfig, logger *slog.Logger) (*Handle, error) {
	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	}

	var (
		h   *Handle
		err error
	)
	switch cfg.Driver {
	case DriverPostgres, "":
		h, err = openPostgres(cfg, gormCfg)
	case DriverSQLite:
		h, err = openSQLite(cfg, gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := h.Ping(ctx, defaultPingTimeout); err != nil {
		_ = h.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if logger != nil {
		logger.Info("database connected", "driver", h.SQL.DriverName(), "max_open_conns", h.SQL.Stats().MaxOpenConnections)
	}
	return h, nil
}

func openPostgres(cfg internal.DatabaseConfig, gormCfg *gorm.Config) (*Handle, error) {
	sqlDB, err := sqlx.Open("pgx", cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB.DB}), gormCfg)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	return &Handle{Gorm: gormDB, SQL: sqlDB}, nil
}

func openSQLite(cfg internal.DatabaseConfig, gormCfg *gorm.Config) (*Handle, error) {
	gormDB, err := gorm.Open(sqlite.Open(cfg.Source), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sqlite pool: %w", err)
	}
	// sqlite serialises writers; a single connection also keeps :memory: databases alive
	sqlDB.SetMaxOpenConns(1)

	return &Handle{Gorm: gormDB, SQL: sqlx.NewDb(sqlDB, "sqlite3")}, nil
}

// OpenMemory returns a private in-memory sqlite database with the schema applied.
func OpenMemory(ctx context.Context) (*Handle, error) {
	h, err := Open(ctx, internal.DatabaseConfig{Driver: DriverSQLite, Source: ":memory:"}, nil)
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(h); err != nil {
		_ = h.Close()
		return nil, err
	}
	return h, nil
}

// AutoMigrate creates the tables from the gorm models. Postgres deployments use
// the goose migrations instead.
func AutoMigrate(h *Handle) error {
	return h.Gorm.AutoMigrate(&userDatamodel.User{}, &ticketDatamodel.Ticket{})
}

// Ping checks the database is reachable within timeout.
func (h *Handle) Ping(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := internal.WithTimeout(ctx, timeout)
	defer cancel()
	return h.SQL.PingContext(ctx)
}

// PoolStatus is a point-in-time view of the shared pool.
type PoolStatus struct {
	Driver          string        `json:"driver"`
	Reachable       bool          `json:"reachable"`
	OpenConnections int           `json:"open_connections"`
	InUse           int           `json:"in_use"`
	Idle            int           `json:"idle"`
	WaitCount       int64         `json:"wait_count"`
	PingDuration    time.Duration `json:"-"`
}

// Status pings the database and reports the pool counters. The ping error is
// returned separately so callers decide what to expose.
func (h *Handle) Status(ctx context.Context, timeout time.Duration) (PoolStatus, error) {
	start := time.Now()
	err := h.Ping(ctx, timeout)
	stats := h.SQL.Stats()
	return PoolStatus{
		Driver:          h.SQL.DriverName(),
		Reachable:       err == nil,
		OpenConnections: stats.OpenConnections,
		InUse:           stats.InUse,
		Idle:            stats.Idle,
		WaitCount:       stats.WaitCount,
		PingDuration:    time.Since(start),
	}, err
}

func (h *Handle) Close() error {
	if h == nil || h.SQL == nil {
		return nil
	}
	return h.SQL.Close()
}
