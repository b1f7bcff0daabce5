package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jackc/pgx/v5/tracelog"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/flashnet/internal/infrastructure/config"
)

const pingTimeout = 5 * time.Second

// Open connects to the configured database and returns an ent SQL driver
// ready for query building, plus its cleanup.
func Open(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (dialect.Driver, func(), error) {
	driver, err := cfg.DatabaseDriver()
	if err != nil {
		return nil, nil, fmt.Errorf("determine database driver: %w", err)
	}
	dsn, err := cfg.DatabaseURL()
	if err != nil {
		return nil, nil, fmt.Errorf("determine database dsn: %w", err)
	}

	var (
		db   *sql.DB
		name string
	)
	switch driver {
	case "postgres":
		db, err = sql.Open("postgres", dsn)
		name = dialect.Postgres
	case "pgx":
		db, err = openPgx(dsn, cfg.Database.LogSQL, logger)
		name = dialect.Postgres
	case "mysql":
		db, err = openMySQL(dsn)
		name = dialect.MySQL
	case "sqlite3":
		db, err = sql.Open("sqlite3", dsn)
		name = dialect.SQLite
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open %s db: %w", driver, err)
	}

	if name == dialect.SQLite {
		// one writer; also keeps in-memory databases alive across calls
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else if cfg.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping %s db: %w", driver, err)
	}
	if name == dialect.SQLite {
		if _, err := db.ExecContext(pingCtx, "PRAGMA foreign_keys = ON;"); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	}

	var drv dialect.Driver = entsql.OpenDB(name, db)
	// pgx traces on its own
	if cfg.Database.LogSQL && driver != "pgx" {
		sqlLog := logger.WithField("component", "sql")
		drv = dialect.Debug(drv, func(v ...any) { sqlLog.Debug(v...) })
	}

	return drv, func() { _ = drv.Close() }, nil
}

func openPgx(dsn string, logSQL bool, logger logrus.FieldLogger) (*sql.DB, error) {
	connCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}
	if logSQL {
		sqlLog := logger.WithField("component", "pgx")
		connCfg.Tracer = &tracelog.TraceLog{
			Logger: tracelog.LoggerFunc(func(_ context.Context, lvl tracelog.LogLevel, msg string, data map[string]any) {
				entry := sqlLog.WithFields(logrus.Fields(data))
				if lvl <= tracelog.LogLevelError {
					entry.Error(msg)
					return
				}
				entry.Debug(msg)
			}),
			LogLevel: tracelog.LogLevelTrace,
		}
	}
	return stdlib.OpenDB(*connCfg), nil
}

func openMySQL(dsn string) (*sql.DB, error) {
	mc, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	mc.ParseTime = true
	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	return sql.OpenDB(connector), nil
}
