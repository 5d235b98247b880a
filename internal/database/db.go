package database

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ErrConnection is returned when a connection cannot be opened.
var ErrConnection = errors.New("database connection failed")

// Dialector builds a GORM dialector from a connection URL.
type Dialector func(dsn string) gorm.Dialector

// Provider opens one fresh connection per Acquire call. There is no pool and
// no retry; a connection lives as long as a single request.
type Provider struct {
	dsn       string
	dialector Dialector
	gormLog   gormlogger.Interface
	log       *zap.Logger
}

type Option func(*Provider)

// WithDialector replaces the Postgres dialector. Tests use it for SQLite.
func WithDialector(d Dialector) Option {
	return func(p *Provider) { p.dialector = d }
}

func WithGormLogger(l gormlogger.Interface) Option {
	return func(p *Provider) { p.gormLog = l }
}

func NewProvider(dsn string, log *zap.Logger, opts ...Option) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Provider{
		dsn:       dsn,
		dialector: postgres.Open,
		gormLog:   gormlogger.Discard,
		log:       log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Conn is a single-use database session. Close must be called on every path.
type Conn struct {
	DB *gorm.DB
}

// Acquire opens and pings a new connection bound to ctx.
func (p *Provider) Acquire(ctx context.Context) (*Conn, error) {
	db, err := gorm.Open(p.dialector(p.dsn), &gorm.Config{
		Logger:                 p.gormLog,
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	if err != nil {
		// gorm.Open hata verse de açılmış bir havuz dönebilir
		if db != nil {
			if sqlDB, dbErr := db.DB(); dbErr == nil {
				_ = sqlDB.Close()
			}
		}
		p.log.Error("veritabanına bağlanılamadı", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		p.log.Error("veritabanı ping başarısız", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}

	return &Conn{DB: db.WithContext(ctx)}, nil
}

// Close releases the underlying connection.
func (c *Conn) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
