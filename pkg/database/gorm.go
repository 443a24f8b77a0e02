package database

import (
	"errors"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type options struct {
	logLevel logger.LogLevel
	pool     PoolConfig
}

type Option func(*options)

// WithLogLevel sets how chatty the SQL logger is. The default is logger.Warn.
func WithLogLevel(level logger.LogLevel) Option {
	return func(o *options) { o.logLevel = level }
}

func WithPool(pool PoolConfig) Option {
	return func(o *options) { o.pool = pool }
}

func newLogger(level logger.LogLevel) logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  true,
		},
	)
}

func configureConnectionPool(db *gorm.DB, pool PoolConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)

	return nil
}

// NewGormDBFromDSN opens a postgres connection. Driver errors are translated
// so duplicate keys surface as gorm.ErrDuplicatedKey.
func NewGormDBFromDSN(dsn string, opts ...Option) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("database: empty connection string")
	}

	o := options{
		logLevel: logger.Warn,
		pool: PoolConfig{
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
	}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         newLogger(o.logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := configureConnectionPool(db, o.pool); err != nil {
		return nil, err
	}

	return db, nil
}
