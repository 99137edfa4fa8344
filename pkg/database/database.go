package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lexhire/lexhire/pkg/models"
)

// Client holds the database handle
type Client struct {
	DB *gorm.DB
}

// PoolConfig holds connection pool configuration
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultPoolConfig returns sensible defaults for connection pooling
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 10 * time.Minute,
	}
}

// NewClient opens a PostgreSQL connection, applies the default pool
// config and runs schema migration.
func NewClient(databaseURL string) (*Client, error) {
	return NewClientWithPool(databaseURL, DefaultPoolConfig())
}

// NewClientWithPool opens a PostgreSQL connection with an explicit
// pool configuration.
func NewClientWithPool(databaseURL string, pool PoolConfig) (*Client, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	client := &Client{DB: db}
	if err := client.Migrate(); err != nil {
		return nil, err
	}

	log.Println("✅ Database connected")
	return client, nil
}

// Migrate creates or updates the schema for all models.
func (c *Client) Migrate() error {
	err := c.DB.AutoMigrate(
		&models.User{},
		&models.PracticeArea{},
		&models.Location{},
		&models.LawFirm{},
		&models.JobListing{},
		&models.UserJobInteraction{},
		&models.JobAlertSubscription{},
		&models.JobAlertClick{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Ping verifies the database connection.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
