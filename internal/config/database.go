package config

import "os"

const (
	databaseDSNEnv = "DATABASE_DSN"

	defaultDatabaseDSN = "host=localhost user=attendance password=attendance dbname=attendance port=5432 sslmode=disable"
)

type DatabaseConfig struct {
	DSN string
}

func LoadDatabaseConfig() *DatabaseConfig {
	dsn := os.Getenv(databaseDSNEnv)
	if dsn == "" {
		dsn = defaultDatabaseDSN
	}
	return &DatabaseConfig{DSN: dsn}
}

func (c *DatabaseConfig) Validate() error {
	if c == nil || c.DSN == "" {
		return ErrDatabaseDSNEmpty
	}
	return nil
}
