package connector

import (
	"context"
	"fmt"
	"os"
	"strconv"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/vitebski/mysql-schema-sync/pkg/models"
)

// DatabaseConnector handles database connection and query execution
type DatabaseConnector struct {
	Host     string
	User     string
	Password string
	Database string
	Port     string
	Charset  string
	DB       *sqlx.DB
	Logger   *logrus.Logger
}

// NewDatabaseConnector creates a new database connector. Empty
// parameters fall back to MYSQL_* environment variables.
func NewDatabaseConnector(host, user, password, database, port, charset string, logger *logrus.Logger) *DatabaseConnector {
	if host == "" {
		host = getEnvOrDefault("MYSQL_HOST", "localhost")
	}
	if user == "" {
		user = getEnvOrDefault("MYSQL_USER", "root")
	}
	if password == "" {
		password = getEnvOrDefault("MYSQL_PASSWORD", "")
	}
	if database == "" {
		database = getEnvOrDefault("MYSQL_DATABASE", "")
	}
	if port == "" {
		port = getEnvOrDefault("MYSQL_PORT", "3306")
	}
	if charset == "" {
		charset = getEnvOrDefault("MYSQL_CHARSET", "utf8mb4")
	}

	return &DatabaseConnector{
		Host:     host,
		User:     user,
		Password: password,
		Database: database,
		Port:     port,
		Charset:  charset,
		Logger:   logger,
	}
}

// DSN returns the connection string for the configured database
func (dc *DatabaseConnector) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=%s",
		dc.User, dc.Password, dc.Host, dc.Port, dc.Database, dc.Charset)
}

// Connect establishes a connection to the MySQL database
func (dc *DatabaseConnector) Connect(ctx context.Context) error {
	if dc.Database == "" {
		return models.NewError(models.ConfigError,
			"database name must be provided either as an argument or as MYSQL_DATABASE environment variable")
	}

	db, err := sqlx.Open("mysql", dc.DSN())
	if err != nil {
		dc.Logger.Errorf("Error connecting to MySQL database: %v", err)
		return models.WrapError(models.ConnectError, err, "open %s", dc.Database)
	}

	if err := db.PingContext(ctx); err != nil {
		dc.Logger.Errorf("Error pinging MySQL database: %v", err)
		return models.WrapError(models.ConnectError, err, "ping %s", dc.Database)
	}

	dc.DB = db
	dc.Logger.Infof("Connected to MySQL database: %s", dc.Database)
	return nil
}

// Disconnect closes the database connection
func (dc *DatabaseConnector) Disconnect() {
	if dc.DB != nil {
		if err := dc.DB.Close(); err != nil {
			dc.Logger.Errorf("Error closing database connection: %v", err)
		} else {
			dc.Logger.Info("MySQL connection closed")
		}
	}
}

// Select runs a query and struct-scans all rows into dest
func (dc *DatabaseConnector) Select(ctx context.Context, dest interface{}, query string, params ...interface{}) error {
	return dc.DB.SelectContext(ctx, dest, query, params...)
}

// ExecuteStatement executes a SQL statement and returns the number of
// affected rows
func (dc *DatabaseConnector) ExecuteStatement(ctx context.Context, query string, params ...interface{}) (int64, error) {
	result, err := dc.DB.ExecContext(ctx, query, params...)
	if err != nil {
		dc.Logger.Errorf("Error executing statement: %v", err)
		return 0, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		// DDL statements report no row count
		return 0, nil
	}
	return affected, nil
}

// getEnvOrDefault gets an environment variable or returns a default value
func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvInt gets an integer value from an environment variable
func GetEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
