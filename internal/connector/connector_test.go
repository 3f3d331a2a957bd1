package connector

import (
	"os"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel) // Suppress log output during tests
	return logger
}

func TestNewDatabaseConnector(t *testing.T) {
	// Set environment variables for testing
	os.Setenv("MYSQL_HOST", "test-host")
	os.Setenv("MYSQL_USER", "test-user")
	os.Setenv("MYSQL_PASSWORD", "test-password")
	os.Setenv("MYSQL_DATABASE", "test-database")
	os.Setenv("MYSQL_PORT", "3307")
	os.Setenv("MYSQL_CHARSET", "utf8")
	defer func() {
		for _, v := range []string{"MYSQL_HOST", "MYSQL_USER", "MYSQL_PASSWORD", "MYSQL_DATABASE", "MYSQL_PORT", "MYSQL_CHARSET"} {
			os.Unsetenv(v)
		}
	}()

	db := NewDatabaseConnector("", "", "", "", "", "", testLogger())

	if db.Host != "test-host" {
		t.Errorf("Expected host to be 'test-host', got '%s'", db.Host)
	}
	if db.User != "test-user" {
		t.Errorf("Expected user to be 'test-user', got '%s'", db.User)
	}
	if db.Password != "test-password" {
		t.Errorf("Expected password to be 'test-password', got '%s'", db.Password)
	}
	if db.Database != "test-database" {
		t.Errorf("Expected database to be 'test-database', got '%s'", db.Database)
	}
	if db.Port != "3307" {
		t.Errorf("Expected port to be '3307', got '%s'", db.Port)
	}
	if db.Charset != "utf8" {
		t.Errorf("Expected charset to be 'utf8', got '%s'", db.Charset)
	}

	// Test with explicit parameters
	db = NewDatabaseConnector("explicit-host", "explicit-user", "explicit-password", "explicit-database", "3308", "utf8mb4", testLogger())

	if db.Host != "explicit-host" {
		t.Errorf("Expected host to be 'explicit-host', got '%s'", db.Host)
	}
	if db.Database != "explicit-database" {
		t.Errorf("Expected database to be 'explicit-database', got '%s'", db.Database)
	}
}

func TestDSN(t *testing.T) {
	db := NewDatabaseConnector("dbhost", "dbuser", "secret", "mydb", "3306", "utf8mb4", testLogger())
	dsn := db.DSN()

	if !strings.HasPrefix(dsn, "dbuser:secret@tcp(dbhost:3306)/mydb") {
		t.Errorf("unexpected DSN prefix: %s", dsn)
	}
	if !strings.Contains(dsn, "parseTime=true") {
		t.Error("expected parseTime=true in DSN")
	}
	if !strings.Contains(dsn, "charset=utf8mb4") {
		t.Error("expected charset in DSN")
	}
}
