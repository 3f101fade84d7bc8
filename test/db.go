package test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/onboardkit/harness/internal/db"
)

// NewFileBasedTestDB creates a migrated file-based SQLite database for testing.
// It returns the database connection and the path to the temporary directory.
func NewFileBasedTestDB() (*gorm.DB, string, error) {
	tmpDir, err := os.MkdirTemp("", "onboarding_test")
	if err != nil {
		return nil, "", fmt.Errorf("failed to create temporary directory: %w", err)
	}
	dbPath := filepath.Join(tmpDir, "onboarding_test.db")
	conn, err := db.Open(sqlite.Open(dbPath), db.Options{LogLevel: logger.Silent})
	if err != nil {
		// Try to clean up the temporary directory, but don't fail if cleanup fails
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			fmt.Printf("Warning: failed to remove temporary directory after database error: %v\n", rmErr)
		}
		return nil, "", err
	}
	return conn, tmpDir, nil
}

// CleanupTestDB closes the database connection and removes the temporary directory.
func CleanupTestDB(conn *gorm.DB, tmpDir string) {
	sqlDB, err := conn.DB()
	if err == nil && sqlDB != nil {
		if closeErr := sqlDB.Close(); closeErr != nil {
			fmt.Printf("Error closing database connection: %v\n", closeErr)
		}
	}
	if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
		fmt.Printf("Error removing temporary directory: %v\n", rmErr)
	}
}

// NewSeedDB opens a migrated SQLite database that is closed and removed when the test ends
func NewSeedDB(t testing.TB) *gorm.DB {
	t.Helper()
	conn, tmpDir, err := NewFileBasedTestDB()
	if err != nil {
		t.Fatalf("failed to create seed database: %v", err)
	}
	t.Cleanup(func() { CleanupTestDB(conn, tmpDir) })
	return conn
}
