package database

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec("CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT NOT NULL UNIQUE)")
	require.NoError(t, err)
	return db
}

func countItems(t *testing.T, db *sql.DB) int {
	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM items").Scan(&count))
	return count
}

func TestWithTransaction_Commit(t *testing.T) {
	db := setupTestDB(t)

	err := WithTransaction(db, func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO items (name) VALUES (?)", "a")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countItems(t, db))
}

func TestWithTransaction_RollbackOnError(t *testing.T) {
	db := setupTestDB(t)

	err := WithTransaction(db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO items (name) VALUES (?)", "a"); err != nil {
			return err
		}
		return fmt.Errorf("forced failure")
	})
	require.Error(t, err)
	assert.Equal(t, 0, countItems(t, db))
}

func TestWithTransaction_RollbackOnPanic(t *testing.T) {
	db := setupTestDB(t)

	err := WithTransaction(db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO items (name) VALUES (?)", "a"); err != nil {
			return err
		}
		panic("boom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")
	assert.Equal(t, 0, countItems(t, db))
}

func TestIsUniqueViolation(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.Exec("INSERT INTO items (name) VALUES (?)", "a")
	require.NoError(t, err)

	_, err = db.Exec("INSERT INTO items (name) VALUES (?)", "a")
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(fmt.Errorf("some other error")))
}
