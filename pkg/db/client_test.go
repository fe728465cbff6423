package db

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/clipforge/quota-service/pkg/config"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	client, err := New(context.Background(), config.DBConfig{
		DSN:    "file::memory:?cache=shared",
		Driver: config.DriverSQLite,
	}, nil)
	require.NoError(t, err)

	require.NoError(t, client.DB().Exec(`
CREATE TABLE IF NOT EXISTS tx_probe (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  note TEXT NOT NULL
);`).Error)
	require.NoError(t, client.DB().Exec("DELETE FROM tx_probe").Error)
	return client
}

func countProbes(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, conn.Table("tx_probe").Count(&count).Error)
	return count
}

func TestWithTxCommits(t *testing.T) {
	client := newTestClient(t)

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return tx.Exec("INSERT INTO tx_probe (note) VALUES ('committed')").Error
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), countProbes(t, client.DB()))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	client := newTestClient(t)

	boom := errors.New("boom")
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		if insertErr := tx.Exec("INSERT INTO tx_probe (note) VALUES ('doomed')").Error; insertErr != nil {
			return insertErr
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int64(0), countProbes(t, client.DB()))
}

func TestNewRequiresDSN(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{}, nil)
	require.Error(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(errors.New(`duplicate key value violates unique constraint "accounts_pkey"`), ""))
	assert.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: accounts.id"), ""))
	assert.True(t, IsUniqueViolation(errors.New(`duplicate key value violates unique constraint "accounts_pkey"`), "accounts_pkey"))
	assert.False(t, IsUniqueViolation(errors.New("connection refused"), ""))
	assert.False(t, IsUniqueViolation(nil, ""))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(errors.New("dial tcp: connection refused")))
	assert.True(t, IsTransient(errors.New("read tcp: connection reset by peer")))
	assert.False(t, IsTransient(errors.New("syntax error at or near SELECT")))
	assert.False(t, IsTransient(nil))
}
