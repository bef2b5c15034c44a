package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"wallet-service/config"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_InvalidDSN(t *testing.T) {
	cfg := config.DatabaseConfig{Host: "localhost", Port: 5432, User: "u", DBName: "db", SSLMode: "not-a-mode"}

	_, err := Connect(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestConnect_UnreachableRetriesThenFails(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Port 1 is reserved; nothing listens there.
	cfg := config.DatabaseConfig{
		Host: "127.0.0.1", Port: 1, User: "u", Password: "p", DBName: "db", SSLMode: "disable",
		MaxConns: 2, ConnectAttempts: 2, ConnectBackoff: 10 * time.Millisecond,
	}

	_, err := Connect(ctx, cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestConnect_CancelledWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	cfg := config.DatabaseConfig{
		Host: "127.0.0.1", Port: 1, User: "u", Password: "p", DBName: "db", SSLMode: "disable",
		MaxConns: 2, ConnectAttempts: 100, ConnectBackoff: time.Minute,
	}

	start := time.Now()
	_, err := Connect(ctx, cfg, zerolog.Nop())
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestHealthCheck(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	hc := NewHealthCheck(mock)
	mock.ExpectExec(regexp.QuoteMeta(schemaProbe)).WillReturnResult(pgxmock.NewResult("SELECT", 0))

	assert.Equal(t, "postgres", hc.Name())
	assert.NoError(t, hc.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthCheck_MissingSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta(schemaProbe)).WillReturnError(assert.AnError)

	err = NewHealthCheck(mock).Ping(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "ledger schema")
}

func TestTransactor_Begin(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	tx, err := NewTransactor(mock).Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactor_BeginError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin().WillReturnError(assert.AnError)

	tx, err := NewTransactor(mock).Begin(context.Background())
	assert.Nil(t, tx)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "begin transaction")
}
