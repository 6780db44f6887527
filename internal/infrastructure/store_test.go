package infrastructure

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sngm3741/survey-manager-api/internal/config"
)

func TestOpen_Memory(t *testing.T) {
	store, closeStore, err := Open(context.Background(), config.Config{StoreDriver: config.DriverMemory})
	require.NoError(t, err)
	require.Nil(t, closeStore)
	require.NoError(t, store.Ping(context.Background()))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, _, err := Open(context.Background(), config.Config{StoreDriver: "cassandra"})
	require.Error(t, err)
}

func TestOpen_MySQLBadDSN(t *testing.T) {
	_, _, err := Open(context.Background(), config.Config{StoreDriver: config.DriverMySQL, DatabaseURL: "not a dsn"})
	require.Error(t, err)
}
