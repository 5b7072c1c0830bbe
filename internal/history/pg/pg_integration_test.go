//go:build integration_pg

package pg

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ManuGH/foodscan/internal/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "foodscan",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(2 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("postgres://postgres:postgres@%s:%s/foodscan?sslmode=disable", host, port.Port())
}

func TestStore_Integration(t *testing.T) {
	dsn := startPostgres(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	s, err := Open(ctx, Config{URL: dsn, MaxConns: 4}, nil)
	require.NoError(t, err)
	defer s.Close()

	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Upsert(ctx, history.Entry{Barcode: "111", Title: "a", LastSeen: t0}))
	require.NoError(t, s.Upsert(ctx, history.Entry{Barcode: "222", Title: "b", LastSeen: t0.Add(time.Minute)}))
	require.NoError(t, s.Upsert(ctx, history.Entry{Barcode: "111", Title: "a2", LastSeen: t0.Add(2 * time.Minute)}))

	list, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "111", list[0].Barcode)
	assert.Equal(t, "a2", list[0].Title)
	assert.Equal(t, 2, list[0].ScanCount)

	limited, err := s.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	require.NoError(t, s.Clear(ctx))
	list, err = s.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}
