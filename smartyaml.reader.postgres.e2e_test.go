//go:build integration

package smartyaml

import (
	"context"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgresContainer creates an ephemeral PostgreSQL container for testing.
func setupPostgresContainer(t *testing.T) (*PostgresReader, string, func()) {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15",
		postgres.WithDatabase("smartyaml_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	reader, err := NewPostgresReader(PostgresConfig{
		ConnectionString: connStr,
		AutoMigrate:      true,
		QueryTimeout:     30 * time.Second,
	})
	require.NoError(t, err, "failed to create postgres reader")

	cleanup := func() {
		if reader != nil {
			_ = reader.Close()
		}
		if container != nil {
			_ = container.Terminate(ctx)
		}
	}

	return reader, connStr, cleanup
}

func TestPostgres_E2E_Reader(t *testing.T) {
	reader, _, cleanup := setupPostgresContainer(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, reader.Put(ctx, "cfg/app.yaml", []byte("a: 1\n")))

	t.Run("Stat", func(t *testing.T) {
		info, err := reader.Stat(ctx, "/cfg/app.yaml")
		require.NoError(t, err)
		assert.Equal(t, int64(5), info.Size)
		assert.False(t, info.ModTime.IsZero())
	})

	t.Run("ReadFile", func(t *testing.T) {
		data, err := reader.ReadFile(ctx, "/cfg/../cfg/app.yaml")
		require.NoError(t, err)
		assert.Equal(t, "a: 1\n", string(data))
	})

	t.Run("Put replaces", func(t *testing.T) {
		require.NoError(t, reader.Put(ctx, "/cfg/app.yaml", []byte("a: 2\n")))
		data, err := reader.ReadFile(ctx, "/cfg/app.yaml")
		require.NoError(t, err)
		assert.Equal(t, "a: 2\n", string(data))
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := reader.ReadFile(ctx, "/cfg/none.yaml")
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("List and Delete", func(t *testing.T) {
		require.NoError(t, reader.Put(ctx, "/cfg/b.yaml", []byte("b: 1\n")))
		paths, err := reader.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"/cfg/app.yaml", "/cfg/b.yaml"}, paths)

		require.NoError(t, reader.Delete(ctx, "/cfg/b.yaml"))
		paths, err = reader.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"/cfg/app.yaml"}, paths)
	})

	t.Run("Empty path", func(t *testing.T) {
		assert.Error(t, reader.Put(ctx, "", []byte("x")))
	})

	t.Run("Migrations are idempotent", func(t *testing.T) {
		require.NoError(t, reader.RunMigrations(ctx))
	})
}

func TestPostgres_E2E_Engine(t *testing.T) {
	reader, connStr, cleanup := setupPostgresContainer(t)
	defer cleanup()
	ctx := context.Background()

	docs := map[string]string{
		"/cfg/app.yaml":       "__vars: {env: prod}\ndb: !import_yaml(db.yaml)\n  port: 5433\nurl: !expand \"{{env}}.example.com\"\n",
		"/cfg/db.yaml":        "host: pg\nport: 5432\n",
		"/templates/svc.yaml": "replicas: 1\n",
		"/cfg/svc.yaml":       "__template: svc\nreplicas: 2\n",
	}
	for path, content := range docs {
		require.NoError(t, reader.Put(ctx, path, []byte(content)))
	}

	engine := MustNew(WithReader(reader), WithBasePath("/"), WithTemplateRoot("/templates"))

	doc, err := engine.LoadFile(ctx, "/cfg/app.yaml")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"db":  map[string]any{"host": "pg", "port": 5433},
		"url": "prod.example.com",
	}, doc.Map())

	doc, err = engine.LoadFile(ctx, "/cfg/svc.yaml")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"replicas": 2}, doc.Map())

	_, err = engine.LoadFile(ctx, "/cfg/none.yaml")
	assert.ErrorIs(t, err, ErrFileNotFound)

	t.Run("driver registry", func(t *testing.T) {
		r, err := OpenReader(ReaderDriverPostgres, connStr)
		require.NoError(t, err)
		defer r.(*PostgresReader).Close()

		doc, err := MustNew(WithReader(r), WithBasePath("/")).LoadFile(ctx, "/cfg/db.yaml")
		require.NoError(t, err)
		assert.Equal(t, "pg", doc.Map()["host"])
	})

	t.Run("closed reader", func(t *testing.T) {
		r, err := OpenReader(ReaderDriverPostgres, connStr)
		require.NoError(t, err)
		require.NoError(t, r.(*PostgresReader).Close())

		_, err = r.ReadFile(ctx, "/cfg/db.yaml")
		assert.Error(t, err)
		assert.Error(t, r.(*PostgresReader).Close())
	})
}
