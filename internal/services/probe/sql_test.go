package probe

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/fgeck/dbavailwait/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresTransports_Accepts(t *testing.T) {
	for _, transport := range []Transport{NewPgxTransport(), NewPQTransport()} {
		t.Run(transport.Name(), func(t *testing.T) {
			assert.True(t, transport.Accepts("postgres://app:secret@db:5432/app"))
			assert.True(t, transport.Accepts("postgresql://db/app?sslmode=disable"))
			assert.True(t, transport.Accepts("host=db port=5432 dbname=app"))
			assert.False(t, transport.Accepts("mysql://db/app"))
			assert.False(t, transport.Accepts("oracle://localhost:1521/XE"))
			assert.False(t, transport.Accepts(""))
		})
	}
}

func TestPostgresTransports_InvalidEndpointIsUnsuitable(t *testing.T) {
	for _, transport := range []Transport{NewPgxTransport(), NewPQTransport()} {
		t.Run(transport.Name(), func(t *testing.T) {
			err := transport.Ping(context.Background(), "postgres://db:notaport/app", models.Credentials{})

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNoSuitableTransport)
		})
	}
}

func TestPostgresTransports_ConnectionRefusedIsRetryable(t *testing.T) {
	endpoint := "postgres://app:secret@" + closedAddr(t) + "/app?sslmode=disable&connect_timeout=2"

	for _, transport := range []Transport{NewPgxTransport(), NewPQTransport()} {
		t.Run(transport.Name(), func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			err := transport.Ping(ctx, endpoint, models.Credentials{})

			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrNoSuitableTransport)

			result := New(testLogger(), transport).Probe(ctx, endpoint, models.Credentials{}, true)
			assert.Equal(t, models.ProbeRetryableFailure, result.Kind)
		})
	}
}

func TestPQDSN(t *testing.T) {
	dsn, err := pqDSN("host=db dbname=app", models.Credentials{})
	require.NoError(t, err)
	assert.Equal(t, "host=db dbname=app", dsn)

	dsn, err = pqDSN("host=db dbname=app", models.Credentials{Username: "app", Password: `it's a \ secret`})
	require.NoError(t, err)
	assert.Equal(t, `host=db dbname=app user='app' password='it\'s a \\ secret'`, dsn)

	dsn, err = pqDSN("postgres://db:5432/app", models.Credentials{Username: "app", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "postgres://app:secret@db:5432/app", dsn)
}

func TestMySQLTransport_Accepts(t *testing.T) {
	transport := NewMySQLTransport()

	assert.True(t, transport.Accepts("mysql://app:secret@db:3306/app"))
	assert.True(t, transport.Accepts("app:secret@tcp(db:3306)/app"))
	assert.True(t, transport.Accepts("app@unix(/var/run/mysqld/mysqld.sock)/app"))
	assert.False(t, transport.Accepts("postgres://db/app"))
	assert.False(t, transport.Accepts("host=db user=app"))
}

func TestMySQLConfig_FromURL(t *testing.T) {
	cfg, err := mysqlConfig("mysql://app:secret@db/app?parseTime=true")

	require.NoError(t, err)
	assert.Equal(t, "app", cfg.User)
	assert.Equal(t, "secret", cfg.Passwd)
	assert.Equal(t, "tcp", cfg.Net)
	assert.Equal(t, "db:3306", cfg.Addr)
	assert.Equal(t, "app", cfg.DBName)
	assert.True(t, cfg.ParseTime)
}

func TestMySQLConfig_FromDSN(t *testing.T) {
	cfg, err := mysqlConfig("root@tcp(127.0.0.1:3307)/shop")

	require.NoError(t, err)
	assert.Equal(t, "root", cfg.User)
	assert.Equal(t, "127.0.0.1:3307", cfg.Addr)
	assert.Equal(t, "shop", cfg.DBName)
}

func TestMySQLConfig_MissingHost(t *testing.T) {
	_, err := mysqlConfig("mysql:///app")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing host")
}

func TestMySQLTransport_ConnectionRefusedIsRetryable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := NewMySQLTransport().Ping(ctx, "mysql://"+closedAddr(t)+"/app", models.Credentials{Username: "app"})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSuitableTransport)
}

func TestSQLiteTransport_Accepts(t *testing.T) {
	transport := NewSQLiteTransport()

	assert.True(t, transport.Accepts("file:/var/lib/app/app.db"))
	assert.True(t, transport.Accepts("sqlite:///var/lib/app/app.db"))
	assert.True(t, transport.Accepts("/var/lib/app/state"))
	assert.True(t, transport.Accepts("app.sqlite3"))
	assert.False(t, transport.Accepts("redis://db:6379"))
	assert.False(t, transport.Accepts("state"))
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file:/tmp/app.db?mode=ro", sqliteDSN("/tmp/app.db"))
	assert.Equal(t, "file:/tmp/app.db?mode=ro", sqliteDSN("sqlite:///tmp/app.db"))
	assert.Equal(t, "file:app.db?cache=shared&mode=ro", sqliteDSN("file:app.db?cache=shared"))
	assert.Equal(t, "file:app.db?mode=rw", sqliteDSN("file:app.db?mode=rw"))
}

func TestSQLiteTransport_Ping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE jobs (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	err = NewSQLiteTransport().Ping(context.Background(), path, models.Credentials{})

	assert.NoError(t, err)
}

func TestSQLiteTransport_MissingFileIsRetryable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-yet.db")

	result := New(testLogger(), NewSQLiteTransport()).
		Probe(context.Background(), path, models.Credentials{}, false)

	assert.Equal(t, models.ProbeRetryableFailure, result.Kind)
	assert.NoFileExists(t, path)
}
