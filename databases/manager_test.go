package databases

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlens/sqlens/config"
	"github.com/sqlens/sqlens/registry"
	"github.com/sqlens/sqlens/types"
)

type fakeDB struct {
	engine string
	closed bool
}

func (f *fakeDB) Ping(ctx context.Context) error { return nil }
func (f *fakeDB) Engine() string                 { return f.engine }
func (f *fakeDB) Schemas(ctx context.Context) ([]string, error) {
	return []string{"public"}, nil
}
func (f *fakeDB) Tables(ctx context.Context, schema string) ([]string, error) {
	return nil, nil
}
func (f *fakeDB) DescribeTable(ctx context.Context, schema, table string) (*types.TableDescription, error) {
	return nil, nil
}
func (f *fakeDB) RowCount(ctx context.Context, schema, table string) (int64, error) {
	return 0, nil
}
func (f *fakeDB) Query(ctx context.Context, query string) (*types.QueryResult, error) {
	return nil, nil
}
func (f *fakeDB) Sample(ctx context.Context, schema, table string, limit int) (*types.SampleRows, error) {
	return nil, nil
}
func (f *fakeDB) Close() error {
	f.closed = true
	return nil
}

func testManager(t *testing.T, urls map[string]string) *Manager {
	t.Helper()
	dbs := make(map[string]config.DatabaseEntry, len(urls))
	for name, url := range urls {
		dbs[name] = config.DatabaseEntry{URL: url}
	}
	reg := registry.Build(config.Config{Databases: dbs}, nil, slog.New(slog.DiscardHandler))
	return NewManager(reg, slog.New(slog.DiscardHandler))
}

func TestResolveSingleDatabaseAutoDefault(t *testing.T) {
	t.Parallel()

	m := testManager(t, map[string]string{"main": "sqlite://main.db"})

	for _, requested := range []string{"", "main", "anything", "WRONG", "  "} {
		name, err := m.Resolve(requested)
		require.NoError(t, err, "requested %q", requested)
		assert.Equal(t, "main", name)
	}
}

func TestResolveNormalizesRequestedName(t *testing.T) {
	t.Parallel()

	m := testManager(t, map[string]string{
		"main":  "sqlite://main.db",
		"sales": "sqlite://sales.db",
	})

	for _, requested := range []string{"main", "MAIN", " Main ", "\tmAiN\n"} {
		name, err := m.Resolve(requested)
		require.NoError(t, err, "requested %q", requested)
		assert.Equal(t, "main", name)
	}
}

func TestResolveAmbiguous(t *testing.T) {
	t.Parallel()

	m := testManager(t, map[string]string{
		"sales": "sqlite://sales.db",
		"main":  "sqlite://main.db",
	})

	for _, requested := range []string{"", "   "} {
		_, err := m.Resolve(requested)
		require.Error(t, err)

		var ambiguous *AmbiguousDatabaseError
		require.ErrorAs(t, err, &ambiguous)
		assert.Equal(t, []string{"main", "sales"}, ambiguous.Available)
		assert.Equal(t, "Multiple databases configured. Pass `database`. Available: main, sales", err.Error())
	}
}

func TestResolveUnknown(t *testing.T) {
	t.Parallel()

	m := testManager(t, map[string]string{
		"sales": "sqlite://sales.db",
		"main":  "sqlite://main.db",
	})

	_, err := m.Resolve("doesnotexist")
	require.Error(t, err)

	var unknown *UnknownDatabaseError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "doesnotexist", unknown.Name)
	assert.Equal(t, []string{"main", "sales"}, unknown.Available)
	assert.Equal(t, "Unknown database 'doesnotexist'. Available: main, sales", err.Error())
}

func TestGetOpensOnceAndCaches(t *testing.T) {
	t.Parallel()

	m := testManager(t, map[string]string{"main": "sqlite://main.db"})

	var opens atomic.Int32
	m.open = func(ctx context.Context, target string) (Database, error) {
		opens.Add(1)
		assert.Equal(t, "sqlite://main.db", target)
		return &fakeDB{engine: EngineSQLite}, nil
	}

	name, first, err := m.Get(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "main", name)

	_, second, err := m.Get(context.Background(), "main")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), opens.Load())
}

func TestGetConcurrentFirstUseOpensOneHandle(t *testing.T) {
	t.Parallel()

	m := testManager(t, map[string]string{"main": "sqlite://main.db"})

	var opens atomic.Int32
	m.open = func(ctx context.Context, target string) (Database, error) {
		opens.Add(1)
		return &fakeDB{engine: EngineSQLite}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := m.Get(context.Background(), "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), opens.Load())
}

func TestGetDoesNotCacheFailedOpens(t *testing.T) {
	t.Parallel()

	m := testManager(t, map[string]string{"main": "sqlite://main.db"})

	connRefused := errors.New("connection refused")
	var attempts atomic.Int32
	m.open = func(ctx context.Context, target string) (Database, error) {
		if attempts.Add(1) == 1 {
			return nil, connRefused
		}
		return &fakeDB{engine: EngineSQLite}, nil
	}

	_, _, err := m.Get(context.Background(), "")
	require.Error(t, err)

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "main", connErr.Database)
	assert.ErrorIs(t, err, connRefused)

	_, db, err := m.Get(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, db)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestCloseShutsDownHandles(t *testing.T) {
	t.Parallel()

	m := testManager(t, map[string]string{
		"main":  "sqlite://main.db",
		"sales": "sqlite://sales.db",
	})

	handles := make(map[string]*fakeDB)
	m.open = func(ctx context.Context, target string) (Database, error) {
		db := &fakeDB{engine: EngineSQLite}
		handles[target] = db
		return db, nil
	}

	_, _, err := m.Get(context.Background(), "main")
	require.NoError(t, err)
	_, _, err = m.Get(context.Background(), "sales")
	require.NoError(t, err)

	require.NoError(t, m.Close())
	require.Len(t, handles, 2)
	for target, db := range handles {
		assert.True(t, db.closed, "handle for %s not closed", target)
	}
}
