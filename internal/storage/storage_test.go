package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openAdapters returns every backend that can run without external services.
func openAdapters(t *testing.T) map[string]Adapter {
	t.Helper()
	ctx := context.Background()

	b, err := OpenBadger(filepath.Join(t.TempDir(), "badger"), nil)
	require.NoError(t, err)

	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "kv.db"), nil)
	require.NoError(t, err)

	f, err := OpenFile(filepath.Join(t.TempDir(), "files"))
	require.NoError(t, err)

	r, err := OpenRedis(ctx, "redis://"+miniredis.RunT(t).Addr()+"/0")
	require.NoError(t, err)

	adapters := map[string]Adapter{
		"memory": NewMemory(),
		"badger": b,
		"sqlite": s,
		"file":   f,
		"redis":  r,
	}

	// A real server catches protocol differences miniredis hides.
	if url := os.Getenv("GAMESHELF_TEST_REDIS_URL"); url != "" {
		live, err := OpenRedis(ctx, url)
		require.NoError(t, err)
		adapters["redis-live"] = Scope(live, "test-"+t.Name())
	}

	t.Cleanup(func() {
		for _, a := range adapters {
			a.Close()
		}
	})
	return adapters
}

func TestAdapter_GetMissingKey(t *testing.T) {
	for name, a := range openAdapters(t) {
		t.Run(name, func(t *testing.T) {
			_, err := a.Get(context.Background(), "absent")
			assert.ErrorIs(t, err, ErrKeyNotFound)
		})
	}
}

func TestAdapter_SetOverwrites(t *testing.T) {
	ctx := context.Background()

	for name, a := range openAdapters(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, a.Set(ctx, "gameCollection", []byte(`[{"id":1}]`)))
			require.NoError(t, a.Set(ctx, "gameCollection", []byte(`[]`)))

			got, err := a.Get(ctx, "gameCollection")
			require.NoError(t, err)
			assert.Equal(t, []byte(`[]`), got)
		})
	}
}

func TestAdapter_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()

	for name, a := range openAdapters(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, a.Set(ctx, "a", []byte("1")))
			require.NoError(t, a.Set(ctx, "b", []byte("2")))

			got, err := a.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, "1", string(got))
		})
	}
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	value := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", value))
	value[0] = 'x'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[1] = 'y'
	again, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestMemory_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewMemory().Set(ctx, "k", []byte("v"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScope_PrefixesKeys(t *testing.T) {
	ctx := context.Background()
	base := NewMemory()

	alice := Scope(base, "alice")
	bob := Scope(base, "bob")

	require.NoError(t, alice.Set(ctx, "gameCollection", []byte("A")))
	require.NoError(t, bob.Set(ctx, "gameCollection", []byte("B")))

	raw, err := base.Get(ctx, "alice:gameCollection")
	require.NoError(t, err)
	assert.Equal(t, "A", string(raw))

	got, err := bob.Get(ctx, "gameCollection")
	require.NoError(t, err)
	assert.Equal(t, "B", string(got))

	_, err = base.Get(ctx, "gameCollection")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	assert.Equal(t, "alice:gameCollection", ScopedKey(alice, "gameCollection"))
	assert.Same(t, base, Base(alice))
}

func TestScope_EmptyNamespace(t *testing.T) {
	base := NewMemory()
	assert.Same(t, base, Scope(base, ""))
	assert.Equal(t, "k", ScopedKey(base, "k"))
}

func TestFile_AtomicWriteLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	f, err := OpenFile(t.TempDir())
	require.NoError(t, err)

	for range 5 {
		require.NoError(t, f.Set(ctx, "gameCollection", []byte(`[]`)))
	}

	entries, err := os.ReadDir(f.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(f.Path("gameCollection")), entries[0].Name())
}

func TestFile_PathEscapesKey(t *testing.T) {
	f, err := OpenFile(t.TempDir())
	require.NoError(t, err)

	p := f.Path("ns/../gameCollection")
	assert.Equal(t, f.Dir(), filepath.Dir(p))
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	s, err := OpenSQLite(ctx, path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "gameCollection", []byte(`[{"id":5}]`)))
	require.NoError(t, s.Close())

	s2, err := OpenSQLite(ctx, path, nil)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Get(ctx, "gameCollection")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":5}]`, string(got))
}

func TestBadger_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	b, err := OpenBadger(dir, nil)
	require.NoError(t, err)
	require.NoError(t, b.Set(ctx, "gameCollection", []byte(`[{"id":7}]`)))
	require.NoError(t, b.Close())

	b2, err := OpenBadger(dir, nil)
	require.NoError(t, err)
	defer b2.Close()

	got, err := b2.Get(ctx, "gameCollection")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":7}]`, string(got))
}

func TestRedis_StoresPlainStrings(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	r, err := OpenRedis(ctx, "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Get(ctx, "gameCollection")
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, r.Set(ctx, "gameCollection", []byte(`[{"id":1}]`)))
	require.NoError(t, r.Set(ctx, "gameCollection", []byte(`[{"id":2}]`)))

	raw, err := mr.Get("gameCollection")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":2}]`, raw)
	assert.Zero(t, mr.TTL("gameCollection"), "values must not expire")

	// Values written by another client are read back unchanged.
	require.NoError(t, mr.Set("gameCollection", `[]`))
	got, err := r.Get(ctx, "gameCollection")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), got)
}

func TestRedis_ServerErrorsAreNotMissingKeys(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	r, err := OpenRedis(ctx, "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer r.Close()

	mr.SetError("ERR backend unavailable")
	_, err = r.Get(ctx, "gameCollection")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrKeyNotFound)
	assert.Error(t, r.Set(ctx, "gameCollection", []byte(`[]`)))
}

func TestOpenRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := OpenRedis(context.Background(), "redis://"+addr+"/0")
	assert.ErrorContains(t, err, "ping redis")
}

func TestOpenRedis_BadURL(t *testing.T) {
	_, err := OpenRedis(context.Background(), "http://not-redis")
	assert.ErrorContains(t, err, "parse redis url")
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Options{Backend: "floppy"}, nil)
	assert.Error(t, err)
}

func TestOpen_MemoryWithNamespace(t *testing.T) {
	a, err := Open(context.Background(), Options{Backend: BackendMemory, Namespace: "ns"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ns:gameCollection", ScopedKey(a, "gameCollection"))
}

func TestBackend_Valid(t *testing.T) {
	for _, b := range Backends() {
		assert.True(t, b.Valid(), b)
	}
	assert.False(t, Backend("postgres").Valid())
}
