package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "snapshot.json")
	clock := newFakeClock()

	s := Open(path, WithClock(clock.Now))
	require.NoError(t, s.SetWithTTL("a", "alpha", time.Hour))
	require.NoError(t, s.SetWithTTL("b", 7, 0))
	require.NoError(t, s.SetWithTTL("gone", "x", time.Second))
	clock.Advance(2 * time.Second)
	require.NoError(t, s.Save())

	clock.Advance(10 * time.Minute)
	restored := Open(path, WithClock(clock.Now))
	assert.Equal(t, []string{"a", "b"}, restored.Keys())

	v, err := Lookup[string](restored, "a")
	require.NoError(t, err)
	assert.Equal(t, "alpha", v)

	exp, ok := restored.TTL("a")
	require.True(t, ok)
	// one hour from the set time, minus the two seconds before save and the
	// ten minutes of downtime
	assert.Equal(t, clock.Now().Add(time.Hour-2*time.Second-10*time.Minute), exp)

	exp, ok = restored.TTL("b")
	require.True(t, ok)
	assert.True(t, exp.IsZero())
}

func TestRestoreDropsEntriesExpiredDuringDowntime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	clock := newFakeClock()

	s := Open(path, WithClock(clock.Now))
	require.NoError(t, s.SetWithTTL("short", 1, time.Minute))
	require.NoError(t, s.SetWithTTL("long", 1, time.Hour))
	require.NoError(t, s.Save())

	clock.Advance(5 * time.Minute)
	restored := Open(path, WithClock(clock.Now))
	assert.Equal(t, []string{"long"}, restored.Keys())
}

func TestSnapshotFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	clock := newFakeClock()

	s := Open(path, WithClock(clock.Now))
	require.NoError(t, s.SetWithTTL("k", map[string]int{"n": 1}, 30*time.Second))
	require.NoError(t, s.SetWithTTL("forever", true, 0))
	require.NoError(t, s.Save())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Contains(t, raw, "k")
	assert.JSONEq(t, `{"n":1}`, string(raw["k"]["value"]))
	assert.Equal(t, "30000", string(raw["k"]["ttl"]))
	assert.Equal(t, jsonInt(clock.Now().UnixMilli()), string(raw["k"]["savedAt"]))

	_, hasTTL := raw["forever"]["ttl"]
	assert.False(t, hasTTL)
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestOpenMissingSnapshot(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "none.json"))
	assert.Empty(t, s.Keys())
}

func TestOpenCorruptSnapshotStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := Open(path)
	assert.Empty(t, s.Keys())

	_, err := s.load()
	assert.ErrorIs(t, err, ErrPersistence)

	// the store keeps working and the next save repairs the file
	require.NoError(t, s.Set("k", 1))
	require.NoError(t, s.Save())
	assert.Equal(t, []string{"k"}, Open(path).Keys())
}

func TestSaveFailureIsReported(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	var hookErr error
	s := Open(filepath.Join(blocker, "snapshot.json"), WithSaveHook(func(_ int, err error) {
		hookErr = err
	}))
	require.NoError(t, s.Set("k", 1))

	err := s.Save()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPersistence))
	assert.Equal(t, err, hookErr)

	// memory is unaffected
	_, ok := s.Get("k")
	assert.True(t, ok)
}

func TestSaveWithoutPathIsNoop(t *testing.T) {
	called := false
	s := Open("", WithSaveHook(func(int, error) { called = true }))
	require.NoError(t, s.Set("k", 1))
	assert.NoError(t, s.Save())
	assert.False(t, called)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.json")
	s := Open(path)
	require.NoError(t, s.Set("k", 1))
	require.NoError(t, s.Save())
	require.NoError(t, s.Save())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "snapshot.json", entries[0].Name())
}

func TestStopWritesFinalSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	saved := -1
	s := Open(path, WithSaveHook(func(n int, err error) {
		if err == nil {
			saved = n
		}
	}))
	require.NoError(t, s.Start())
	require.NoError(t, s.Set("k", "v"))
	require.NoError(t, s.Stop())

	assert.Equal(t, 1, saved)
	assert.Equal(t, []string{"k"}, Open(path).Keys())
}

func TestStartSchedulesSnapshots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	saved := make(chan int, 8)
	s := Open(path,
		WithSaveInterval(time.Second),
		WithSaveHook(func(n int, err error) {
			if err != nil {
				return
			}
			select {
			case saved <- n:
			default:
			}
		}),
	)
	require.NoError(t, s.Set("k", "v"))
	require.NoError(t, s.Start())

	select {
	case n := <-saved:
		assert.Equal(t, 1, n)
	case <-time.After(5 * time.Second):
		t.Fatal("no scheduled snapshot within 5s")
	}
	require.NoError(t, s.Stop())

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestRestoredSizeMatchesOriginal(t *testing.T) {
	type item struct {
		Title string   `json:"title"`
		Tags  []string `json:"tags"`
		Score float64  `json:"score"`
	}

	path := filepath.Join(t.TempDir(), "snapshot.json")
	clock := newFakeClock()
	s := Open(path, WithClock(clock.Now))
	for i := 0; i < 200; i++ {
		require.NoError(t, s.Set(fmt.Sprintf("item:%d", i), item{
			Title: fmt.Sprintf("haber %d", i),
			Tags:  []string{"ekonomi", "spor"},
			Score: 0.5,
		}))
	}
	before := s.Stats().ApproxSizeKB
	original, ok := s.Get("item:7")
	require.True(t, ok)
	require.NoError(t, s.Save())

	restored := Open(path, WithClock(clock.Now))
	assert.Equal(t, before, restored.Stats().ApproxSizeKB)

	raw, ok := restored.Get("item:7")
	require.True(t, ok)
	assert.Equal(t, string(original), string(raw))
}
