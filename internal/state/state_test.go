package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"autotrade/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func armedSnapshot(symbol string) model.PositionSnapshot {
	ny := model.NewYork()
	entry := time.Date(2024, 1, 2, 9, 45, 0, 0, ny)
	return model.PositionSnapshot{
		TsNY:             time.Date(2024, 1, 2, 10, 15, 0, 0, ny),
		Symbol:           symbol,
		Qty:              10,
		AvgEntryPx:       51.25,
		EntryTsNY:        &entry,
		UnrealizedPLPct:  0.012,
		HighestPLPct:     0.02,
		StepTPFloorPLPct: 0.01,
		StepTPArmed:      true,
	}
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()

	_, ok := store.Get("TQQQ")
	assert.False(t, ok)

	require.NoError(t, store.Put(armedSnapshot("TQQQ")))
	require.NoError(t, store.Put(armedSnapshot("SOXL")))

	got, ok := store.Get("TQQQ")
	require.True(t, ok)
	assert.True(t, got.StepTPArmed)
	assert.Equal(t, 0.01, got.StepTPFloorPLPct)
	require.NotNil(t, got.EntryTsNY)
	assert.Equal(t, "20240102-0945", model.MinuteKey(*got.EntryTsNY))

	all := store.All()
	require.Len(t, all, 2)
	assert.Equal(t, "SOXL", all[0].Symbol)

	require.NoError(t, store.Delete("SOXL"))
	assert.Len(t, store.All(), 1)

	bad := armedSnapshot("TQQQ")
	bad.TsNY = time.Date(2024, 1, 2, 10, 0, 0, 0, time.Local)
	assert.Error(t, store.Put(bad))
}

func TestFileStore(t *testing.T) {
	store, err := OpenFile(filepath.Join(t.TempDir(), "state", "positions.json"))
	require.NoError(t, err)
	exerciseStore(t, store)
	require.NoError(t, store.Close())
}

func TestFileStorePersistsStepTakeProfitAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.json")
	first, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, first.Put(armedSnapshot("TQQQ")))

	second, err := OpenFile(path)
	require.NoError(t, err)
	got, ok := second.Get("TQQQ")
	require.True(t, ok)
	assert.True(t, got.StepTPArmed)
	assert.Equal(t, 0.01, got.StepTPFloorPLPct)
	assert.Equal(t, 0.02, got.HighestPLPct)
	assert.Equal(t, "America/New_York", got.TsNY.Location().String())
}

func TestFileStoreKeepsMemoryOnFailedWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	store, err := OpenFile(filepath.Join(dir, "positions.json"))
	require.NoError(t, err)
	require.NoError(t, store.Put(armedSnapshot("TQQQ")))

	// a regular file where the state directory was makes every write fail
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, []byte("x"), 0o600))

	require.Error(t, store.Put(armedSnapshot("LABU")))
	_, ok := store.Get("LABU")
	assert.False(t, ok)

	require.Error(t, store.Delete("TQQQ"))
	_, ok = store.Get("TQQQ")
	assert.True(t, ok)
	assert.Len(t, store.All(), 1)
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"positions":[{"ts_ny":"2024-01-02T10:00:00","symbol":"TQQQ"}]}`), 0o600))

	_, err := OpenFile(path)
	assert.Error(t, err)
}

func TestBadgerStore(t *testing.T) {
	store, err := OpenBadger("")
	require.NoError(t, err)
	defer store.Close()
	exerciseStore(t, store)
}

func TestOpenSelectsBackend(t *testing.T) {
	store, err := Open(BackendJSON, filepath.Join(t.TempDir(), "positions.json"))
	require.NoError(t, err)
	_, isFile := store.(*FileStore)
	assert.True(t, isFile)

	_, err = Open("redis", "")
	assert.Error(t, err)
}
