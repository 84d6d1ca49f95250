package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rfpdash/internal"
)

func TestFilePersister(t *testing.T) {
	p := NewFilePersister(filepath.Join(t.TempDir(), "state"))

	blob, err := p.Load(Key)
	require.NoError(t, err)
	require.Nil(t, blob)

	require.NoError(t, p.Save(Key, []byte(`{"rfp_id":"A"}`)))
	require.NoError(t, p.Save(Key, []byte(`{"rfp_id":"B"}`)))

	blob, err = p.Load(Key)
	require.NoError(t, err)
	require.Equal(t, `{"rfp_id":"B"}`, string(blob))

	entries, err := os.ReadDir(p.Dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
}

func TestStoreOverFilePersisterSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	Open(NewFilePersister(dir), nil).Write(fixture("RFP-9"))

	got, ok := Open(NewFilePersister(dir), nil).Read()
	require.True(t, ok)
	require.Equal(t, "RFP-9", got.RfpID)
}

func TestFollowerPicksUpExternalWrite(t *testing.T) {
	dir := t.TempDir()

	follower := Open(NewFilePersister(dir), zap.NewNop())
	seen := make(chan string, 4)
	follower.Subscribe(func(r internal.RfpResult) { seen <- r.RfpID })

	f, err := follower.Follow(NewFilePersister(dir))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Run(ctx) }()

	writer := Open(NewFilePersister(dir), nil)
	writer.Write(fixture("RFP-EXT"))

	select {
	case id := <-seen:
		require.Equal(t, "RFP-EXT", id)
	case <-time.After(5 * time.Second):
		t.Fatal("follower did not observe the external write")
	}

	got, ok := follower.Read()
	require.True(t, ok)
	require.Equal(t, "RFP-EXT", got.RfpID)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("follower did not stop")
	}
}

func TestFollowerIgnoresOwnWrites(t *testing.T) {
	dir := t.TempDir()
	s := Open(NewFilePersister(dir), nil)

	var count int
	s.Subscribe(func(internal.RfpResult) { count++ })

	f, err := s.Follow(NewFilePersister(dir))
	require.NoError(t, err)
	s.Write(fixture("OWN"))

	require.False(t, s.reload())
	require.Equal(t, 1, count)
	require.NoError(t, f.watcher.Close())
}
