package sqlitestore_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-queue-client/token"
	"github.com/jrsteele09/go-queue-client/token/sqlitestore"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestStore_SetGetClear(t *testing.T) {
	s, err := sqlitestore.Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	_, ok := s.Get(token.AccessKey)
	require.False(t, ok)

	s.Set(token.AccessKey, "t1")
	s.Set(token.AccessKey, "t2")
	got, ok := s.Get(token.AccessKey)
	require.True(t, ok)
	require.Equal(t, token.Token("t2"), got)

	s.Clear(token.AccessKey)
	_, ok = s.Get(token.AccessKey)
	require.False(t, ok)
}

func TestStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.db")

	s, err := sqlitestore.Open(path)
	require.NoError(t, err)
	token.SavePair(s, token.Pair{Access: "t1", Refresh: "r1"})
	require.NoError(t, s.Close())

	reopened, err := sqlitestore.Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	require.Equal(t, token.Pair{Access: "t1", Refresh: "r1"}, token.LoadPair(reopened))
}

func TestStore_FailuresAreSwallowed(t *testing.T) {
	var buf bytes.Buffer
	s, err := sqlitestore.Open(":memory:", sqlitestore.WithLogger(zerolog.New(&buf)))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s.Set(token.AccessKey, "t1")
	_, ok := s.Get(token.AccessKey)
	require.False(t, ok)
	s.Clear(token.AccessKey)
	require.Contains(t, buf.String(), "token store write failed")
}
