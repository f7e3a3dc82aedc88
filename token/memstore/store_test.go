package memstore_test

import (
	"sync"
	"testing"

	"github.com/jrsteele09/go-queue-client/token"
	"github.com/jrsteele09/go-queue-client/token/memstore"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	s := memstore.New()

	_, ok := s.Get(token.AccessKey)
	require.False(t, ok)

	s.Set(token.AccessKey, "t1")
	got, ok := s.Get(token.AccessKey)
	require.True(t, ok)
	require.Equal(t, token.Token("t1"), got)

	s.Set(token.AccessKey, "t2")
	got, _ = s.Get(token.AccessKey)
	require.Equal(t, token.Token("t2"), got)

	s.Clear(token.AccessKey)
	s.Clear(token.AccessKey)
	_, ok = s.Get(token.AccessKey)
	require.False(t, ok)
}

func TestStore_Concurrent(t *testing.T) {
	s := memstore.New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Set(token.RefreshKey, "r")
			s.Get(token.RefreshKey)
			s.Clear(token.RefreshKey)
		}()
	}
	wg.Wait()
}
