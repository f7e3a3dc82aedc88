package token_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-queue-client/token"
	"github.com/jrsteele09/go-queue-client/token/memstore"
	"github.com/jrsteele09/go-queue-client/token/tokentest"
	"github.com/stretchr/testify/require"
)

func TestToken_Expiry(t *testing.T) {
	exp := time.Unix(1_900_000_000, 0)

	t.Run("exp claim", func(t *testing.T) {
		got, err := tokentest.Signed(t, "provider-1", exp).Expiry()
		require.NoError(t, err)
		require.True(t, exp.Equal(got))
	})

	t.Run("missing exp", func(t *testing.T) {
		_, err := tokentest.WithoutExpiry(t, "provider-1").Expiry()
		require.ErrorIs(t, err, token.ErrMissingExpiry)
	})

	t.Run("not a jwt", func(t *testing.T) {
		_, err := token.Token("t1").Expiry()
		require.Error(t, err)
	})
}

func TestPair_OAuth2(t *testing.T) {
	exp := time.Unix(1_900_000_000, 0)
	p := token.Pair{Access: tokentest.Signed(t, "provider-1", exp), Refresh: "r1"}
	require.True(t, p.Complete())

	ot := p.OAuth2()
	require.Equal(t, p.Access.String(), ot.AccessToken)
	require.Equal(t, "r1", ot.RefreshToken)
	require.Equal(t, "Bearer", ot.Type())
	require.True(t, exp.Equal(ot.Expiry))

	require.False(t, token.Pair{Access: "a"}.Complete())
}

func TestPairHelpers(t *testing.T) {
	s := memstore.New()
	require.Equal(t, token.Pair{}, token.LoadPair(s))

	token.SavePair(s, token.Pair{Access: "t1", Refresh: "r1"})
	require.Equal(t, token.Pair{Access: "t1", Refresh: "r1"}, token.LoadPair(s))

	token.ClearPair(s)
	_, ok := s.Get(token.AccessKey)
	require.False(t, ok)
	_, ok = s.Get(token.RefreshKey)
	require.False(t, ok)
}
