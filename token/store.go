package token

// Key names a slot in the token store.
type Key string

const (
	AccessKey  Key = "access_token"
	RefreshKey Key = "refresh_token"
)

// Store persists the current token pair. Implementations are synchronous
// and total: failures are handled inside the store and never reported.
// The session manager is the only writer.
type Store interface {
	Get(key Key) (Token, bool)
	Set(key Key, value Token)
	Clear(key Key)
}

// LoadPair reads both slots from s.
func LoadPair(s Store) Pair {
	access, _ := s.Get(AccessKey)
	refresh, _ := s.Get(RefreshKey)
	return Pair{Access: access, Refresh: refresh}
}

// SavePair writes both slots.
func SavePair(s Store, p Pair) {
	s.Set(AccessKey, p.Access)
	s.Set(RefreshKey, p.Refresh)
}

// ClearPair removes both slots.
func ClearPair(s Store) {
	s.Clear(AccessKey)
	s.Clear(RefreshKey)
}
