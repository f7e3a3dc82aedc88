package users

type ProviderRepo interface {
	// Create assigns the next ID to p. Returns ErrEmailExists when the
	// email is taken.
	Create(p *Provider) error
	GetByEmail(email string) (*Provider, error)
	GetByID(id int) (*Provider, error)
	SetLoggedIn(id int, loggedIn bool) error
}
