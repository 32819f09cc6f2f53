package domain

// Location is a warehouse or delivery location. CreatedAt is kept as the
// ISO-8601 string the form writes; locations are never updated, only
// created and deleted.
type Location struct {
	ID        string
	Name      string
	CreatedAt string
}
