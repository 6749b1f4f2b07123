// Package media resolves sound and video filenames against the collection's
// media directory.
package media

// Provider is the interface for media directory lookups.
type Provider interface {
	// Exists reports whether a plain filename is present in the media directory.
	Exists(name string) (bool, error)
	// List returns every filename in the media directory.
	List() ([]string, error)
}
