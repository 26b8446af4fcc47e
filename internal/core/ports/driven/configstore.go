package driven

// ConfigStore persists flat settings addressed by dotted keys such as
// "embedding.model". A missing key, or a value of another type, reads as
// the zero value.
type ConfigStore interface {
	String(key string) string
	Int(key string) int

	// Set stores value under key and persists it before returning.
	Set(key string, value any) error

	// Unset removes key. Removing a missing key is not an error.
	Unset(key string) error

	// Path locates the backing file, for messages and for deriving
	// sibling data directories.
	Path() string
}
