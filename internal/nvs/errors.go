package nvs

import "errors"

var (
	// ErrNotFound is returned when a key is absent from the namespace.
	ErrNotFound = errors.New("nvs: key not found")

	// ErrTypeMismatch is returned when a key holds a value of another kind.
	ErrTypeMismatch = errors.New("nvs: type mismatch")

	// ErrInvalidKey is returned for empty keys or namespaces.
	ErrInvalidKey = errors.New("nvs: invalid key")

	// ErrKeyTooLong is returned when a key or namespace exceeds MaxKeyLength.
	ErrKeyTooLong = errors.New("nvs: key too long")

	// ErrValueTooLong is returned when a string does not fit MaxStringLength.
	ErrValueTooLong = errors.New("nvs: value too long")
)
