package app

import "github.com/google/uuid"

// newID returns a random UUIDv4 string used for sessions.
func newID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like one handed out by CreateGame.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
