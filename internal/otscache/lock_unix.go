//go:build unix

package otscache

import (
	"os"

	"golang.org/x/sys/unix"
)

// lockSchemaFile takes an advisory exclusive lock on f for the duration of
// schema application, so two otsctl processes racing to create a fresh
// cache database don't both run CREATE TABLE against an empty file at once.
func lockSchemaFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX)
}

func unlockSchemaFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
