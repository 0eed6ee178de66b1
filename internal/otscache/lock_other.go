//go:build !unix

package otscache

import "os"

// lockSchemaFile is a no-op on platforms without flock; SQLite's own
// locking still prevents corruption, just not the empty-file creation race.
func lockSchemaFile(f *os.File) error   { return nil }
func unlockSchemaFile(f *os.File) error { return nil }
