package persistence

import "fmt"

// StorageUnavailableError reports that the metadata database could not be
// opened, read or written. Op names the failing step.
type StorageUnavailableError struct {
	Path string
	Op   string
	Err  error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("cache storage %s unavailable: %s: %v", e.Path, e.Op, e.Err)
}

func (e *StorageUnavailableError) Unwrap() error { return e.Err }

// InvalidArgumentError reports a caller mistake such as an empty key. The
// database is not touched.
type InvalidArgumentError struct {
	Op     string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}
