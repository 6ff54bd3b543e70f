package discovery

import "fmt"

// InvalidRootError reports a discovery root that is missing or not a
// directory.
type InvalidRootError struct {
	Root string
	Err  error
}

func (e *InvalidRootError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid discovery root %s: %v", e.Root, e.Err)
	}
	return fmt.Sprintf("invalid discovery root %s: not a directory", e.Root)
}

func (e *InvalidRootError) Unwrap() error { return e.Err }

// InvalidPatternError identifies a glob pattern that cannot be used.
type InvalidPatternError struct {
	Pattern string
	Reason  string
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %s", e.Pattern, e.Reason)
}
