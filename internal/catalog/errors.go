package catalog

import "fmt"

// ManifestLoadError means the manifest could not be retrieved.
type ManifestLoadError struct {
	Source string
	Err    error
}

func (e *ManifestLoadError) Error() string {
	return fmt.Sprintf("loading manifest %s: %v", e.Source, e.Err)
}

func (e *ManifestLoadError) Unwrap() error {
	return e.Err
}

// ManifestParseError means the manifest was retrieved but is not a valid photo list.
// Entry is the zero-based index of the offending entry, or -1 when the whole document is invalid.
type ManifestParseError struct {
	Source string
	Entry  int
	Err    error
}

func (e *ManifestParseError) Error() string {
	if e.Entry < 0 {
		return fmt.Sprintf("parsing manifest %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("parsing manifest %s: entry %d: %v", e.Source, e.Entry, e.Err)
}

func (e *ManifestParseError) Unwrap() error {
	return e.Err
}
