package harvest

import (
	"errors"
	"fmt"
)

// ErrEmptyDiscovery marks a traversal branch that legitimately produced no
// work: an area tree without the configured country or a listing with no
// items. It terminates the branch but often indicates an upstream API change,
// so callers log it at warning level.
var ErrEmptyDiscovery = errors.New("discovery yielded no entries")

// FetchError wraps transport/HTTP failures. The fetch executor retries these
// per its own policy; once retries are exhausted the owning branch is
// abandoned and the failure counted.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MalformedRecordError signals a payload that parsed as JSON but violates a
// mapping contract: a vacancy without an id, a listing whose page count is
// not numeric. Retrying the fetch cannot fix it, so it is counted and the
// document skipped.
type MalformedRecordError struct {
	Field string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed record: field %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("malformed record: field %q", e.Field)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

// SinkError wraps an upsert failure for a specific record.
type SinkError struct {
	VacancyID string
	Err       error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink upsert %s: %v", e.VacancyID, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

// IsMalformed reports whether err is (or wraps) a MalformedRecordError.
func IsMalformed(err error) bool {
	var target *MalformedRecordError
	return errors.As(err, &target)
}

// IsFetchError reports whether err is (or wraps) a FetchError.
func IsFetchError(err error) bool {
	var target *FetchError
	return errors.As(err, &target)
}
