package pbsetup

import "errors"

// Sentinel errors for the failure categories callers branch on.
var (
	// ErrUnsupportedPlatform reports a host OS/arch combination with no
	// published PocketBase build.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrVersionNotFound reports a requested version absent from the
	// release list.
	ErrVersionNotFound = errors.New("version not found")

	// ErrNoVersionsAvailable reports an empty release list.
	ErrNoVersionsAvailable = errors.New("no versions available")

	// ErrNotFound reports a release artifact the server does not have.
	// It is terminal; retrying cannot make the artifact appear.
	ErrNotFound = errors.New("artifact not found")

	// ErrCacheCorrupt reports a cache slot whose binary is missing or
	// empty. The slot can be demoted and fetched again.
	ErrCacheCorrupt = errors.New("cache entry corrupt")

	// ErrInvalidPort reports a port outside the usable range.
	ErrInvalidPort = errors.New("invalid port")
)

// NetworkError wraps a transient transport failure. Unlike the
// sentinels above it marks the operation as worth retrying.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a transient network failure.
func IsRetryable(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
