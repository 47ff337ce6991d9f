package pbsetup

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// Latest is the version spec that resolves to the newest available tag.
const Latest = "latest"

// ResolveVersion picks a concrete release tag.
//
// An empty or "latest" request resolves to the first element of
// available, which the release source orders newest first. A concrete
// request succeeds only if it is a member of available. Staleness of
// the available list is the caller's concern; nothing is cached here.
func ResolveVersion(requested string, available []string) (string, error) {
	if requested == "" || requested == Latest {
		if len(available) == 0 {
			return "", ErrNoVersionsAvailable
		}
		return available[0], nil
	}

	// Release tags are semver with a leading "v" (e.g. v0.30.3).
	// Reject malformed requests before scanning the list.
	if !semver.IsValid(requested) {
		return "", fmt.Errorf("%w: %q is not a valid release tag", ErrVersionNotFound, requested)
	}

	for _, tag := range available {
		if tag == requested {
			return tag, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrVersionNotFound, requested)
}
