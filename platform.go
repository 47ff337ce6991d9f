package pbsetup

import (
	"fmt"
	"runtime"
)

// OS name constants matching runtime.GOOS values.
const (
	Darwin  = "darwin"
	Linux   = "linux"
	Windows = "windows"
)

// Architecture constants matching runtime.GOARCH values.
const (
	AMD64 = "amd64"
	ARM64 = "arm64"
)

// Platform identifies the host operating system and CPU architecture.
// It is determined once per run and never mutated.
type Platform struct {
	OS   string
	Arch string
}

// supportedPlatforms lists the OS/architecture combinations PocketBase
// publishes release binaries for.
var supportedPlatforms = map[string][]string{
	Darwin:  {AMD64, ARM64},
	Linux:   {AMD64, ARM64},
	Windows: {AMD64, ARM64},
}

// Identify derives the platform key from the running host. It fails
// with ErrUnsupportedPlatform when no release exists for the host.
func Identify() (Platform, error) {
	return identify(runtime.GOOS, runtime.GOARCH)
}

func identify(goos, goarch string) (Platform, error) {
	archs, ok := supportedPlatforms[goos]
	if !ok {
		return Platform{}, fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, goos, goarch)
	}
	for _, arch := range archs {
		if arch == goarch {
			return Platform{OS: goos, Arch: goarch}, nil
		}
	}
	return Platform{}, fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, goos, goarch)
}

// String returns "<os>_<arch>", the fragment used in release asset
// names and cache keys.
func (p Platform) String() string {
	return p.OS + "_" + p.Arch
}

// BinaryName returns the server binary name for the platform.
// On Windows the binary carries an ".exe" suffix.
func (p Platform) BinaryName() string {
	if p.OS == Windows {
		return "pocketbase.exe"
	}
	return "pocketbase"
}
