//go:build !windows

package generic

// The vendor library only ships for Windows.
func loadLibrary(path string) (library, error) {
	return nil, ErrUnsupportedOS
}
