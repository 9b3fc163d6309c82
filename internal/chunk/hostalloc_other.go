//go:build !linux

package chunk

// allocStorage returns a zeroed element buffer. On platforms without the
// anonymous-mapping path everything is heap-backed and there is nothing
// to release.
func allocStorage[C Complex](elems int) ([]C, func(), error) {
	return make([]C, elems), nil, nil
}
