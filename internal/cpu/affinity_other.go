//go:build !linux && !windows

package cpu

// PinToSet always fails: macOS and the BSDs offer no way to restrict a
// thread to specific CPUs.
func PinToSet(ids []int) (func(), error) {
	if len(ids) == 0 {
		return nil, ErrEmptySet
	}
	return nil, ErrUnsupported
}

func CurrentSet() ([]int, error) {
	return nil, ErrUnsupported
}
