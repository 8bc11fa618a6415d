package mapping

import "github.com/utkarsh5026/bindmap/internal/cpu"

// Bind locks the calling goroutine to its OS thread and restricts that thread
// to the task's CPU ids. The returned release func restores the previous
// affinity and unlocks the thread; call it from the same goroutine.
//
// Example:
//
//	release, err := m[rank].Bind()
//	if err != nil {
//	    return err
//	}
//	defer release()
func (ta TaskAssignment) Bind() (release func(), err error) {
	return cpu.PinToSet(ta.cpus.ids)
}
