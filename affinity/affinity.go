// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Platform-neutral API for CPU affinity. Platform implementations live
// in build-tagged files. Callers must hold runtime.LockOSThread for the
// pin to stick to the goroutine.

package affinity

// SetAffinity pins the current OS thread to the given logical CPU on
// supported platforms. On unsupported platforms it returns an error.
func SetAffinity(cpuID int) error {
	return setAffinityPlatform(cpuID)
}
