// Package mpibind adapts the native mpibind library to mapping.Engine.
//
// The cgo implementation is compiled with the "mpibind" build tag and links
// against libmpibind and libhwloc:
//
//	go build -tags mpibind ./...
//
// Without the tag, New returns ErrNotSupported so that code depending on the
// adapter still builds on machines without the native library.
//
// mpibind loads the hardware topology from the file named by the
// HWLOC_XMLFILE environment variable when it is set. The adapter passes a
// request's topology through that variable and serializes computations so
// that an override is only ever visible to the computation that asked for it.
package mpibind

import "errors"

// TopologyEnv is the environment variable hwloc reads a topology file from.
const TopologyEnv = "HWLOC_XMLFILE"

// ErrNotSupported is returned when the package was built without the
// mpibind tag.
var ErrNotSupported = errors.New("mpibind: native engine not compiled in (build with -tags mpibind)")
