//go:build !debug

package mapping

func debugLog(format string, args ...interface{}) {}
