package mapping

// retrieveText copies the mapping text of a computed handle out of the
// engine. It starts with a buffer of size bytes and, while the engine reports
// a truncated copy, grows the buffer (past the reported length, at least
// doubling, since the report may be short) up to limit bytes.
func retrieveText(eng Engine, h Handle, size, limit int) (string, error) {
	for {
		buf := make([]byte, size)
		n, err := eng.MappingText(h, buf)
		if err != nil {
			return "", &EngineError{Op: "mapping_text", Err: err}
		}
		if n < 0 {
			return "", &EngineError{Op: "mapping_text", Status: n}
		}
		if n < len(buf) {
			return string(buf[:n]), nil
		}

		if size >= limit {
			return "", &TruncationError{Needed: n, Capacity: size}
		}
		size = min(max(n+1, 2*size), limit)
		debugLog("mapping text needs %d bytes, retrying with %d", n, size)
	}
}
