package parser

// isBinary reports whether v is something DeconstructArgs would extract.
func isBinary(v any) bool {
	switch v.(type) {
	case Bytes, []byte:
		return true
	default:
		return false
	}
}

// hasBinary recursively scans a JSON-shaped value for any binary leaf,
// deciding whether Encode must switch EVENT/ACK to their BINARY_ variants
// (spec §4.3's encoder contract).
func hasBinary(v any) bool {
	if isBinary(v) {
		return true
	}
	switch tv := v.(type) {
	case []any:
		for _, item := range tv {
			if hasBinary(item) {
				return true
			}
		}
	case map[string]any:
		for _, item := range tv {
			if hasBinary(item) {
				return true
			}
		}
	}
	return false
}
