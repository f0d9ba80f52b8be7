package parser

import "errors"

// Placeholder is the in-JSON marker for a binary attachment (spec §3).
type Placeholder struct {
	Placeholder bool `json:"_placeholder"`
	Num         int  `json:"num"`
}

// ErrIllegalAttachments is returned when a placeholder references an
// attachment index outside the received attachment list.
var ErrIllegalAttachments = errors.New("parser: illegal attachments")

// Bytes marks a value as an explicit binary blob for DeconstructArgs, per
// spec §9's "Binary-stream inputs to emit" redesign: callers mark blobs
// explicitly instead of relying on type detection of file-like values.
type Bytes []byte

// DeconstructArgs walks args depth-first, replacing every non-empty Bytes
// leaf (and, for compatibility, every non-empty plain []byte leaf) with a
// numbered placeholder and every empty one with nil, and returns the rebuilt tree alongside the extracted attachments in
// placeholder order (spec §4.3, §8 invariant 3).
func DeconstructArgs(args []any) ([]any, [][]byte) {
	var attachments [][]byte
	out := make([]any, len(args))
	for i, v := range args {
		out[i] = deconstructValue(v, &attachments)
	}
	return out, attachments
}

func deconstructValue(v any, attachments *[][]byte) any {
	if isBinary(v) {
		switch tv := v.(type) {
		case Bytes:
			return extractAttachment([]byte(tv), attachments)
		case []byte:
			return extractAttachment(tv, attachments)
		}
	}
	switch tv := v.(type) {
	case []any:
		out := make([]any, len(tv))
		for i, item := range tv {
			out[i] = deconstructValue(item, attachments)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, item := range tv {
			out[k] = deconstructValue(item, attachments)
		}
		return out
	default:
		return v
	}
}

func extractAttachment(data []byte, attachments *[][]byte) any {
	if len(data) == 0 {
		return nil
	}
	idx := len(*attachments)
	*attachments = append(*attachments, data)
	return map[string]any{"_placeholder": true, "num": idx}
}

// ReconstructArgs walks args depth-first, replacing every placeholder whose
// num is i by attachments[i] (spec §4.3 "Attachment re-assembly", step 3).
// A num shared by several placeholders fills all of them, not only the
// first.
func ReconstructArgs(args []any, attachments [][]byte) ([]any, error) {
	out := make([]any, len(args))
	for i, v := range args {
		rv, err := reconstructValue(v, attachments)
		if err != nil {
			return nil, err
		}
		out[i] = rv
	}
	return out, nil
}

func reconstructValue(v any, attachments [][]byte) (any, error) {
	switch tv := v.(type) {
	case []any:
		out := make([]any, len(tv))
		for i, item := range tv {
			rv, err := reconstructValue(item, attachments)
			if err != nil {
				return nil, err
			}
			out[i] = rv
		}
		return out, nil
	case map[string]any:
		if ph, ok := parsePlaceholder(tv); ok {
			if ph.Num < 0 || ph.Num >= len(attachments) {
				return nil, ErrIllegalAttachments
			}
			return attachments[ph.Num], nil
		}
		out := make(map[string]any, len(tv))
		for k, item := range tv {
			rv, err := reconstructValue(item, attachments)
			if err != nil {
				return nil, err
			}
			out[k] = rv
		}
		return out, nil
	default:
		return v, nil
	}
}

func parsePlaceholder(m map[string]any) (Placeholder, bool) {
	flag, ok := m["_placeholder"].(bool)
	if !ok || !flag {
		return Placeholder{}, false
	}
	switch n := m["num"].(type) {
	case float64:
		return Placeholder{Placeholder: true, Num: int(n)}, true
	case int:
		return Placeholder{Placeholder: true, Num: n}, true
	default:
		return Placeholder{}, false
	}
}
