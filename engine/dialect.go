package engine

// Version is the configuration constant passed to the client constructor
// (spec §6's "version_constant"). Each value fixes a Dialect: the
// Engine.IO protocol version, the polling packet-separator style, and
// whether a pre-upgrade namespace-connect round trip is required.
//
// Represented as a dialect descriptor rather than a type hierarchy, per
// the "Polymorphism across protocol versions" redesign note: behavioral
// differences between engine generations are data, not subclasses.
type Version int

const (
	Version0X Version = iota // EIO 2 (legacy alias of Version1X)
	Version1X                // EIO 2
	Version2X                // EIO 3
	Version3X                // EIO 4
	Version4X                // EIO 4
)

// Dialect is the set of wire-format decisions that vary across Engine.IO
// protocol versions.
type Dialect struct {
	EIOVersion int
	// LengthPrefixed selects the "<len>:<payload>" polling body framing
	// (EIO<=3). When false, a polling body is exactly one packet (EIO>=4).
	LengthPrefixed bool
	// NamespaceConnect requires the pre-upgrade CONNECT round trip over
	// polling before the WebSocket upgrade is attempted (EIO>=4).
	NamespaceConnect bool
	// AuthInConnect allows an auth payload on the CONNECT packet (EIO>=4).
	AuthInConnect bool
	// ShortWSKey uses a truncated sha1(uniqid) Sec-WebSocket-Key instead of
	// 16 random bytes, matching EIO<=2 server expectations.
	ShortWSKey bool
}

func (v Version) dialect() Dialect {
	switch v {
	case Version0X, Version1X:
		return Dialect{EIOVersion: 2, LengthPrefixed: true, ShortWSKey: true}
	case Version2X:
		return Dialect{EIOVersion: 3, LengthPrefixed: true}
	case Version3X, Version4X:
		return Dialect{EIOVersion: 4, LengthPrefixed: false, NamespaceConnect: true, AuthInConnect: true}
	default:
		return Dialect{EIOVersion: 4, LengthPrefixed: false, NamespaceConnect: true, AuthInConnect: true}
	}
}

// Dialect resolves the wire-format rules for this version constant.
func (v Version) Dialect() Dialect { return v.dialect() }
