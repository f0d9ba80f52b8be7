package elephantio

import "github.com/tihiydo/elephant.io/engine"

// Session is the value object created on a successful handshake (spec §3):
// session id, ping interval/timeout, permitted upgrades, optional max
// payload, and the last-activity timestamp. Destroyed on close.
type Session = engine.Session
