// Package protocol implements the hag1 wire frame codec and the
// per-connection session table the router consults.
package protocol

import "errors"

// Sentinel errors returned by the frame codec and transport framer.
// These close the connection and are logged; they are
// never handed to a registered callback listener.
var (
	ErrBadMagic     = errors.New("protocol: bad magic bytes")
	ErrShortHeader  = errors.New("protocol: header too short")
	ErrShortPayload = errors.New("protocol: payload shorter than payload_size")
	ErrTruncatedLPS = errors.New("protocol: truncated length-prefixed sub-list entry")
	ErrFrameTooLarge = errors.New("protocol: frame payload exceeds configured ceiling")
)
