package lora

import "errors"

// Sentinel errors for the LoRa bridge.
var (
	// ErrMalformedFrame indicates a frame shorter than its declared structure.
	ErrMalformedFrame = errors.New("lora: malformed frame")

	// ErrUnknownSender indicates a frame from an address absent from the
	// device registry.
	ErrUnknownSender = errors.New("lora: unknown sender")

	// ErrUnknownEntity indicates a reference to an entity id absent from
	// the discovery catalog.
	ErrUnknownEntity = errors.New("lora: unknown entity")

	// ErrValidation indicates an out-of-range address, entity id or
	// service code on outbound request construction.
	ErrValidation = errors.New("lora: validation failed")

	// ErrInvalidState indicates a raw value outside the state vocabulary
	// for its component.
	ErrInvalidState = errors.New("lora: invalid state value")

	// ErrSendFailed indicates an outbound radio send could not be
	// performed.
	ErrSendFailed = errors.New("lora: send failed")

	// ErrNotConnected indicates the radio daemon connection is down.
	ErrNotConnected = errors.New("lora: not connected")

	// ErrConnectionFailed indicates the initial daemon connection failed.
	ErrConnectionFailed = errors.New("lora: connection failed")

	// ErrProtocolDesync indicates the daemon byte stream is corrupted and
	// the connection must be re-established.
	ErrProtocolDesync = errors.New("lora: protocol desync")
)
