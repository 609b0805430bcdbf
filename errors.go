package steg

import (
	"github.com/yyyoichi/steg_zero/internal/header"
	"github.com/yyyoichi/steg_zero/internal/lsb"
)

var (
	// ErrTooSmall means the image cannot hold even the header.
	ErrTooSmall = lsb.ErrTooSmall
	// ErrPayloadTooLarge means the message does not fit. The error returned
	// is a *CapacityError.
	ErrPayloadTooLarge = lsb.ErrPayloadTooLarge
	// ErrNoMessage means the image does not carry a message.
	ErrNoMessage = header.ErrNoMessage
	// ErrCorrupt means a message was found but cannot be recovered intact.
	ErrCorrupt = header.ErrCorrupt
	// ErrTruncated means the pixel data ends before the message does.
	ErrTruncated = lsb.ErrTruncated

	ErrBitsPerChannel = lsb.ErrBitsPerChannel
)

// CapacityError reports the stored size of a rejected message and the
// capacity of the image, both in bytes.
type CapacityError = lsb.CapacityError
