package device

import "errors"

// ErrDeviceClosed is returned when a voice is requested from a closed device.
var ErrDeviceClosed = errors.New("device: closed")
