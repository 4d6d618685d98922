package device

import "errors"

var (
	ErrDeviceNotFound      = errors.New("device not found")
	ErrDeviceAlreadyExists = errors.New("owner already has a device")
	ErrMissingOwner        = errors.New("device has no owner")
)
