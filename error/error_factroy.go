package error

import "errors"

var (
	BindingFailure     = errors.New("native binding failed")
	RemoteReadFailure  = errors.New("remote read failed")
	OversizeRequest    = errors.New("request exceeds slot capacity")
	CompressionFailure = errors.New("compression failed")
	InvalidFrame       = errors.New("invalid frame")
	AddressNotMapped   = errors.New("address not mapped")
)
