package repositories

import "errors"

var (
	// ErrNoSpeech means the audio held nothing intelligible
	ErrNoSpeech = errors.New("could not understand audio")
	// ErrListenTimeout means no phrase started within the listen window
	ErrListenTimeout = errors.New("listening timed out while waiting for phrase to start")
	// ErrProfileNotFound means no business profile has been stored yet
	ErrProfileNotFound = errors.New("business profile not found")
	// ErrDeviceNotFound means the device is not registered
	ErrDeviceNotFound = errors.New("device not found")
	// ErrInvalidCredentials means the device secret did not match
	ErrInvalidCredentials = errors.New("invalid credentials")
)
