package controller

import "errors"

var (
	// ErrInvalidRelayState is returned for a relay state other than on/off.
	ErrInvalidRelayState = errors.New("relay state must be 'on' or 'off'")

	// ErrInvalidDefaultState is returned for a default state other than on/off.
	ErrInvalidDefaultState = errors.New("default state must be 'on' or 'off'")

	// ErrEmptySSID is returned when saving Wi-Fi settings without an SSID.
	ErrEmptySSID = errors.New("SSID cannot be empty")

	// ErrFirmwareEmpty is returned for a zero-length firmware image.
	ErrFirmwareEmpty = errors.New("firmware image cannot be empty")

	// ErrFirmwareTooLarge is returned when an image exceeds the size limit.
	ErrFirmwareTooLarge = errors.New("firmware image exceeds size limit")
)
