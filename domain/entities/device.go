package entities

import (
	"errors"
	"time"
)

// Device represents a voice device allowed to open a websocket session
type Device struct {
	ID           string    `json:"id"`
	SerialNumber string    `json:"serial_number"`
	Model        string    `json:"model"`
	CreatedAt    time.Time `json:"created_at"`
}

func (d *Device) Validate() error {
	if d.SerialNumber == "" {
		return errors.New("serial number is required")
	}
	return nil
}
