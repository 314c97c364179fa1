package models

import (
	"fmt"
	"strings"

	"deepscan/internal/services"
)

// Device names where inference is placed.
type Device string

const (
	DeviceCPU  Device = "cpu"
	DeviceCUDA Device = "cuda"
)

// ParseDevice accepts "cpu" or "cuda" in any case.
func ParseDevice(value string) (Device, error) {
	switch d := Device(strings.ToLower(strings.TrimSpace(value))); d {
	case DeviceCPU, DeviceCUDA:
		return d, nil
	case "":
		return DeviceCPU, nil
	default:
		return "", services.Wrap(services.ErrValidation, "models", "device", fmt.Sprintf("unknown device %q", value), nil)
	}
}

func (d Device) String() string { return string(d) }
