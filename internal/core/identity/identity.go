// Package identity assembles the panel's stable identity: the operator
// panel id, the scan interface MAC, and the derived remote-tree key and
// login credential
package identity

import (
	"fmt"
	"net"
	"strings"

	perr "footfall/internal/platform/errors"
	"footfall/internal/platform/validate"
)

// accessDomain hosts the per-panel login users provisioned for the fleet
const accessDomain = "panels.footfall.dev"

// pathUnsafe lists runes the remote tree rejects in a key segment
const pathUnsafe = ".#$[]/ \t"

// UnknownMAC stands in when the scan interface exposes no hardware address
// (replay captures, containers)
const UnknownMAC = "000000000000"

func init() {
	_ = validate.RegisterValidation("pathkey", func(fl validate.FieldLevel) bool {
		s := fl.Field().String()
		return s != "" && !strings.ContainsAny(s, pathUnsafe)
	})
}

// Device is the panel identity, assembled once at bring-up and treated as
// read-only afterwards
type Device struct {
	PanelID  string `json:"panel_id"    validate:"required,max=32,pathkey"`
	Name     string `json:"device_name" validate:"required,max=64"`
	MAC      string `json:"mac_address" validate:"required,len=12,hexadecimal"`
	Firmware string `json:"firmware"    validate:"required"`
}

// Validate reports the first field that would break a remote path or the
// published device document
func (d Device) Validate() error { return validate.Struct(d) }

// DeviceID returns the remote-tree key for this panel
func (d Device) DeviceID() string { return "panel-" + d.PanelID }

// AccessEmail derives the per-panel login from the device id. Used when no
// explicit credential is configured
func (d Device) AccessEmail() string {
	return strings.ToLower(d.DeviceID()) + "@" + accessDomain
}

// DefaultName is the display name used when the operator configures none
func DefaultName(panelID string) string {
	return "Digital Billboard #" + panelID
}

// InterfaceMAC reads the hardware address of the named interface and renders
// it uppercase without separators, matching the published mac_address form
func InterfaceMAC(name string) (string, error) {
	ifc, err := net.InterfaceByName(name)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeIO, "read mac for %s", name)
	}
	return FormatMAC(ifc.HardwareAddr), nil
}

// FormatMAC renders a hardware address as uppercase hex without separators.
// A nil or empty address renders as UnknownMAC
func FormatMAC(hw net.HardwareAddr) string {
	if len(hw) == 0 {
		return UnknownMAC
	}
	var b strings.Builder
	b.Grow(len(hw) * 2)
	for _, octet := range hw {
		fmt.Fprintf(&b, "%02X", octet)
	}
	return b.String()
}
