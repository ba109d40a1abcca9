package identity

import (
	"net"
	"testing"

	perr "footfall/internal/platform/errors"
)

func validDevice() Device {
	return Device{
		PanelID:  "PNL04",
		Name:     DefaultName("PNL04"),
		MAC:      "A1B2C3D4E5F6",
		Firmware: "1.0.0",
	}
}

func TestDeviceID_AndAccessEmail(t *testing.T) {
	d := validDevice()
	if got := d.DeviceID(); got != "panel-PNL04" {
		t.Fatalf("DeviceID = %q, want %q", got, "panel-PNL04")
	}
	if got := d.AccessEmail(); got != "panel-pnl04@panels.footfall.dev" {
		t.Fatalf("AccessEmail = %q, want %q", got, "panel-pnl04@panels.footfall.dev")
	}
}

func TestDefaultName(t *testing.T) {
	if got := DefaultName("7"); got != "Digital Billboard #7" {
		t.Fatalf("DefaultName = %q", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Device)
		field  string // empty means valid
	}{
		{name: "valid", mutate: func(*Device) {}},
		{name: "missing panel id", mutate: func(d *Device) { d.PanelID = "" }, field: "panel_id"},
		{name: "path unsafe panel id", mutate: func(d *Device) { d.PanelID = "a/b" }, field: "panel_id"},
		{name: "dotted panel id", mutate: func(d *Device) { d.PanelID = "p.7" }, field: "panel_id"},
		{name: "short mac", mutate: func(d *Device) { d.MAC = "A1B2C3" }, field: "mac_address"},
		{name: "non hex mac", mutate: func(d *Device) { d.MAC = "ZZB2C3D4E5F6" }, field: "mac_address"},
		{name: "missing name", mutate: func(d *Device) { d.Name = "" }, field: "device_name"},
		{name: "missing firmware", mutate: func(d *Device) { d.Firmware = "" }, field: "firmware"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			d := validDevice()
			tc.mutate(&d)
			err := d.Validate()
			if tc.field == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want %s failure", tc.field)
			}
			if !perr.IsCode(err, perr.ErrorCodeValidation) {
				t.Fatalf("code = %v, want Validation", perr.CodeOf(err))
			}
			pe, ok := perr.As(err)
			if !ok {
				t.Fatalf("not a project error: %v", err)
			}
			if pe.Field() != tc.field {
				t.Fatalf("field = %q, want %q (err %v)", pe.Field(), tc.field, err)
			}
		})
	}
}

func TestFormatMAC(t *testing.T) {
	hw := net.HardwareAddr{0xA1, 0xB2, 0xC3, 0xD4, 0xE5, 0xF6}
	if got := FormatMAC(hw); got != "A1B2C3D4E5F6" {
		t.Fatalf("FormatMAC = %q", got)
	}
	if got := FormatMAC(nil); got != UnknownMAC {
		t.Fatalf("FormatMAC(nil) = %q, want %q", got, UnknownMAC)
	}
}

func TestInterfaceMAC_UnknownInterface(t *testing.T) {
	_, err := InterfaceMAC("footfall-test-no-such-iface")
	if err == nil {
		t.Fatal("expected error for unknown interface")
	}
	if !perr.IsCode(err, perr.ErrorCodeIO) {
		t.Fatalf("code = %v, want IO", perr.CodeOf(err))
	}
}
