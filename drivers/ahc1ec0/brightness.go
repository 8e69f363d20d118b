package ahc1ec0

// Brightness reads the panel brightness byte from ACPI RAM.
func (d *Device) Brightness() (byte, error) {
	return d.ReadACPI(acpiBrightness)
}

// SetBrightness writes the panel brightness byte to ACPI RAM.
func (d *Device) SetBrightness(v byte) error {
	return d.WriteACPI(acpiBrightness, v)
}
