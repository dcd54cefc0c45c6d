package indicator

import (
	"errors"

	"sensornode/internal/models"
)

// Device is anything that can show a pattern.
type Device interface {
	SetPattern(p models.IndicatorPattern) error
}

// Multi shows the same pattern on every device.
type Multi []Device

func (m Multi) SetPattern(p models.IndicatorPattern) error {
	var errs []error
	for _, d := range m {
		if d == nil {
			continue
		}
		if err := d.SetPattern(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
