package hardware

import (
	"fmt"

	"github.com/gloworm-vision/gpio-interrupt/hardware/gpio"
	"github.com/gloworm-vision/gpio-interrupt/hardware/gpio/gpiotest"
	"github.com/sirupsen/logrus"
)

// Backend names a GPIO driver.
type Backend string

const (
	Cdev   Backend = "cdev"
	Periph Backend = "periph"
	Pigpio Backend = "pigpio"
	Sim    Backend = "sim"
)

type Config struct {
	Backend Backend

	// Chip is the character device used by the cdev backend.
	Chip string

	// PigpioAddr is the pigpio daemon socket used by the pigpio backend.
	PigpioAddr string

	// Logger receives backend diagnostics, such as a lost edge stream.
	Logger *logrus.Logger
}

// New returns an opener for the configured backend. The returned opener may
// hold a connection; if it implements io.Closer the caller must close it.
func New(config Config) (gpio.Opener, error) {
	switch config.Backend {
	case Cdev, "":
		return gpio.Cdev{Chip: config.Chip, Logger: config.Logger}, nil
	case Periph:
		p, err := gpio.NewPeriph(config.Logger)
		if err != nil {
			return nil, fmt.Errorf("unable to setup periph gpio: %w", err)
		}
		return p, nil
	case Pigpio:
		p, err := gpio.DialPigpio(config.PigpioAddr)
		if err != nil {
			return nil, fmt.Errorf("unable to dial pigpio to setup gpio: %w", err)
		}
		p.Logger = config.Logger
		return p, nil
	case Sim:
		return &gpiotest.Sim{}, nil
	}

	return nil, fmt.Errorf("unknown gpio backend %q", config.Backend)
}
