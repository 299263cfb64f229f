//go:build !linux

package gpio

import (
	"errors"

	"github.com/sirupsen/logrus"
)

// DefaultChip is the GPIO character device used when none is configured.
const DefaultChip = "gpiochip0"

// Cdev is only available on Linux.
type Cdev struct {
	Chip   string
	Logger *logrus.Logger
}

var _ Opener = Cdev{}

func (Cdev) Open(pin int) (Line, error) {
	return nil, errors.New("gpio character device requires linux")
}
