package hardware

import (
	"fmt"
	"strings"
)

// Platform identifies the board gpio-interrupt is running on.
//
// Only the first four platforms have a known button pin. The others are
// recognised so diagnostics can name the board, but PinFor rejects them.
type Platform int

const (
	Unknown Platform = iota
	GalileoGen1
	GalileoGen2
	EdisonFabC
	GTTuchuck
	RaspberryPi
	BeagleBone
)

var platformNames = map[Platform]string{
	Unknown:     "unknown",
	GalileoGen1: "Intel Galileo Gen 1",
	GalileoGen2: "Intel Galileo Gen 2",
	EdisonFabC:  "Intel Edison (FAB C)",
	GTTuchuck:   "Intel Grosse Tete (Tuchuck)",
	RaspberryPi: "Raspberry Pi",
	BeagleBone:  "BeagleBone",
}

func (p Platform) String() string {
	if name, ok := platformNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Platform(%d)", int(p))
}

// buttonPins maps each supported platform to the GPIO the button or touch
// sensor is wired to. Boards with a Grove base shield use header D4, the
// Grosse Tete uses pin 1 of its first breakout.
var buttonPins = map[Platform]int{
	GalileoGen1: 4,
	GalileoGen2: 4,
	EdisonFabC:  4,
	GTTuchuck:   1,
}

type ErrUnsupportedPlatform struct {
	error
}

func (err ErrUnsupportedPlatform) Is(target error) bool {
	_, ok := target.(ErrUnsupportedPlatform)
	return ok
}

// PinFor returns the input pin to watch on platform p. If p has no known pin,
// it returns an ErrUnsupportedPlatform error.
func PinFor(p Platform) (int, error) {
	pin, ok := buttonPins[p]
	if !ok {
		return 0, ErrUnsupportedPlatform{fmt.Errorf("platform %q is not supported", p)}
	}

	return pin, nil
}

// ParsePlatform returns the platform with the given name. Both the String
// form and the Go constant name are accepted, case insensitively.
func ParsePlatform(name string) (Platform, error) {
	for p, s := range platformNames {
		if strings.EqualFold(name, s) || strings.EqualFold(name, constantNames[p]) {
			return p, nil
		}
	}

	return Unknown, fmt.Errorf("unknown platform %q", name)
}

var constantNames = map[Platform]string{
	Unknown:     "Unknown",
	GalileoGen1: "GalileoGen1",
	GalileoGen2: "GalileoGen2",
	EdisonFabC:  "EdisonFabC",
	GTTuchuck:   "GTTuchuck",
	RaspberryPi: "RaspberryPi",
	BeagleBone:  "BeagleBone",
}
