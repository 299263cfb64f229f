package hardware

import (
	"os"
	"strings"

	"periph.io/x/host/v3/distro"
)

// dmiBoardName holds the board name on x86 boards with SMBIOS tables.
const dmiBoardName = "/sys/devices/virtual/dmi/id/board_name"

// Detect identifies the running platform. x86 boards are identified by their
// DMI board name and ARM boards by their device tree model. If neither source
// is readable, Detect returns Unknown.
func Detect() Platform {
	return identify(readBoardName(dmiBoardName), distro.DTModel())
}

func readBoardName(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

// identify maps a DMI board name and a device tree model to a Platform.
func identify(boardName, dtModel string) Platform {
	switch {
	// GalileoGen2 contains Galileo, so it has to be matched first.
	case strings.Contains(boardName, "GalileoGen2"):
		return GalileoGen2
	case strings.Contains(boardName, "Galileo"):
		return GalileoGen1
	case boardName == "BODEGA BAY", boardName == "SALT BAY":
		return EdisonFabC
	case strings.Contains(boardName, "Tuchuck"):
		return GTTuchuck
	case strings.HasPrefix(dtModel, "Raspberry Pi"):
		return RaspberryPi
	case strings.Contains(dtModel, "BeagleBone"):
		return BeagleBone
	}

	return Unknown
}
