package printer

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

var (
	darwinPortPatterns = []string{"/dev/cu.*", "/dev/tty.*"}
	linuxPortPatterns  = []string{"/dev/ttyUSB*", "/dev/ttyACM*", "/dev/ttyS*"}
	// darwinSkip filters out ports that are never printers.
	darwinSkip = []string{"Bluetooth", "debug-console", "KeySerial"}
)

// SerialPorts lists candidate serial printer devices for this platform.
// On Windows, where ports cannot be globbed, COM1..COM16 are returned.
func SerialPorts() []string {
	switch runtime.GOOS {
	case "darwin":
		return globPorts(darwinPortPatterns, darwinSkip)
	case "windows":
		ports := make([]string, 0, 16)
		for i := 1; i <= 16; i++ {
			ports = append(ports, fmt.Sprintf("COM%d", i))
		}
		return ports
	default:
		return globPorts(linuxPortPatterns, nil)
	}
}

func globPorts(patterns, skip []string) []string {
	var ports []string
	for _, pattern := range patterns {
		matches, _ := filepath.Glob(pattern)
		for _, match := range matches {
			if !skipped(match, skip) {
				ports = append(ports, match)
			}
		}
	}
	sort.Strings(ports)
	return ports
}

func skipped(port string, skip []string) bool {
	for _, s := range skip {
		if strings.Contains(port, s) {
			return true
		}
	}
	return false
}
