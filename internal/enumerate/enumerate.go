// Package enumerate discovers serial devices present on the host for
// the list_ports / list_ports_extended tools. Enumeration itself is
// named out of scope in the specification (a discovery function the
// core merely consumes); this package is the thin real implementation
// that satisfies that external contract on Linux.
package enumerate

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// PortInfo is one discovered device (§4.6 list_ports_extended).
type PortInfo struct {
	Name         string
	Manufacturer string
	VID          string
	PID          string
	Serial       string
}

// Enumerator discovers the serial devices currently present. The real
// implementation walks /dev for serial device nodes; tests substitute
// the fixed-list Static implementation.
type Enumerator interface {
	List() ([]PortInfo, error)
}

// Real lists /dev/ttyUSB*, /dev/ttyACM*, and /dev/ttyS* device nodes,
// enriching USB devices with VID/PID/manufacturer/serial sourced from
// sysfs when available.
type Real struct{}

var devPrefixes = []string{"ttyUSB", "ttyACM", "ttyS"}

func (Real) List() ([]PortInfo, error) {
	entries, err := os.ReadDir("/dev")
	if err != nil {
		return nil, err
	}
	var out []PortInfo
	for _, e := range entries {
		name := e.Name()
		for _, prefix := range devPrefixes {
			if strings.HasPrefix(name, prefix) {
				out = append(out, describe(name))
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func describe(name string) PortInfo {
	info := PortInfo{Name: filepath.Join("/dev", name)}
	// Built by concatenation, not filepath.Join, so "device/.." is
	// resolved through the symlink by the kernel instead of being
	// cleaned away. The USB device attributes sit one level above the
	// link target for ttyACM and two levels above it for ttyUSB.
	sysBase := "/sys/class/tty/" + name + "/device"
	for _, up := range []string{"/..", "/../.."} {
		usbDir := sysBase + up
		if vid := readSysfsHex(usbDir + "/idVendor"); vid != "" {
			info.VID = vid
			info.PID = readSysfsHex(usbDir + "/idProduct")
			info.Manufacturer = readSysfsString(usbDir + "/manufacturer")
			info.Serial = readSysfsString(usbDir + "/serial")
			break
		}
	}
	return info
}

func readSysfsString(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func readSysfsHex(path string) string {
	v := readSysfsString(path)
	if v == "" {
		return ""
	}
	return "0x" + v
}
