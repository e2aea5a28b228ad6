// Package platform surfaces host state the shell reports on: wall
// clock, battery, storage, network interfaces and USB. Readings come
// from gopsutil where the host exposes them; hosts without a sensor
// degrade to Unsupported rather than failing the caller.
package platform

import (
	"fmt"
	"net"
	"time"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"

	"gitlab.com/tinyland/lab/oasis/pkg/fault"
)

// PowerStatus is a battery snapshot.
type PowerStatus struct {
	Percent  int
	Charging bool
}

// StorageStatus is a disk usage snapshot for the storage root.
type StorageStatus struct {
	TotalBytes uint64
	FreeBytes  uint64
}

// NetStatus describes host connectivity.
type NetStatus struct {
	Connected bool
	Interface string
	Address   string
}

// Services is the platform read surface handed to commands and the
// status bar. Implementations must be cheap enough to call per frame.
type Services interface {
	Now() time.Time
	Uptime() time.Duration
	Power() (PowerStatus, error)
	Storage(path string) (StorageStatus, error)
	Net() (NetStatus, error)
	USBConnected() bool
}

// HostServices reads real host state via gopsutil and the net stdlib.
type HostServices struct {
	started time.Time
}

// NewHostServices returns platform services anchored at boot time.
func NewHostServices() *HostServices {
	return &HostServices{started: time.Now()}
}

// Now returns the current wall-clock time.
func (h *HostServices) Now() time.Time { return time.Now() }

// Uptime reports host uptime, falling back to runtime uptime when the
// host does not expose one.
func (h *HostServices) Uptime() time.Duration {
	if secs, err := host.Uptime(); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return time.Since(h.started)
}

// Power reads battery state. gopsutil has no portable battery reader,
// so the default desktop host reports Unsupported; handheld hosts
// install their own Services implementation.
func (h *HostServices) Power() (PowerStatus, error) {
	return PowerStatus{}, fault.New(fault.Unsupported, "no battery sensor")
}

// Storage reports disk usage for the file system holding path.
func (h *HostServices) Storage(path string) (StorageStatus, error) {
	u, err := disk.Usage(path)
	if err != nil {
		return StorageStatus{}, fault.Wrap(fault.Io, "disk usage", err)
	}
	return StorageStatus{TotalBytes: u.Total, FreeBytes: u.Free}, nil
}

// Net reports the first non-loopback interface that is up.
func (h *HostServices) Net() (NetStatus, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return NetStatus{}, fault.Wrap(fault.Io, "interfaces", err)
	}
	for _, ifc := range ifaces {
		if ifc.Flags&net.FlagUp == 0 || ifc.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := ifc.Addrs()
		if err != nil || len(addrs) == 0 {
			continue
		}
		return NetStatus{Connected: true, Interface: ifc.Name, Address: addrs[0].String()}, nil
	}
	return NetStatus{Connected: false}, nil
}

// USBConnected reports USB link state; desktop hosts have none.
func (h *HostServices) USBConnected() bool { return false }

// FixedServices is the deterministic implementation used by tests and
// constrained hosts: everything is set at construction.
type FixedServices struct {
	Time     time.Time
	Up       time.Duration
	Battery  PowerStatus
	HasBatt  bool
	Disk     StorageStatus
	NetState NetStatus
	USB      bool
}

func (f *FixedServices) Now() time.Time        { return f.Time }
func (f *FixedServices) Uptime() time.Duration { return f.Up }

// Power reports the configured battery, or Unsupported without one.
func (f *FixedServices) Power() (PowerStatus, error) {
	if !f.HasBatt {
		return PowerStatus{}, fault.New(fault.Unsupported, "no battery sensor")
	}
	return f.Battery, nil
}

func (f *FixedServices) Storage(string) (StorageStatus, error) { return f.Disk, nil }
func (f *FixedServices) Net() (NetStatus, error)               { return f.NetState, nil }
func (f *FixedServices) USBConnected() bool                    { return f.USB }

// FormatBytes renders a byte count in binary units, df-style.
func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := uint64(unit), 0
	for u := n / unit; u >= unit; u /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%c", float64(n)/float64(div), "KMGTPE"[exp])
}
