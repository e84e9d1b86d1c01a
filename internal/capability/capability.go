// Package capability detects the hardware envelope of the current device
// and maps it to a capability tier. Detection is best-effort: anything that
// cannot be read degrades toward the Base tier rather than erroring.
package capability

import (
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/mindsage-labs/mindsage-cli/internal/core/domain"
	"github.com/mindsage-labs/mindsage-cli/internal/logger"
)

// Device describes the discovered hardware capabilities.
type Device struct {
	// TotalRAMBytes is total system memory.
	TotalRAMBytes uint64

	// AvailableRAMBytes is currently available memory.
	AvailableRAMBytes uint64

	// CPUCores is the logical core count.
	CPUCores int

	// HasGPU reports whether a CUDA-capable GPU device node is present.
	HasGPU bool

	// IsJetson reports whether this is a Jetson board (shared CPU/GPU memory).
	IsJetson bool

	// Tier is the derived capability tier.
	Tier domain.CapabilityTier
}

// Discover probes the current system and classifies it into a tier.
func Discover() Device {
	d := Device{
		TotalRAMBytes:     totalRAM(),
		AvailableRAMBytes: availableRAM(),
		CPUCores:          runtime.NumCPU(),
		IsJetson:          detectJetson(),
		HasGPU:            detectGPU(),
	}
	d.Tier = classify(d.TotalRAMBytes, d.CPUCores, d.HasGPU, d.IsJetson)

	logger.Debug("Capability: ram=%dMB cores=%d gpu=%t jetson=%t tier=%s",
		d.TotalRAMBytes/(1024*1024), d.CPUCores, d.HasGPU, d.IsJetson, d.Tier)
	return d
}

// classify maps hardware facts onto a tier.
func classify(totalRAM uint64, cores int, hasGPU, isJetson bool) domain.CapabilityTier {
	ramGB := float64(totalRAM) / (1024 * 1024 * 1024)

	switch {
	case isJetson || (hasGPU && ramGB >= 6.0):
		// Jetson Orin class (~8GB shared) or a decent discrete GPU.
		return domain.TierFull
	case hasGPU && ramGB >= 4.0:
		return domain.TierAdvanced
	case ramGB >= 2.0 && cores >= 2:
		return domain.TierEnhanced
	default:
		return domain.TierBase
	}
}

// totalRAM reads MemTotal from /proc/meminfo. Returns 0 when unreadable.
func totalRAM() uint64 {
	return meminfoField("MemTotal:")
}

// availableRAM reads MemAvailable from /proc/meminfo. Returns 0 when unreadable.
func availableRAM() uint64 {
	return meminfoField("MemAvailable:")
}

func meminfoField(prefix string) uint64 {
	data, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0
		}
		return kb * 1024
	}
	return 0
}

// detectJetson checks for Tegra release markers.
func detectJetson() bool {
	if _, err := os.Stat("/etc/nv_tegra_release"); err == nil {
		return true
	}
	if model, err := os.ReadFile("/proc/device-tree/model"); err == nil {
		return strings.Contains(strings.ToLower(string(model)), "jetson")
	}
	return false
}

// detectGPU checks for NVIDIA device nodes (discrete or Jetson).
func detectGPU() bool {
	for _, dev := range []string{"/dev/nvidia0", "/dev/nvhost-gpu"} {
		if _, err := os.Stat(dev); err == nil {
			return true
		}
	}
	return false
}
