package cryptobackend

import (
	"runtime"

	"golang.org/x/sys/cpu"

	"github.com/kenneth/git-cas/internal/config"
)

// HasAESHardwareSupport reports whether the running CPU offers AES
// instruction acceleration.
func HasAESHardwareSupport() bool {
	switch runtime.GOARCH {
	case "amd64", "386":
		return cpu.X86.HasAES
	case "arm64":
		return cpu.ARM64.HasAES
	case "s390x":
		return cpu.S390X.HasAES
	default:
		return false
	}
}

// IsHardwareAccelerationEnabled reports whether acceleration is both
// supported by the CPU and enabled in cfg.
func IsHardwareAccelerationEnabled(cfg config.HardwareConfig) bool {
	if !HasAESHardwareSupport() {
		return false
	}
	switch runtime.GOARCH {
	case "amd64", "386":
		return cfg.EnableAESNI
	case "arm64":
		return cfg.EnableARMv8AES
	default:
		return true
	}
}

// HardwareInfo summarizes the acceleration posture for diagnostics/metrics.
func HardwareInfo(cfg config.HardwareConfig) map[string]any {
	return map[string]any{
		"aes_hardware_support":         HasAESHardwareSupport(),
		"architecture":                 runtime.GOARCH,
		"goos":                         runtime.GOOS,
		"go_version":                   runtime.Version(),
		"aes_ni_enabled":               cfg.EnableAESNI,
		"armv8_aes_enabled":            cfg.EnableARMv8AES,
		"hardware_acceleration_active": IsHardwareAccelerationEnabled(cfg),
	}
}
