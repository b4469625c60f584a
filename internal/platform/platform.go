// Package platform turns the host's raw OS and architecture names into a Key,
// and lets each tool translate that Key into its own artifact vocabulary.
package platform

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/host"

	"toolseed/internal/errs"
)

// Key identifies the host platform. OS is "linux" or "darwin"; Arch is what
// the kernel reports ("x86_64", "aarch64", "arm64", ...).
type Key struct {
	OS   string
	Arch string
}

func (k Key) String() string {
	return k.Arch + "-" + k.OS
}

var knownArch = map[string]bool{
	"x86_64":  true,
	"amd64":   true,
	"aarch64": true,
	"arm64":   true,
	"armv7l":  true,
	"i686":    true,
}

// Parse validates raw (os, arch) names as reported by uname.
// osName must be Linux or Darwin, compared case-insensitively.
func Parse(osName, archName string) (Key, error) {
	osLower := strings.ToLower(strings.TrimSpace(osName))
	arch := strings.ToLower(strings.TrimSpace(archName))

	if osLower != "linux" && osLower != "darwin" {
		return Key{}, unsupported(osName, archName)
	}
	if !knownArch[arch] {
		return Key{}, unsupported(osName, archName)
	}
	return Key{OS: osLower, Arch: arch}, nil
}

// Detect probes the host with gopsutil and parses the result. When the probe
// cannot report a kernel arch, the Go runtime's GOARCH is used instead.
func Detect(ctx context.Context) (Key, error) {
	osName := runtime.GOOS
	if info, err := host.InfoWithContext(ctx); err == nil && info.OS != "" {
		osName = info.OS
	}

	arch, err := host.KernelArch()
	if err != nil || arch == "" {
		if ctx.Err() != nil {
			return Key{}, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
		}
		arch = runtime.GOARCH
	}
	return Parse(osName, arch)
}

func unsupported(osName, archName string) error {
	return &errs.Error{
		Kind:     errs.UnsupportedPlatform,
		Platform: archName + "-" + osName,
		Err:      fmt.Errorf("unsupported platform os=%q arch=%q", osName, archName),
	}
}
