package platform

import (
	"fmt"
	"strings"
)

// Icon categories understood by the download page.
const (
	IconWindows = "windows"
	IconMacOS   = "macos"
	IconLinux   = "linux"
)

// Platform represents a target platform an application is built for.
// Suffix is both the tail of the artifact filename and the lookup key in a
// manifest's files mapping.
type Platform struct {
	Name        string `yaml:"name" json:"name"`
	Suffix      string `yaml:"suffix" json:"suffix"`
	Description string `yaml:"description" json:"description"`
	Icon        string `yaml:"icon" json:"icon"`
}

// PredefinedPlatforms returns the platforms the checker apps are released for
func PredefinedPlatforms() []Platform {
	return []Platform{
		{Name: "Windows x64", Suffix: "windows-x64.exe", Description: "For 64-bit Windows systems", Icon: IconWindows},
		{Name: "Windows ARM64", Suffix: "windows-arm64.exe", Description: "For ARM64 Windows systems", Icon: IconWindows},
		{Name: "macOS ARM64", Suffix: "macos-arm64.dmg", Description: "For Apple Silicon (M1/M2/M3)", Icon: IconMacOS},
		{Name: "macOS x64", Suffix: "macos-x64.dmg", Description: "For Intel-based Macs", Icon: IconMacOS},
		{Name: "Linux x64", Suffix: "linux-x64", Description: "For 64-bit Linux systems", Icon: IconLinux},
	}
}

// KnownIcon reports whether icon is one of the supported icon categories.
func KnownIcon(icon string) bool {
	switch icon {
	case IconWindows, IconMacOS, IconLinux:
		return true
	default:
		return false
	}
}

// FindPlatform finds a platform by its suffix in the given set.
// The match also accepts the suffix without its file extension ("windows-x64").
func FindPlatform(platforms []Platform, suffix string) (Platform, error) {
	for _, p := range platforms {
		if p.Suffix == suffix {
			return p, nil
		}
	}

	for _, p := range platforms {
		if trimExtension(p.Suffix) == suffix {
			return p, nil
		}
	}

	return Platform{}, fmt.Errorf("unknown platform: %s", suffix)
}

// ResolvePlatforms narrows the configured platforms to the ones named by flags.
// No flags or "all" keeps every configured platform. Order follows the
// configured order, not the flag order.
func ResolvePlatforms(configured []Platform, platformFlags []string) ([]Platform, error) {
	if len(platformFlags) == 0 {
		return configured, nil
	}

	for _, flag := range platformFlags {
		if strings.ToLower(flag) == "all" {
			return configured, nil
		}
	}

	wanted := make(map[string]bool, len(platformFlags))
	for _, flag := range platformFlags {
		p, err := FindPlatform(configured, flag)
		if err != nil {
			return nil, fmt.Errorf("invalid platform: %s", flag)
		}
		wanted[p.Suffix] = true
	}

	var result []Platform
	for _, p := range configured {
		if wanted[p.Suffix] {
			result = append(result, p)
		}
	}
	return result, nil
}

// trimExtension strips a trailing ".exe" or ".dmg" style extension.
func trimExtension(suffix string) string {
	if i := strings.LastIndex(suffix, "."); i > 0 {
		return suffix[:i]
	}
	return suffix
}
