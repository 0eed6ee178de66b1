// Package config handles configuration loading and validation for the
// timestamp proof engine and its command-line front end.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// PlatformDataDir returns the platform-specific data directory used for
// receipts, calendar cooldown state, and the on-disk verified-block cache.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/otsproof/
//   - Linux:   ~/.local/share/otsproof/ (or $XDG_DATA_HOME/otsproof)
//   - Windows: %APPDATA%\otsproof\
//
// Falls back to ~/.otsproof if platform detection fails.
func PlatformDataDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return fallbackDataDir()
		}
		return filepath.Join(home, "Library", "Application Support", "otsproof")
	case "linux":
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "otsproof")
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return fallbackDataDir()
		}
		return filepath.Join(home, ".local", "share", "otsproof")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "otsproof")
		}
		return fallbackDataDir()
	default:
		return fallbackDataDir()
	}
}

// PlatformConfigDir returns the platform-specific configuration directory.
func PlatformConfigDir() string {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "otsproof")
		}
	}
	return PlatformDataDir()
}

func fallbackDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".otsproof"
	}
	return filepath.Join(home, ".otsproof")
}

// DefaultCalendars is the default set of OpenTimestamps calendar servers,
// following the pool used by the reference client.
func DefaultCalendars() []string {
	return []string{
		"https://a.pool.opentimestamps.org",
		"https://b.pool.opentimestamps.org",
		"https://a.pool.eternitywall.com",
	}
}

// DefaultBitcoinExplorers is the default block-explorer fallback list for
// Bitcoin attestation verification when no full-node RPC is configured.
func DefaultBitcoinExplorers() []string {
	return []string{
		"https://blockstream.info/api",
		"https://mempool.space/api",
	}
}

// DefaultLitecoinExplorers is the default block-explorer fallback list for
// Litecoin attestation verification.
func DefaultLitecoinExplorers() []string {
	return []string{
		"https://litecoinspace.org/api",
	}
}

// DefaultEthereumExplorers is the default explorer fallback list for
// Ethereum attestation verification when no JSON-RPC endpoint is configured.
func DefaultEthereumExplorers() []string {
	return []string{
		"https://api.etherscan.io/api",
	}
}
