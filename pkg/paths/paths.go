package paths

import (
	"os"
)

// DataDirEnv overrides the data directory.
const DataDirEnv = "UNPACK_DATA_DIR"

// GetDataDir returns the data directory path
// If UNPACK_DATA_DIR is set, returns it
// If running in Docker (/.dockerenv exists), returns /app/data
// Otherwise returns current directory (.)
func GetDataDir() string {
	if dir := os.Getenv(DataDirEnv); dir != "" {
		return dir
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		// Running in Docker container
		return "/app/data"
	}
	return "."
}
