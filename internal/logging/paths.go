package logging

import (
	"os"

	"github.com/Ryan-gw-park/local-file-search/internal/paths"
)

// DefaultLogPath returns the default debug-log path under the resolved
// app-data layout, falling back to the OS temp directory if the layout
// cannot be resolved (e.g. no home directory available).
func DefaultLogPath() string {
	layout, err := paths.Default()
	if err != nil {
		return os.TempDir() + "/LocalFinderX-debug.log"
	}
	return layout.LogsDir() + "/debug.log"
}

// EnsureLogDir creates the log directory if it doesn't exist.
func EnsureLogDir() error {
	layout, err := paths.Default()
	if err != nil {
		return err
	}
	return layout.EnsureDirs()
}
