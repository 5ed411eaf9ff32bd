package facts

import (
	"context"
	"runtime"
)

// gatherPlatform reports the machine's architecture and the frog-agent
// runtime's own implementation details, replacing the original's
// platform.machine()/platform.processor() and python.implementation
// fields with Go's runtime package equivalents.
func gatherPlatform(ctx context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{
		"platform": map[string]interface{}{
			"architecture": runtime.GOARCH,
			"machine":      runtime.GOARCH,
			"system":       runtime.GOOS,
			"runtime": map[string]interface{}{
				"implementation": "go",
				"version":        runtime.Version(),
			},
		},
	}, nil
}
