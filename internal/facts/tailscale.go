package facts

import (
	"context"
	"encoding/json"
	"os/exec"
)

// tailscaleStatus mirrors the subset of `tailscale status -self -json`
// the original parsed out of its Self entry.
type tailscaleStatus struct {
	Self struct {
		DNSName      string   `json:"DNSName"`
		TailscaleIPs []string `json:"TailscaleIPs"`
		Online       bool     `json:"Online"`
		Capabilities []string `json:"Capabilities"`
	} `json:"Self"`
	Version string `json:"Version"`
}

// gatherTailscale shells out to the tailscale CLI the same way the
// original used subprocess.check_output, returning an empty map (not an
// error) when the binary isn't installed or the daemon isn't running,
// mirroring the original's CalledProcessError-swallowing behavior.
func gatherTailscale(ctx context.Context) (map[string]interface{}, error) {
	binary, err := exec.LookPath("tailscale")
	if err != nil {
		return map[string]interface{}{}, nil
	}

	out, err := exec.CommandContext(ctx, binary, "status", "-self", "-json").Output()
	if err != nil {
		return map[string]interface{}{}, nil
	}

	var status tailscaleStatus
	if err := json.Unmarshal(out, &status); err != nil {
		return map[string]interface{}{}, nil
	}

	return map[string]interface{}{
		"tailscale": map[string]interface{}{
			"version":      status.Version,
			"online":       status.Self.Online,
			"capabilities": status.Self.Capabilities,
			"dns_name":     status.Self.DNSName,
			"addresses":    status.Self.TailscaleIPs,
		},
	}, nil
}
