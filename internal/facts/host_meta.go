package facts

import (
	"context"
	"os"
	"regexp"
)

// hostnamePattern mirrors the original's verbose hostname regex, parsing
// names of the form "<app>-n<node>.<region><dc?>.<domain>", e.g.
// "web-n01.use1.example.com".
var hostnamePattern = regexp.MustCompile(`^(?P<app>[a-z_-]+)-n(?P<node>\d{2,})\.(?P<datacenter>(?P<region>[a-z]{3})\d?)\.(?P<domain>.+)$`)

func dataFromName(hostname string) map[string]interface{} {
	match := hostnamePattern.FindStringSubmatch(hostname)
	if match == nil {
		return map[string]interface{}{}
	}

	names := hostnamePattern.SubexpNames()
	groups := make(map[string]string, len(names))
	for i, name := range names {
		if name != "" {
			groups[name] = match[i]
		}
	}

	return map[string]interface{}{
		"app":           groups["app"],
		"node":          groups["node"],
		"datacenter":    groups["datacenter"],
		"region":        groups["region"],
		"parent_domain": groups["domain"],
	}
}

func gatherHostMeta(ctx context.Context) (map[string]interface{}, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, err
	}

	facts := map[string]interface{}{"fqdn": hostname}
	for k, v := range dataFromName(hostname) {
		facts[k] = v
	}
	return facts, nil
}
