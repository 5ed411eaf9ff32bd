package facts

import (
	"context"
	"net"
)

// gatherNetwork enumerates network interfaces and their addresses,
// replacing the original's netifaces-based walk with the standard
// library's net package.
func gatherNetwork(ctx context.Context) (map[string]interface{}, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	perInterface := make(map[string]interface{}, len(ifaces))
	names := make([]string, 0, len(ifaces))

	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		var ipv4, ipv6 []string
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			if ipNet.IP.To4() != nil {
				ipv4 = append(ipv4, ipNet.IP.String())
			} else {
				ipv6 = append(ipv6, ipNet.IP.String())
			}
		}

		perInterface[iface.Name] = map[string]interface{}{
			"ipv4": ipv4,
			"ipv6": ipv6,
		}
		names = append(names, iface.Name)
	}

	return map[string]interface{}{
		"network": map[string]interface{}{
			"interface":  perInterface,
			"interfaces": names,
		},
	}, nil
}
