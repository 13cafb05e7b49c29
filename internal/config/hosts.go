package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// DefaultHost is the host preset used when none is configured
const DefaultHost = "github"

// HostConfig holds the endpoint URLs for a GitHub installation
type HostConfig struct {
	APIBase       string
	WebBase       string
	DeviceAuthURL string
	TokenURL      string
}

// Hosts maps preset names to their endpoint configurations
var Hosts = map[string]HostConfig{
	"github": {
		APIBase:       "https://api.github.com",
		WebBase:       "https://github.com",
		DeviceAuthURL: "https://github.com/login/device/code",
		TokenURL:      "https://github.com/login/oauth/access_token",
	},
}

// GetHost returns the endpoints for a preset name, a GitHub Enterprise
// Server hostname, or an explicit http(s) API base URL.
func GetHost(name string) (HostConfig, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultHost
	}
	if cfg, ok := Hosts[name]; ok {
		return cfg, nil
	}
	if name == "github.com" || name == "api.github.com" {
		return Hosts[DefaultHost], nil
	}

	// Explicit API base, e.g. http://127.0.0.1:8080 in tests
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		u, err := url.Parse(name)
		if err != nil || u.Host == "" {
			return HostConfig{}, fmt.Errorf("unknown host: %s", name)
		}
		base := strings.TrimSuffix(name, "/")
		web := u.Scheme + "://" + u.Host
		return HostConfig{
			APIBase:       base,
			WebBase:       web,
			DeviceAuthURL: web + "/login/device/code",
			TokenURL:      web + "/login/oauth/access_token",
		}, nil
	}

	if strings.ContainsAny(name, "/ ") || !strings.Contains(name, ".") {
		return HostConfig{}, fmt.Errorf("unknown host: %s", name)
	}

	// GitHub Enterprise Server
	web := "https://" + name
	return HostConfig{
		APIBase:       web + "/api/v3",
		WebBase:       web,
		DeviceAuthURL: web + "/login/device/code",
		TokenURL:      web + "/login/oauth/access_token",
	}, nil
}

// ValidHosts returns a sorted list of host presets
func ValidHosts() []string {
	hosts := make([]string, 0, len(Hosts))
	for name := range Hosts {
		hosts = append(hosts, name)
	}
	sort.Strings(hosts)
	return hosts
}
