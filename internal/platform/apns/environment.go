// --- File: internal/platform/apns/environment.go ---
// Package apns provides the certificate-authenticated client for the Apple Push
// Notification Service.
package apns

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/sideshow/apns2"
)

// Environment selects which APNs gateway a connection talks to.
type Environment int

const (
	// Sandbox is Apple's development gateway.
	Sandbox Environment = iota
	// Production is the gateway for App Store and TestFlight builds.
	Production
)

const (
	// StandardPort is the default HTTPS port for the APNs gateway.
	StandardPort = 443
	// AlternatePort is the port Apple keeps open for networks that block 443.
	AlternatePort = 2197
)

func (e Environment) String() string {
	switch e {
	case Sandbox:
		return "sandbox"
	case Production:
		return "production"
	default:
		return fmt.Sprintf("Environment(%d)", int(e))
	}
}

// ParseEnvironment maps a config value onto an Environment.
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sandbox", "development":
		return Sandbox, nil
	case "production":
		return Production, nil
	default:
		return Sandbox, fmt.Errorf("unknown apns environment %q", s)
	}
}

// Endpoint is a resolved gateway host and port.
type Endpoint struct {
	Host string
	Port int
}

// URL renders the endpoint in the form apns2.Client expects for its Host field.
func (e Endpoint) URL() string {
	return "https://" + e.Host + ":" + strconv.Itoa(e.Port)
}

// EndpointFor returns the gateway endpoint for env. The alternate port is applied the
// same way in both environments.
func EndpointFor(env Environment, useAlternatePort bool) Endpoint {
	host := hostOf(apns2.HostDevelopment)
	if env == Production {
		host = hostOf(apns2.HostProduction)
	}
	port := StandardPort
	if useAlternatePort {
		port = AlternatePort
	}
	return Endpoint{Host: host, Port: port}
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return strings.TrimPrefix(raw, "https://")
	}
	return u.Hostname()
}

// Target tells a Channel which gateway a single push is routed to.
type Target int

const (
	// TargetProduction routes to api.push.apple.com.
	TargetProduction Target = iota
	// TargetDevelopment routes to api.sandbox.push.apple.com.
	TargetDevelopment
)

func (t Target) String() string {
	if t == TargetProduction {
		return "production"
	}
	return "development"
}

// TargetFor routes every non-production environment to the development gateway.
func TargetFor(env Environment) Target {
	if env == Production {
		return TargetProduction
	}
	return TargetDevelopment
}

// environmentMarkers pins certificates whose common name carries a marker to a single
// environment. Checked in order.
var environmentMarkers = []struct {
	marker string
	env    Environment
}{
	{marker: "Development", env: Sandbox},
	{marker: "Production", env: Production},
}
