package apns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointFor(t *testing.T) {
	sandbox := EndpointFor(Sandbox, false)
	production := EndpointFor(Production, false)

	assert.Equal(t, "api.sandbox.push.apple.com", sandbox.Host)
	assert.Equal(t, "api.push.apple.com", production.Host)
	assert.Equal(t, StandardPort, sandbox.Port)
	assert.Equal(t, StandardPort, production.Port)

	t.Run("Alternate port applies to both environments", func(t *testing.T) {
		assert.Equal(t, Endpoint{Host: sandbox.Host, Port: AlternatePort}, EndpointFor(Sandbox, true))
		assert.Equal(t, Endpoint{Host: production.Host, Port: AlternatePort}, EndpointFor(Production, true))
	})

	t.Run("URL", func(t *testing.T) {
		assert.Equal(t, "https://api.push.apple.com:2197", EndpointFor(Production, true).URL())
	})
}

func TestTargetFor(t *testing.T) {
	assert.Equal(t, TargetProduction, TargetFor(Production))
	assert.Equal(t, TargetDevelopment, TargetFor(Sandbox))
	assert.Equal(t, TargetDevelopment, TargetFor(Environment(42)))
}

func TestParseEnvironment(t *testing.T) {
	for in, want := range map[string]Environment{
		"sandbox":     Sandbox,
		"Development": Sandbox,
		" PRODUCTION": Production,
	} {
		got, err := ParseEnvironment(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseEnvironment("staging")
	assert.Error(t, err)
}
