package runtimecfg

import (
	"strings"
	"testing"

	"commoners/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolved() *config.ResolvedConfig {
	return &config.ResolvedConfig{
		Name:    "App",
		AppID:   "com.app.app",
		Version: "1.0.0",
		Services: map[string]*config.ResolvedService{
			"api": {
				Name:         "api",
				Src:          "/p/src/api.py",
				Launch:       "python /p/src/api.py",
				BuildCommand: "pyinstaller api.py",
				Port:         4000,
				Env:          map[string]string{"SECRET": "s3cr3t"},
			},
			"worker": {Name: "worker", Launch: "node w.js"},
		},
	}
}

func TestServices_OnlyEndpointMetadata(t *testing.T) {
	cfg := resolved()

	svcs := Services(cfg, map[string]int{"worker": 5123})
	assert.Equal(t, Service{URL: "http://localhost:4000", Port: 4000}, svcs["api"])
	assert.Equal(t, Service{URL: "http://localhost:5123", Port: 5123}, svcs["worker"])

	env, err := ServicesEnv(svcs)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(env, ServicesEnvVar+"="))
	for _, leaked := range []string{"s3cr3t", "pyinstaller", "api.py", "SECRET"} {
		assert.NotContains(t, env, leaked)
	}

	decoded, err := DecodeServices(strings.TrimPrefix(env, ServicesEnvVar+"="))
	require.NoError(t, err)
	assert.Equal(t, svcs, decoded)
}

func TestServices_UnknownPortHasNoURL(t *testing.T) {
	cfg := resolved()
	svcs := Services(cfg, nil)
	assert.Empty(t, svcs["worker"].URL)
}

func TestNew_NeverNilCollections(t *testing.T) {
	c := New(resolved(), "web", "linux", nil, nil)
	data, err := c.JSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"services": {}`)
	assert.Contains(t, string(data), `"plugins": []`)
}
