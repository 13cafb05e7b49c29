package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHost(t *testing.T) {
	for _, name := range []string{"", "github", "github.com", "api.github.com"} {
		t.Run("public_"+name, func(t *testing.T) {
			cfg, err := GetHost(name)
			require.NoError(t, err)
			assert.Equal(t, "https://api.github.com", cfg.APIBase)
			assert.Equal(t, "https://github.com/login/device/code", cfg.DeviceAuthURL)
		})
	}

	t.Run("enterprise hostname", func(t *testing.T) {
		cfg, err := GetHost("ghe.example.com")
		require.NoError(t, err)
		assert.Equal(t, "https://ghe.example.com/api/v3", cfg.APIBase)
		assert.Equal(t, "https://ghe.example.com", cfg.WebBase)
		assert.Equal(t, "https://ghe.example.com/login/oauth/access_token", cfg.TokenURL)
	})

	t.Run("explicit api base", func(t *testing.T) {
		cfg, err := GetHost("http://127.0.0.1:8080/")
		require.NoError(t, err)
		assert.Equal(t, "http://127.0.0.1:8080", cfg.APIBase)
		assert.Equal(t, "http://127.0.0.1:8080/login/device/code", cfg.DeviceAuthURL)
	})

	t.Run("invalid host returns error", func(t *testing.T) {
		for _, name := range []string{"nodots", "has space.com", "a/b.com", "http://"} {
			_, err := GetHost(name)
			assert.Error(t, err, name)
		}
	})
}

func TestValidHosts(t *testing.T) {
	assert.Equal(t, []string{"github"}, ValidHosts())
}
