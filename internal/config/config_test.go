package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func env(m map[string]string) lookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	c, err := parse(nil, env(map[string]string{"HR_DSN": "postgres://x"}))
	require.NoError(t, err)
	require.Equal(t, ":8080", c.Addr)
	require.Equal(t, 5*time.Minute, c.TokenGrace)
	require.Equal(t, 30*time.Second, c.TokenCacheTTL)
	require.Equal(t, "tickets.lifecycle", c.EventsQueue)
	require.True(t, c.AllowEmployeeSignup)
	require.Empty(t, c.RedisAddr)
	require.Empty(t, c.AMQPURL)
}

func TestParse_FlagsOverrideEnv(t *testing.T) {
	t.Parallel()

	c, err := parse(
		[]string{"--addr", ":9000", "--token-grace", "1m", "--allow-employee-signup=false"},
		env(map[string]string{"HR_DSN": "postgres://x", "HR_ADDR": ":7000", "HR_TOKEN_GRACE": "2m", "HR_REDIS_DB": "3"}),
	)
	require.NoError(t, err)
	require.Equal(t, ":9000", c.Addr)
	require.Equal(t, time.Minute, c.TokenGrace)
	require.False(t, c.AllowEmployeeSignup)
	require.Equal(t, 3, c.RedisDB)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	_, err := parse(nil, env(nil))
	require.ErrorContains(t, err, "dsn is required")

	_, err = parse(nil, env(map[string]string{"HR_DSN": "x", "HR_TOKEN_GRACE": "soon", "HR_DEV": "maybe"}))
	require.ErrorContains(t, err, "HR_TOKEN_GRACE")
	require.ErrorContains(t, err, "HR_DEV")

	_, err = parse([]string{"--request-timeout", "-1s"}, env(map[string]string{"HR_DSN": "x"}))
	require.ErrorContains(t, err, "negative")

	_, err = parse([]string{"--bogus"}, env(map[string]string{"HR_DSN": "x"}))
	require.Error(t, err)
}

func TestLoad_DotEnv(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("HR_DSN=postgres://from-file\nHR_EVENTS_QUEUE=q.test\n"), 0o600))

	c, err := Load(nil, path)
	require.NoError(t, err)
	require.Equal(t, "postgres://from-file", c.DSN)
	require.Equal(t, "q.test", c.EventsQueue)

	_, err = Load([]string{"--dsn", "x"}, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
}
