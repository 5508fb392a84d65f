// Package config loads server settings from flags, the environment and an
// optional .env file, in that order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime settings of the server.
type Config struct {
	Addr string
	DSN  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AMQPURL     string
	EventsQueue string

	TokenGrace          time.Duration
	TokenCacheTTL       time.Duration
	AllowEmployeeSignup bool

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	Dev             bool
}

type lookupFunc func(key string) (string, bool)

// Load reads dotenvPath when it exists, then the process environment, then
// args. Values from the environment win over the file.
func Load(args []string, dotenvPath string) (Config, error) {
	file := map[string]string{}
	if dotenvPath != "" {
		m, err := godotenv.Read(dotenvPath)
		switch {
		case err == nil:
			file = m
		case !errors.Is(err, fs.ErrNotExist):
			return Config{}, fmt.Errorf("read %s: %w", dotenvPath, err)
		}
	}
	return parse(args, func(k string) (string, bool) {
		if v, ok := os.LookupEnv(k); ok {
			return v, true
		}
		v, ok := file[k]
		return v, ok
	})
}

// envDefaults collects env parsing errors so they are reported together.
type envDefaults struct {
	lookup lookupFunc
	errs   []error
}

func (e *envDefaults) str(key, def string) string {
	if v, ok := e.lookup(key); ok && v != "" {
		return v
	}
	return def
}

func (e *envDefaults) dur(key string, def time.Duration) time.Duration {
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (e *envDefaults) int(key string, def int) int {
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (e *envDefaults) bool(key string, def bool) bool {
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func parse(args []string, lookup lookupFunc) (Config, error) {
	env := &envDefaults{lookup: lookup}
	var c Config

	flags := flag.NewFlagSet("honeyrae", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.StringVar(&c.Addr, "addr", env.str("HR_ADDR", ":8080"), "listen address")
	flags.StringVar(&c.DSN, "dsn", env.str("HR_DSN", ""), "PostgreSQL DSN (required)")
	flags.StringVar(&c.RedisAddr, "redis-addr", env.str("HR_REDIS_ADDR", ""), "Redis address for the token cache (empty disables)")
	flags.StringVar(&c.RedisPassword, "redis-password", env.str("HR_REDIS_PASSWORD", ""), "Redis password")
	flags.IntVar(&c.RedisDB, "redis-db", env.int("HR_REDIS_DB", 0), "Redis database number")
	flags.StringVar(&c.AMQPURL, "amqp-url", env.str("HR_AMQP_URL", ""), "AMQP URL for ticket events (empty disables)")
	flags.StringVar(&c.EventsQueue, "events-queue", env.str("HR_EVENTS_QUEUE", "tickets.lifecycle"), "queue receiving ticket events")
	flags.DurationVar(&c.TokenGrace, "token-grace", env.dur("HR_TOKEN_GRACE", 5*time.Minute), "how long a rotated-out token still resolves")
	flags.DurationVar(&c.TokenCacheTTL, "token-cache-ttl", env.dur("HR_TOKEN_CACHE_TTL", 30*time.Second), "token cache entry lifetime")
	flags.BoolVar(&c.AllowEmployeeSignup, "allow-employee-signup", env.bool("HR_ALLOW_EMPLOYEE_SIGNUP", true), "accept account_type=employee at registration")
	flags.DurationVar(&c.RequestTimeout, "request-timeout", env.dur("HR_REQUEST_TIMEOUT", 15*time.Second), "per-request deadline")
	flags.DurationVar(&c.ShutdownTimeout, "shutdown-timeout", env.dur("HR_SHUTDOWN_TIMEOUT", 10*time.Second), "graceful shutdown limit")
	flags.BoolVar(&c.Dev, "dev", env.bool("HR_DEV", false), "development logging")

	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}
	if len(env.errs) > 0 {
		return Config{}, errors.Join(env.errs...)
	}
	return c, c.Validate()
}

// Validate checks required and range constraints.
func (c Config) Validate() error {
	var problems []error
	if c.DSN == "" {
		problems = append(problems, errors.New("dsn is required (--dsn or HR_DSN)"))
	}
	if c.Addr == "" {
		problems = append(problems, errors.New("addr is empty"))
	}
	if c.TokenGrace < 0 || c.TokenCacheTTL < 0 || c.RequestTimeout < 0 || c.ShutdownTimeout < 0 {
		problems = append(problems, errors.New("durations must not be negative"))
	}
	return errors.Join(problems...)
}
