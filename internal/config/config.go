// internal/config/config.go
//
// Runtime configuration. Every setting is a cobra flag; viper binds each
// flag to GIBBERISH_<FLAG> (dashes become underscores) so the server can be
// configured from the environment or a .env file.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "GIBBERISH"

	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"

	SourceGemini = "gemini"
	SourcePool   = "pool"

	defaultJWTSecret = "dev_secret_change_me"
)

// Config holds every runtime setting.
type Config struct {
	Bind      string
	Port      int
	LogLevel  string
	LogFormat string

	Store         string
	DBPath        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration

	Source       string
	GeminiAPIKey string
	GeminiModel  string
	PuzzlesFile  string
	DailySalt    string

	RetryDelay     time.Duration
	FetchTimeout   time.Duration
	SessionTimeout time.Duration

	JWTSecret    string
	ShareSecret  string
	ClientOrigin string
	CookieName   string
	Production   bool
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

// PuzzleSource resolves an empty Source: gemini when a key is configured,
// otherwise the offline pool.
func (c *Config) PuzzleSource() string {
	if c.Source != "" {
		return c.Source
	}
	if c.GeminiAPIKey != "" {
		return SourceGemini
	}
	return SourcePool
}

// SealingSecret is the secret for challenge tokens; it falls back to the
// JWT secret.
func (c *Config) SealingSecret() string {
	if c.ShareSecret != "" {
		return c.ShareSecret
	}
	return c.JWTSecret
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q (console|json)", c.LogFormat)
	}
	switch c.Store {
	case StoreMemory, StoreRedis:
	case StoreSQLite:
		if c.DBPath == "" {
			return errors.New("--db-path is required for the sqlite store")
		}
	default:
		return fmt.Errorf("unknown store %q (memory|sqlite|redis)", c.Store)
	}
	switch c.PuzzleSource() {
	case SourcePool:
	case SourceGemini:
		if c.GeminiAPIKey == "" {
			return errors.New("--gemini-api-key is required for the gemini source")
		}
	default:
		return fmt.Errorf("unknown source %q (gemini|pool)", c.Source)
	}
	if c.RetryDelay <= 0 || c.FetchTimeout <= 0 {
		return errors.New("--retry-delay and --fetch-timeout must be positive")
	}
	if c.JWTSecret == "" {
		return errors.New("--jwt-secret must not be empty")
	}
	if c.Production && c.JWTSecret == defaultJWTSecret {
		return errors.New("set --jwt-secret when running in production")
	}
	return nil
}

// NewCommand builds the root command. run is called with the validated
// configuration.
func NewCommand(cfg *Config, version string, run func(cmd *cobra.Command, cfg *Config) error) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "gibberish",
		Short:         "Serves the Gibberish Guesser game.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: GIBBERISH_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 5175, "port to listen on (env: GIBBERISH_PORT)")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "zerolog level (env: GIBBERISH_LOG_LEVEL)")
	fs.StringVar(&cfg.LogFormat, "log-format", "console", "console or json (env: GIBBERISH_LOG_FORMAT)")

	fs.StringVar(&cfg.Store, "store", StoreMemory, "memory, sqlite or redis (env: GIBBERISH_STORE)")
	fs.StringVar(&cfg.DBPath, "db-path", "./data/gibberish.db", "sqlite database file (env: GIBBERISH_DB_PATH)")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", "localhost:6379", "redis address (env: GIBBERISH_REDIS_ADDR)")
	fs.StringVar(&cfg.RedisPassword, "redis-password", "", "redis password (env: GIBBERISH_REDIS_PASSWORD)")
	fs.IntVar(&cfg.RedisDB, "redis-db", 0, "redis database number (env: GIBBERISH_REDIS_DB)")
	fs.DurationVar(&cfg.RedisTTL, "redis-ttl", 0, "expiry for stored player data, 0 keeps it forever (env: GIBBERISH_REDIS_TTL)")

	fs.StringVar(&cfg.Source, "source", "", "gemini or pool, default picks gemini when a key is set (env: GIBBERISH_SOURCE)")
	fs.StringVar(&cfg.GeminiAPIKey, "gemini-api-key", "", "Gemini API key (env: GIBBERISH_GEMINI_API_KEY)")
	fs.StringVar(&cfg.GeminiModel, "gemini-model", "gemini-2.5-flash", "Gemini model name (env: GIBBERISH_GEMINI_MODEL)")
	fs.StringVar(&cfg.PuzzlesFile, "puzzles-file", "", "fallback puzzle list, one 'gibberish | answer' per line (env: GIBBERISH_PUZZLES_FILE)")

	fs.StringVar(&cfg.DailySalt, "daily-salt", "local_dev_salt", "salt for the puzzle of the day (env: GIBBERISH_DAILY_SALT)")

	fs.DurationVar(&cfg.RetryDelay, "retry-delay", time.Second, "how long a wrong guess is shown (env: GIBBERISH_RETRY_DELAY)")
	fs.DurationVar(&cfg.FetchTimeout, "fetch-timeout", 15*time.Second, "timeout for puzzle and hint requests (env: GIBBERISH_FETCH_TIMEOUT)")
	fs.DurationVar(&cfg.SessionTimeout, "session-timeout", 60*time.Minute, "time before idle sessions are dropped (env: GIBBERISH_SESSION_TIMEOUT)")

	fs.StringVar(&cfg.JWTSecret, "jwt-secret", defaultJWTSecret, "signing key for player cookies (env: GIBBERISH_JWT_SECRET)")
	fs.StringVar(&cfg.ShareSecret, "share-secret", "", "sealing key for challenge links, defaults to the jwt secret (env: GIBBERISH_SHARE_SECRET)")
	fs.StringVar(&cfg.ClientOrigin, "client-origin", "http://localhost:5173", "allowed CORS origin (env: GIBBERISH_CLIENT_ORIGIN)")
	fs.StringVar(&cfg.CookieName, "cookie-name", "gibberish_player", "player cookie name (env: GIBBERISH_COOKIE_NAME)")
	fs.BoolVar(&cfg.Production, "production", false, "secure cookies and strict secrets (env: GIBBERISH_PRODUCTION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("gibberish v{{.Version}}\n")

	return cmd
}
