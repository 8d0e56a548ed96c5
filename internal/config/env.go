package config

import (
	"fmt"
	"os"
	"strconv"
)

type envVar struct {
	name  string
	desc  string
	apply func(*Config, string) error
}

var supportedEnvVars = []envVar{
	{
		// Only here for documentation purposes.  The path is read before the config is loaded.
		name:  "LECTERN_CONFIG_PATH",
		desc:  "Sets the path to the config file.  Default: OS-specific config directory",
		apply: func(c *Config, s string) error { return nil },
	},
	{
		name:  "LECTERN_CONFIG_CLIENT_BASE_URL",
		desc:  "Sets the progress server URL the client talks to.  Default: http://localhost:8080",
		apply: func(c *Config, s string) error { c.Client.BaseURL = s; return nil },
	},
	{
		name:  "LECTERN_CONFIG_CLIENT_TOKEN",
		desc:  "Sets the bearer token the client authenticates with.  Default: None",
		apply: func(c *Config, s string) error { c.Client.Token = s; return nil },
	},
	{
		name: "LECTERN_CONFIG_CLIENT_COHORT_ID",
		desc: "Sets the cohort whose lessons the client lists.  Default: None",
		apply: func(c *Config, s string) error {
			id, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				return err
			}
			c.Client.CohortID = uint(id)
			return nil
		},
	},
	{
		name:  "LECTERN_CONFIG_PLAYER_TYPE",
		desc:  "Sets the video player type.  Only `mpv` is supported.  Default: mpv",
		apply: func(c *Config, s string) error { c.Player.Type = s; return nil },
	},
	{
		name:  "LECTERN_CONFIG_PLAYER_PATH",
		desc:  "Sets the path to a video player binary.  Default: mpv",
		apply: func(c *Config, s string) error { c.Player.Path = s; return nil },
	},
	{
		name:  "LECTERN_CONFIG_PLAYER_ARGS",
		desc:  "Sets additional video player arguments.  Default: None",
		apply: func(c *Config, s string) error { c.Player.Args = s; return nil },
	},
	{
		name:  "LECTERN_CONFIG_REPORTER_INTERVAL_SECONDS",
		desc:  "Sets how often progress is saved while playing.  Default: 10",
		apply: func(c *Config, s string) error { return setInt(&c.Reporter.IntervalSeconds, s) },
	},
	{
		name:  "LECTERN_CONFIG_REPORTER_DEBOUNCE_SECONDS",
		desc:  "Sets the minimum position change before a periodic save is sent.  Default: 5",
		apply: func(c *Config, s string) error { return setInt(&c.Reporter.DebounceSeconds, s) },
	},
	{
		name:  "LECTERN_CONFIG_SERVER_LISTEN",
		desc:  "Sets the address the progress server listens on.  Default: :8080",
		apply: func(c *Config, s string) error { c.Server.Listen = s; return nil },
	},
	{
		name:  "LECTERN_CONFIG_SERVER_DATABASE_DRIVER",
		desc:  "Sets the database driver.  One of: postgres, sqlite.  Default: sqlite",
		apply: func(c *Config, s string) error { c.Server.DatabaseDriver = s; return nil },
	},
	{
		name:  "LECTERN_CONFIG_SERVER_DATABASE_DSN",
		desc:  "Sets the database connection string.  Default: lectern.db",
		apply: func(c *Config, s string) error { c.Server.DatabaseDSN = s; return nil },
	},
	{
		name:  "LECTERN_CONFIG_SERVER_JWT_SECRET",
		desc:  "Sets the HS256 secret used to verify bearer tokens.  Default: None",
		apply: func(c *Config, s string) error { c.Server.JWTSecret = s; return nil },
	},
	{
		name: "LECTERN_CONFIG_SERVER_SKIP_ENROLLMENT_CHECK_ON_WRITE",
		desc: "Allows progress writes without an enrollment that grants access.  Default: false",
		apply: func(c *Config, s string) error {
			v, err := strconv.ParseBool(s)
			if err != nil {
				return err
			}
			c.Server.SkipEnrollmentCheckOnWrite = v
			return nil
		},
	},
	{
		name:  "LECTERN_CONFIG_SERVER_CORS_ORIGINS",
		desc:  "Sets the allowed CORS origins, comma separated.  Default: *",
		apply: func(c *Config, s string) error { c.Server.CORSOrigins = s; return nil },
	},
	{
		name:  "LECTERN_CONFIG_CMS_ENDPOINT",
		desc:  "Sets the CMS GraphQL endpoint content is synchronised from.  Default: None (sync disabled)",
		apply: func(c *Config, s string) error { c.CMS.Endpoint = s; return nil },
	},
	{
		name:  "LECTERN_CONFIG_CMS_TOKEN",
		desc:  "Sets the CMS API token.  Default: None",
		apply: func(c *Config, s string) error { c.CMS.Token = s; return nil },
	},
	{
		name:  "LECTERN_CONFIG_SCHEDULER_TIMEZONE",
		desc:  "Sets the timezone scheduled jobs run in.  Default: UTC",
		apply: func(c *Config, s string) error { c.Scheduler.Timezone = s; return nil },
	},
	{
		name:  "LECTERN_CONFIG_LOGGING_LEVEL",
		desc:  "Sets the logging level.  One of: trace, debug, info, warn, error.  Default: info",
		apply: func(c *Config, s string) error { c.Logging.Level = s; return nil },
	},
	{
		name:  "LECTERN_CONFIG_LOGGING_FILE_PATH",
		desc:  "Sets the logging file path, or - for stdout.  Default: OS-specific",
		apply: func(c *Config, s string) error { c.Logging.FilePath = s; return nil },
	},
}

func setInt(target *int, s string) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*target = v
	return nil
}

func applyEnvVarOverrides(c *Config) error {
	for _, envVar := range supportedEnvVars {
		if value := os.Getenv(envVar.name); value != "" {
			if err := envVar.apply(c, value); err != nil {
				return fmt.Errorf("invalid value for %s: %w", envVar.name, err)
			}
		}
	}
	return nil
}

// EnvVarHelp returns a description of every supported environment variable
func EnvVarHelp() string {
	help := ""
	for _, envVar := range supportedEnvVars {
		help += fmt.Sprintf("  %s\n      %s\n", envVar.name, envVar.desc)
	}
	return help
}
