package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind            string
	minPlayers      int
	playerTimeout   time.Duration
	port            int
	prefix          string
	profile         bool
	rateLimit       time.Duration
	rewardAccusers  bool
	sessionTimeout  time.Duration
	tlsCert         string
	tlsKey          string
	uniqueLocations bool
	verbose         bool
	version         bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.minPlayers < 1 {
		return fmt.Errorf("invalid minimum player count (must be at least 1): %d", c.minPlayers)
	}
	if c.rateLimit < 0 {
		return fmt.Errorf("invalid rate limit (must not be negative): %s", c.rateLimit)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SWEFALL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "swefall",
		Short:         "A bilingual spy-hunt party game served from a single binary.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: SWEFALL_BIND)")
	fs.IntVar(&cfg.minPlayers, "min-players", 3, "minimum player count required to start a round (env: SWEFALL_MIN_PLAYERS)")
	fs.DurationVar(&cfg.playerTimeout, "player-timeout", 10*time.Minute, "time before disconnected players lose their seat (env: SWEFALL_PLAYER_TIMEOUT)")
	fs.IntVarP(&cfg.port, "port", "p", 4000, "port to listen on (env: SWEFALL_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: SWEFALL_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: SWEFALL_PROFILE)")
	fs.DurationVar(&cfg.rateLimit, "rate-limit", 200*time.Millisecond, "minimum interval between actions from one connection, 0 to disable (env: SWEFALL_RATE_LIMIT)")
	fs.BoolVar(&cfg.rewardAccusers, "reward-accusers", true, "award a point to each player who correctly names the spy (env: SWEFALL_REWARD_ACCUSERS)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle rooms are ended (env: SWEFALL_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: SWEFALL_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: SWEFALL_TLS_KEY)")
	fs.BoolVar(&cfg.uniqueLocations, "unique-locations", false, "draw locations without repeats until the deck runs out (env: SWEFALL_UNIQUE_LOCATIONS)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: SWEFALL_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: SWEFALL_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("swefall v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
