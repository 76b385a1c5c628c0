package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eringen/marmite"
	"github.com/eringen/marmite/views"
)

var cfgFile string

// appConfig is filled from config.yaml, the environment and flags.
var appConfig config

type config struct {
	SiteName        string `mapstructure:"site_name"`
	SiteURL         string `mapstructure:"site_url"`
	SiteDescription string `mapstructure:"site_description"`
	SiteAuthor      string `mapstructure:"site_author"`
	Addr            string `mapstructure:"addr"`
	DatabasePath    string `mapstructure:"database_path"`
	StaticDir       string `mapstructure:"static_dir"`
	Debug           bool   `mapstructure:"debug"`

	ContentfulSpaceID          string `mapstructure:"contentful_space_id"`
	ContentfulAccessKey        string `mapstructure:"contentful_access_key"`
	ContentfulPreviewAccessKey string `mapstructure:"contentful_preview_access_key"`
	ContentfulEnvironment      string `mapstructure:"contentful_environment"`

	Revalidate            time.Duration `mapstructure:"revalidate"`
	ListRevalidate        time.Duration `mapstructure:"list_revalidate"`
	FallbackWait          time.Duration `mapstructure:"fallback_wait"`
	NotFoundRedirectDelay time.Duration `mapstructure:"not_found_redirect_delay"`
	DisableFallback       bool          `mapstructure:"disable_fallback"`
	MissingAsNotFound     bool          `mapstructure:"missing_as_not_found"`

	PreviewSecret    string `mapstructure:"preview_secret"`
	SessionSecret    string `mapstructure:"session_secret"`
	CookieSecure     bool   `mapstructure:"cookie_secure"`
	RevalidateSecret string `mapstructure:"revalidate_secret"`
}

// configKeys are read from config.yaml and from the environment variable
// of the same name in upper case (site_url -> SITE_URL).
var configKeys = []string{
	"site_name", "site_url", "site_description", "site_author",
	"addr", "database_path", "static_dir", "debug",
	"contentful_space_id", "contentful_access_key",
	"contentful_preview_access_key", "contentful_environment",
	"revalidate", "list_revalidate", "fallback_wait", "not_found_redirect_delay",
	"disable_fallback", "missing_as_not_found",
	"preview_secret", "session_secret", "cookie_secure", "revalidate_secret",
}

var rootCmd = &cobra.Command{
	Use:   "marmite",
	Short: "Recipe site backed by Contentful",
	Long: `marmite serves a recipe website whose content lives in Contentful.
Pages are generated at startup and regenerated in the background, or
exported as static files with "marmite build".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.AddCommand(serveCmd, buildCmd, versionCmd)
}

func initializeConfig(cmd *cobra.Command) error {
	v := viper.New()

	v.SetDefault("static_dir", "public")
	v.SetDefault("contentful_environment", "master")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return err
		}
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		if cfgFile != "" {
			return fmt.Errorf("config file %s not found: %w", cfgFile, err)
		}
	} else {
		log.Infof("using config file %s", v.ConfigFileUsed())
	}

	if err := v.Unmarshal(&appConfig); err != nil {
		return fmt.Errorf("unable to decode config: %w", err)
	}
	return nil
}

// siteConfig maps the loaded configuration onto marmite.SiteConfig.
func (c config) siteConfig() marmite.SiteConfig {
	cfg := marmite.SiteConfig{
		Name:         c.SiteName,
		URL:          c.SiteURL,
		Description:  c.SiteDescription,
		Author:       c.SiteAuthor,
		Addr:         c.Addr,
		DatabasePath: c.DatabasePath,
		Debug:        c.Debug,
		Contentful: marmite.ContentfulConfig{
			SpaceID:      c.ContentfulSpaceID,
			AccessToken:  c.ContentfulAccessKey,
			PreviewToken: c.ContentfulPreviewAccessKey,
			Environment:  c.ContentfulEnvironment,
		},
		Revalidate:            c.Revalidate,
		ListRevalidate:        c.ListRevalidate,
		DisableFallback:       c.DisableFallback,
		FallbackWait:          c.FallbackWait,
		MissingAsNotFound:     c.MissingAsNotFound,
		NotFoundRedirectDelay: c.NotFoundRedirectDelay,
		PreviewSecret:         c.PreviewSecret,
		SessionSecret:         c.SessionSecret,
		CookieSecure:          c.CookieSecure,
		RevalidateSecret:      c.RevalidateSecret,
	}
	cfg.ApplyDefaults()
	return cfg
}

func newApp() *marmite.App {
	cfg := appConfig.siteConfig()
	return marmite.New(cfg, views.New(cfg), marmite.WithStaticDir(appConfig.StaticDir))
}
