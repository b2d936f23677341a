package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/spigell/smart-apply/internal/headhunter"
)

const (
	app       = "smart-apply"
	envPrefix = "SMART_APPLY"
)

type Config struct {
	Resume      string           `mapstructure:"resume"`
	ExcludeFile string           `mapstructure:"exclude-file"`
	Sources     SourcesConfig    `mapstructure:"sources"`
	Filters     FiltersConfig    `mapstructure:"filters"`
	AI          AIConfig         `mapstructure:"ai"`
	Embeddings  EmbeddingsConfig `mapstructure:"embeddings"`
	Index       IndexConfig      `mapstructure:"index"`
	Cache       CacheConfig      `mapstructure:"cache"`
	Matching    MatchingConfig   `mapstructure:"matching"`
	Metrics     MetricsConfig    `mapstructure:"metrics"`
}

type SourcesConfig struct {
	// Files are scraper outputs in JSON or CSV.
	Files      []string          `mapstructure:"files"`
	Headhunter *HeadhunterConfig `mapstructure:"headhunter"`
}

type HeadhunterConfig struct {
	Enabled   bool                     `mapstructure:"enabled"`
	Search    *headhunter.SearchParams `mapstructure:"search"`
	Details   bool                     `mapstructure:"details"`
	Limit     int                      `mapstructure:"limit" validate:"gte=0"`
	UserAgent string                   `mapstructure:"user-agent"`
	TokenFile string                   `mapstructure:"token-file"`
}

type FiltersConfig struct {
	Companies []string `mapstructure:"companies"`
	RedFlags  []string `mapstructure:"red-flags"`
	Disabled  []string `mapstructure:"disabled" validate:"dive,oneof=dedupe exclude_file companies red_flags"`
}

type AIConfig struct {
	Provider    string       `mapstructure:"provider" validate:"oneof=gemini"`
	Concurrency int          `mapstructure:"concurrency" validate:"gte=1"`
	Gemini      GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey         string        `mapstructure:"api-key" json:"-"`
	APIKeyFile     string        `mapstructure:"api-key-file"`
	Model          string        `mapstructure:"model"`
	EmbeddingModel string        `mapstructure:"embedding-model"`
	Temperature    float32       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxRetries     int           `mapstructure:"max-retries" validate:"gte=1"`
	Timeout        time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxLogLength   int           `mapstructure:"max-log-length" validate:"gte=0"`
}

type EmbeddingsConfig struct {
	Provider   string `mapstructure:"provider" validate:"oneof=gemini hashing"`
	Dimensions int    `mapstructure:"dimensions" validate:"gte=0"`
}

type IndexConfig struct {
	Backend string       `mapstructure:"backend" validate:"oneof=memory qdrant"`
	Qdrant  QdrantConfig `mapstructure:"qdrant"`
}

type QdrantConfig struct {
	URL        string `mapstructure:"url" validate:"omitempty,url"`
	APIKeyFile string `mapstructure:"api-key-file"`
}

type CacheConfig struct {
	Backend  string        `mapstructure:"backend" validate:"oneof=none memory redis"`
	RedisURL string        `mapstructure:"redis-url" validate:"required_if=Backend redis"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

type MatchingConfig struct {
	Threshold float64 `mapstructure:"threshold" validate:"gte=0,lte=1"`
	Limit     int     `mapstructure:"limit" validate:"gt=0"`
}

type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway-url" validate:"omitempty,url"`
	Job            string `mapstructure:"job"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "smart-apply normalizes job postings with a language model and ranks them against your resume",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is smart-apply.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.concurrency", 4)
	v.SetDefault("ai.gemini.max-retries", 3)
	v.SetDefault("ai.gemini.timeout", "60s")
	v.SetDefault("ai.gemini.max-log-length", 200)
	v.SetDefault("embeddings.provider", "gemini")
	v.SetDefault("index.backend", "memory")
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", "168h")
	v.SetDefault("matching.threshold", 0.4)
	v.SetDefault("matching.limit", 4)
	v.SetDefault("metrics.job", app)
}

func initConfig() {
	// Config needed only for run command now. If there is no config, we can skip initialization
	if runCmd.CalledAs() == "" {
		return
	}

	// .env is optional and never overrides the real environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	if err := bindEnv(viper.GetViper()); err != nil {
		log.Fatal(err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// We can't proceed if the config file parsed with error. A missing
	// default config is fine: flags and environment may be enough.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, env := range map[string]string{
		"ai.gemini.api-key-file":        "GEMINI_API_KEY_FILE",
		"sources.headhunter.token-file": "HH_TOKEN_FILE",
		"index.qdrant.api-key-file":     "QDRANT_API_KEY_FILE",
		"cache.redis-url":               "REDIS_URL",
		"metrics.pushgateway-url":       "PUSHGATEWAY_URL",
	} {
		if err := v.BindEnv(key, envKey(key), env); err != nil {
			return err
		}
	}
	return nil
}

func envKey(key string) string {
	return envPrefix + "_" + strings.NewReplacer(".", "_", "-", "_").Replace(strings.ToUpper(key))
}

func getConfig(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
