package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/bottle-claims/internal/cost"
	"github.com/sells-group/bottle-claims/internal/eligibility"
	"github.com/sells-group/bottle-claims/internal/media"
)

// Config holds the full application configuration.
type Config struct {
	Vision      VisionConfig      `yaml:"vision" mapstructure:"vision"`
	Media       MediaConfig       `yaml:"media" mapstructure:"media"`
	Limits      LimitsConfig      `yaml:"limits" mapstructure:"limits"`
	Eligibility EligibilityConfig `yaml:"eligibility" mapstructure:"eligibility"`
	Pricing     PricingConfig     `yaml:"pricing" mapstructure:"pricing"`
	Prompts     PromptsConfig     `yaml:"prompts" mapstructure:"prompts"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// VisionConfig holds Anthropic vision model settings.
type VisionConfig struct {
	Key               string `yaml:"key" mapstructure:"key"`
	BaseURL           string `yaml:"base_url" mapstructure:"base_url"`
	Model             string `yaml:"model" mapstructure:"model"`
	FallbackModel     string `yaml:"fallback_model" mapstructure:"fallback_model"`
	DateModel         string `yaml:"date_model" mapstructure:"date_model"`
	MaxTokens         int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
	DateMaxTokens     int64  `yaml:"date_max_tokens" mapstructure:"date_max_tokens"`
	TimeoutSecs       int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	CacheSystemPrompt bool   `yaml:"cache_system_prompt" mapstructure:"cache_system_prompt"`
	CacheTTL          string `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// Timeout is the per-request budget of a model call.
func (v VisionConfig) Timeout() time.Duration {
	return time.Duration(v.TimeoutSecs) * time.Second
}

// MediaConfig configures video decoding.
type MediaConfig struct {
	FFmpegPath   string `yaml:"ffmpeg_path" mapstructure:"ffmpeg_path"`
	FFprobePath  string `yaml:"ffprobe_path" mapstructure:"ffprobe_path"`
	ScratchDir   string `yaml:"scratch_dir" mapstructure:"scratch_dir"`
	TargetFrames int    `yaml:"target_frames" mapstructure:"target_frames"`
	JPEGQuality  int    `yaml:"jpeg_quality" mapstructure:"jpeg_quality"`
}

// LimitsConfig holds accepted upload types and size ceilings.
type LimitsConfig struct {
	MaxImageMB      int      `yaml:"max_image_mb" mapstructure:"max_image_mb"`
	MaxVideoMB      int      `yaml:"max_video_mb" mapstructure:"max_video_mb"`
	ImageTypes      []string `yaml:"image_types" mapstructure:"image_types"`
	VideoTypes      []string `yaml:"video_types" mapstructure:"video_types"`
	LabelImageTypes []string `yaml:"label_image_types" mapstructure:"label_image_types"`
}

// MediaLimits converts the section to validator limits.
func (l LimitsConfig) MediaLimits() media.Limits {
	return media.Limits{
		MaxImageBytes:   int64(l.MaxImageMB) * media.MB,
		MaxVideoBytes:   int64(l.MaxVideoMB) * media.MB,
		ImageTypes:      l.ImageTypes,
		VideoTypes:      l.VideoTypes,
		LabelImageTypes: l.LabelImageTypes,
	}
}

// EligibilityConfig configures the claim window and label year handling.
type EligibilityConfig struct {
	MaxDays    int    `yaml:"max_days" mapstructure:"max_days"`
	DateLayout string `yaml:"date_layout" mapstructure:"date_layout"`
	YearOffset int    `yaml:"year_offset" mapstructure:"year_offset"`
	MinYear    int    `yaml:"min_year" mapstructure:"min_year"`
	MaxYear    int    `yaml:"max_year" mapstructure:"max_year"`
	ClampYear  int    `yaml:"clamp_year" mapstructure:"clamp_year"`
}

// Policy converts the section to an eligibility policy.
func (e EligibilityConfig) Policy() eligibility.Policy {
	return eligibility.Policy{
		MaxDays:    e.MaxDays,
		Layout:     e.DateLayout,
		YearOffset: e.YearOffset,
		MinYear:    e.MinYear,
		MaxYear:    e.MaxYear,
		ClampYear:  e.ClampYear,
	}
}

// PricingConfig holds per-model rates (USD per million tokens) and the
// conversion to the reporting currency.
type PricingConfig struct {
	Conversion float64                 `yaml:"conversion" mapstructure:"conversion"`
	Default    ModelPricing            `yaml:"default" mapstructure:"default"`
	Models     map[string]ModelPricing `yaml:"models" mapstructure:"models"`
}

// ModelPricing holds per-model token pricing (USD per million tokens).
type ModelPricing struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// Rates converts the section to cost rates.
func (p PricingConfig) Rates() cost.Rates {
	models := make(map[string]cost.ModelRate, len(p.Models))
	for id, m := range p.Models {
		models[id] = cost.ModelRate{Input: m.Input, Output: m.Output}
	}
	return cost.Rates{
		Models:     models,
		Default:    cost.ModelRate{Input: p.Default.Input, Output: p.Default.Output},
		Conversion: p.Conversion,
	}
}

// PromptsConfig points at an optional rubric document overriding the
// built-in prompts.
type PromptsConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	StaticDir      string   `yaml:"static_dir" mapstructure:"static_dir"`
	MaxRequestMB   int      `yaml:"max_request_mb" mapstructure:"max_request_mb"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CLAIMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("vision.key", "CLAIMS_VISION_KEY", "ANTHROPIC_API_KEY"); err != nil {
		return nil, eris.Wrap(err, "config: bind env")
	}

	// Defaults
	v.SetDefault("vision.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("vision.fallback_model", "claude-haiku-4-5-20251001")
	v.SetDefault("vision.date_model", "claude-haiku-4-5-20251001")
	v.SetDefault("vision.max_tokens", 2048)
	v.SetDefault("vision.date_max_tokens", 300)
	v.SetDefault("vision.timeout_secs", 120)
	v.SetDefault("vision.cache_system_prompt", true)
	v.SetDefault("vision.cache_ttl", "5m")
	v.SetDefault("media.ffmpeg_path", "ffmpeg")
	v.SetDefault("media.ffprobe_path", "ffprobe")
	v.SetDefault("media.scratch_dir", "")
	v.SetDefault("media.target_frames", 10)
	v.SetDefault("media.jpeg_quality", 90)
	v.SetDefault("limits.max_image_mb", 10)
	v.SetDefault("limits.max_video_mb", 50)
	v.SetDefault("limits.image_types", []string{"image/jpeg", "image/jpg", "image/png"})
	v.SetDefault("limits.video_types", []string{"video/mp4"})
	v.SetDefault("limits.label_image_types", []string{"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp"})
	v.SetDefault("eligibility.max_days", 120)
	v.SetDefault("eligibility.date_layout", "2/1/2006")
	v.SetDefault("eligibility.year_offset", 0)
	v.SetDefault("eligibility.min_year", 0)
	v.SetDefault("eligibility.max_year", 0)
	v.SetDefault("eligibility.clamp_year", 0)
	v.SetDefault("pricing.conversion", 35.0)
	v.SetDefault("pricing.default.input", 1.00)
	v.SetDefault("pricing.default.output", 1.00)
	v.SetDefault("pricing.models", map[string]any{
		"claude-haiku-4-5-20251001":  map[string]any{"input": 1.00, "output": 5.00},
		"claude-sonnet-4-5-20250929": map[string]any{"input": 3.00, "output": 15.00},
		"claude-opus-4-6":            map[string]any{"input": 15.00, "output": 75.00},
	})
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost:3000",
		"http://localhost:8000",
		"http://127.0.0.1:8000",
	})
	v.SetDefault("server.static_dir", "")
	v.SetDefault("server.max_request_mb", 100)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. The vision key is
// never required: without it the service starts and reports itself as
// unavailable.
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Vision.Model == "" {
		problems = append(problems, "vision.model is required")
	}
	if c.Vision.DateModel == "" {
		problems = append(problems, "vision.date_model is required")
	}
	if c.Vision.MaxTokens <= 0 || c.Vision.DateMaxTokens <= 0 {
		problems = append(problems, "vision.max_tokens and vision.date_max_tokens must be positive")
	}
	if c.Eligibility.MaxDays <= 0 {
		problems = append(problems, "eligibility.max_days must be positive")
	}
	if c.Eligibility.MinYear > 0 && c.Eligibility.MaxYear > 0 && c.Eligibility.MinYear > c.Eligibility.MaxYear {
		problems = append(problems, "eligibility.min_year must not exceed eligibility.max_year")
	}
	if c.Pricing.Conversion <= 0 {
		problems = append(problems, "pricing.conversion must be positive")
	}

	switch mode {
	case "serve", "assess", "frames":
		if c.Media.FFmpegPath == "" || c.Media.FFprobePath == "" {
			problems = append(problems, "media.ffmpeg_path and media.ffprobe_path are required")
		}
		if c.Limits.MaxImageMB <= 0 || c.Limits.MaxVideoMB <= 0 {
			problems = append(problems, "limits.max_image_mb and limits.max_video_mb must be positive")
		}
	}
	if mode == "serve" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		problems = append(problems, "server.port must be between 1 and 65535")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
