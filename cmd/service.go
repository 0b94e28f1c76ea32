package main

import (
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bottle-claims/internal/assess"
	"github.com/sells-group/bottle-claims/internal/config"
	"github.com/sells-group/bottle-claims/internal/cost"
	"github.com/sells-group/bottle-claims/internal/evidence"
	"github.com/sells-group/bottle-claims/internal/media"
	"github.com/sells-group/bottle-claims/internal/model"
	"github.com/sells-group/bottle-claims/internal/prompts"
	"github.com/sells-group/bottle-claims/internal/video"
	"github.com/sells-group/bottle-claims/internal/vision"
)

// initService validates the config for mode and builds the claim service.
func initService(mode string) (*assess.Service, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}
	return buildService(cfg, nil)
}

// buildService wires the claim service from c. A nil factory builds real
// API clients.
func buildService(c *config.Config, factory vision.ClientFactory) (*assess.Service, error) {
	rubric, err := prompts.Load(c.Prompts.Path)
	if err != nil {
		return nil, eris.Wrap(err, "init service: load rubric")
	}

	gateway := vision.NewGateway(vision.Options{
		Key:           c.Vision.Key,
		BaseURL:       c.Vision.BaseURL,
		Model:         c.Vision.Model,
		FallbackModel: c.Vision.FallbackModel,
		Timeout:       c.Vision.Timeout(),
		CacheTTL:      c.Vision.CacheTTL,
		Factory:       factory,
	})

	assembler := evidence.NewAssembler(newSampler(c), c.Media.ScratchDir, c.Media.JPEGQuality)

	zap.L().Info("claim service ready",
		zap.Bool("vision_ready", gateway.Ready()),
		zap.String("model", gateway.ActiveModel()),
		zap.String("date_model", c.Vision.DateModel),
		zap.String("rubric_version", rubric.Version),
		zap.Int("max_days", c.Eligibility.MaxDays),
	)

	return assess.NewService(
		gateway,
		media.NewValidator(c.Limits.MediaLimits()),
		assembler,
		rubric,
		cost.NewCalculator(c.Pricing.Rates()),
		assess.Config{
			DateModel:     c.Vision.DateModel,
			DateMaxTokens: c.Vision.DateMaxTokens,
			MaxTokens:     c.Vision.MaxTokens,
			CacheSystem:   c.Vision.CacheSystemPrompt,
			Policy:        c.Eligibility.Policy(),
		},
	), nil
}

func newSampler(c *config.Config) *video.Sampler {
	return video.NewFFmpegSampler(video.Options{
		FFmpeg:       c.Media.FFmpegPath,
		FFprobe:      c.Media.FFprobePath,
		ScratchDir:   c.Media.ScratchDir,
		TargetFrames: c.Media.TargetFrames,
		Runner:       video.ExecRunner{},
	})
}

var extensionTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".mp4":  "video/mp4",
}

// fileUpload describes a local file the way an HTTP upload would arrive.
func fileUpload(path string) (model.UploadItem, error) {
	info, err := os.Stat(path)
	if err != nil {
		return model.UploadItem{}, eris.Wrapf(err, "stat %s", path)
	}
	if info.IsDir() {
		return model.UploadItem{}, eris.Errorf("%s is a directory", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	mediaType, ok := extensionTypes[ext]
	if !ok {
		mediaType = mime.TypeByExtension(ext)
	}

	return model.NewUploadItem(filepath.Base(path), mediaType, info.Size(), func() (io.ReadCloser, error) {
		return os.Open(path)
	}), nil
}
