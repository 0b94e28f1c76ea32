package assess

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/bottle-claims/internal/evidence"
	"github.com/sells-group/bottle-claims/internal/llmjson"
	"github.com/sells-group/bottle-claims/internal/media"
	"github.com/sells-group/bottle-claims/internal/model"
	"github.com/sells-group/bottle-claims/internal/vision"
)

// AssessClaim classifies damage from one video or one or more images. A
// prior date verification marked ineligible short-circuits the flow without
// calling the model. The prior is echoed in the result and its tokens are
// included in the totals.
func (s *Service) AssessClaim(ctx context.Context, items []model.UploadItem, prior *model.PriorVerification) (*model.ClaimAssessment, error) {
	mode, err := s.validator.Validate(items)
	if err != nil {
		return nil, err
	}

	log := zap.L().With(zap.Strings("files", model.Filenames(items)), zap.String("mode", string(mode)))

	if prior.IsIneligible() {
		log.Info("assess: prior verification ineligible, skipping inference")
		a := &model.ClaimAssessment{
			English:          model.IneligibleClaimEnglish,
			Thai:             model.IneligibleClaimThai,
			DateVerification: prior,
		}
		a.CostTotals = s.totals(a, prior)
		return a, nil
	}

	if !s.gateway.Ready() {
		if err := s.gateway.Reinitialize(); err != nil {
			log.Warn("assess: vision client unavailable, returning fallback answer", zap.Error(err))
			a := &model.ClaimAssessment{
				English:          model.UnavailableEnglish,
				Thai:             model.UnavailableThai,
				DateVerification: prior,
			}
			a.CostTotals = s.totals(a, prior)
			return a, nil
		}
	}

	var a *model.ClaimAssessment
	switch mode {
	case media.ModeVideo:
		a, err = s.assessVideo(ctx, items[0])
	default:
		a, err = s.assessImages(ctx, items)
	}
	if err != nil {
		return nil, err
	}

	logUsage(s.costs, "claim_assessment", a.Usage())
	a.DateVerification = prior
	a.CostTotals = s.totals(a, prior)
	log.Info("assess: claim assessed",
		zap.String("model", a.Model),
		zap.Bool("parsed", a.Parsed),
		zap.Float64("total_cost_thb", a.TotalCostTHB),
	)
	return a, nil
}

func (s *Service) assessImages(ctx context.Context, items []model.UploadItem) (*model.ClaimAssessment, error) {
	set, err := s.assembler.FromImages(items)
	if err != nil {
		return nil, wrapRead(err, "read images")
	}
	return s.classify(ctx, s.rubric.ImageInstruction(len(set)), set)
}

func (s *Service) assessVideo(ctx context.Context, item model.UploadItem) (*model.ClaimAssessment, error) {
	ve, err := s.assembler.FromVideo(ctx, item)
	if err != nil {
		return nil, wrapRead(err, "assemble video")
	}

	var a *model.ClaimAssessment
	if ve.NoVisualEvidence {
		summary := evidence.MetadataSummary(ve.Video)
		zap.L().Warn("assess: no frames extracted, assessing from metadata",
			zap.String("filename", ve.Video.Filename),
			zap.String("summary", summary),
		)
		a, err = s.classify(ctx, s.rubric.MetadataInstruction(summary), nil)
	} else {
		a, err = s.classify(ctx, s.rubric.FramesInstruction(len(ve.Evidence)), ve.Evidence)
	}
	if err != nil {
		return nil, err
	}
	a.Video = ve.Video
	return a, nil
}

func (s *Service) classify(ctx context.Context, instruction string, set model.EvidenceSet) (*model.ClaimAssessment, error) {
	resp, err := s.gateway.Infer(ctx, vision.Request{
		System:      s.rubric.ClaimSystemPrompt(),
		CacheSystem: s.cfg.CacheSystem,
		Text:        instruction,
		Images:      set,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	b, ok := llmjson.ParseBilingual(resp.Text)
	if !ok {
		zap.L().Warn("assess: could not parse bilingual answer, passing raw text through",
			zap.String("model", resp.Model),
			zap.Int("length", len(resp.Text)),
		)
	}

	return &model.ClaimAssessment{
		English:      b.English,
		Thai:         b.Thai,
		LabelDate:    b.Date,
		Model:        resp.Model,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		Parsed:       ok,
		Inferred:     true,
	}, nil
}
