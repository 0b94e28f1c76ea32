// Package assess runs the two request flows: reading and checking a
// bottle's production date, and classifying damage from uploaded media.
package assess

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bottle-claims/internal/cost"
	"github.com/sells-group/bottle-claims/internal/eligibility"
	"github.com/sells-group/bottle-claims/internal/evidence"
	"github.com/sells-group/bottle-claims/internal/media"
	"github.com/sells-group/bottle-claims/internal/model"
	"github.com/sells-group/bottle-claims/internal/prompts"
	"github.com/sells-group/bottle-claims/internal/vision"
)

// Gateway is the vision handle the flows depend on.
type Gateway interface {
	vision.Adapter
	Ready() bool
	ActiveModel() string
	Reinitialize() error
}

// Assembler turns uploads into evidence.
type Assembler interface {
	FromImages(items []model.UploadItem) (model.EvidenceSet, error)
	FromVideo(ctx context.Context, item model.UploadItem) (*evidence.VideoEvidence, error)
}

// Config holds the per-flow model settings.
type Config struct {
	DateModel     string
	DateMaxTokens int64
	MaxTokens     int64
	CacheSystem   bool
	Policy        eligibility.Policy
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service orchestrates date verification and claim assessment.
type Service struct {
	gateway   Gateway
	validator *media.Validator
	assembler Assembler
	rubric    *prompts.Rubric
	costs     *cost.Calculator
	cfg       Config
}

// NewService wires the flows together.
func NewService(gw Gateway, validator *media.Validator, assembler Assembler, rubric *prompts.Rubric, costs *cost.Calculator, cfg Config) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		gateway:   gw,
		validator: validator,
		assembler: assembler,
		rubric:    rubric,
		costs:     costs,
		cfg:       cfg,
	}
}

// Validator returns the upload validator.
func (s *Service) Validator() *media.Validator {
	return s.validator
}

// Ready reports whether the vision model can be reached.
func (s *Service) Ready() bool {
	return s.gateway.Ready()
}

// ActiveModel returns the claim assessment model currently in use.
func (s *Service) ActiveModel() string {
	return s.gateway.ActiveModel()
}

// totals prices the assessment call and the prior date verification, each
// at its own model's rate.
func (s *Service) totals(a *model.ClaimAssessment, prior *model.PriorVerification) *model.CostTotals {
	var usages []model.TokenUsage
	if a != nil && a.Inferred {
		usages = append(usages, a.Usage())
	}
	if prior != nil {
		u := prior.Usage
		if u.Model == "" {
			u.Model = s.cfg.DateModel
		}
		usages = append(usages, u)
	}
	return s.costs.Totals(usages...)
}

func wrapRead(err error, action string) error {
	if model.KindOf(err) != model.KindUnexpected {
		return err
	}
	return eris.Wrap(err, "assess: "+action)
}

func logUsage(costs *cost.Calculator, phase string, u model.TokenUsage) {
	if u.TotalTokens == 0 {
		zap.L().Debug("assess: no tokens used", zap.String("phase", phase))
		return
	}
	costs.Log(phase, u)
}
