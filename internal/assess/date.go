package assess

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/bottle-claims/internal/eligibility"
	"github.com/sells-group/bottle-claims/internal/model"
	"github.com/sells-group/bottle-claims/internal/vision"
)

const (
	msgClientUnavailable = "The vision client is not available"
	msgNoDateVisible     = "No production date visible on the bottle label"
	thaiExtractionPrefix = "เกิดข้อผิดพลาดในการดึงข้อมูลวันที่ผลิต: "
)

// VerifyDate reads the production date off a label image and checks it
// against the claim window. Extraction failures are reported in the result,
// not as errors; only an invalid upload returns an error.
func (s *Service) VerifyDate(ctx context.Context, item model.UploadItem) (*model.DateVerification, error) {
	if err := s.validator.ValidateImage(item); err != nil {
		return nil, err
	}

	ext := s.ExtractDate(ctx, item)
	logUsage(s.costs, "date_verification", ext.Usage)
	b := s.costs.Cost(ext.Usage.Model, ext.Usage.InputTokens, ext.Usage.OutputTokens)

	out := &model.DateVerification{
		TokenUsage:    ext.Usage,
		InputCostTHB:  b.InputCost,
		OutputCostTHB: b.OutputCost,
	}

	if ext.Status == model.ExtractionError {
		out.English = model.VerificationSection{
			Status:  string(model.EligibilityError),
			Message: ext.Error,
		}
		out.Thai = model.VerificationSection{
			Status:  model.EligibilityError.Thai(),
			Message: thaiExtractionPrefix + ext.Error,
		}
		return out, nil
	}

	res := s.cfg.Policy.Verify(*ext.ProductionDate, s.cfg.Now())
	zap.L().Info("assess: date verified",
		zap.String("filename", item.Filename),
		zap.String("production_date", res.ProductionDate),
		zap.String("status", string(res.Status)),
	)
	out.English, out.Thai = res.Sections()
	return out, nil
}

// ExtractDate asks the date model to read the label. It never fails; every
// problem becomes an ERROR extraction. Token usage is zero unless the model
// answered.
func (s *Service) ExtractDate(ctx context.Context, item model.UploadItem) model.DateExtraction {
	noUsage := model.NewTokenUsage(s.cfg.DateModel, 0, 0)

	if !s.gateway.Ready() {
		zap.L().Error("assess: vision client is not initialized")
		return extractionError(msgClientUnavailable, noUsage)
	}

	images, err := s.assembler.FromImages([]model.UploadItem{item})
	if err != nil {
		zap.L().Error("assess: read label image", zap.String("filename", item.Filename), zap.Error(err))
		return extractionError("Unexpected error: "+err.Error(), noUsage)
	}

	zap.L().Info("assess: extracting production date", zap.String("filename", item.Filename))
	resp, err := s.gateway.Infer(ctx, vision.Request{
		Text:      s.rubric.DatePrompt(),
		Images:    images,
		Model:     s.cfg.DateModel,
		MaxTokens: s.cfg.DateMaxTokens,
	})
	if err != nil {
		zap.L().Error("assess: date extraction failed", zap.String("filename", item.Filename), zap.Error(err))
		return extractionError(model.AsError(err).Message, model.NewTokenUsage(s.cfg.DateModel, 0, 0))
	}

	answer := strings.TrimSpace(resp.Text)
	zap.L().Debug("assess: date extraction answer", zap.String("answer", answer))
	if s.rubric.IsSentinel(answer) {
		zap.L().Warn("assess: no production date found", zap.String("filename", item.Filename))
		return extractionError(msgNoDateVisible, resp.Usage)
	}

	date := eligibility.ExtractManufactureDate(answer)
	return model.DateExtraction{
		Status:         model.ExtractionSuccess,
		ProductionDate: &date,
		Usage:          resp.Usage,
	}
}

func extractionError(msg string, usage model.TokenUsage) model.DateExtraction {
	return model.DateExtraction{
		Status: model.ExtractionError,
		Error:  msg,
		Usage:  usage,
	}
}
