package main

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/sells-group/bottle-claims/internal/assess"
	"github.com/sells-group/bottle-claims/internal/model"
)

// multipartMemory is how much of a multipart body is held in memory before
// parts spill to temp files.
const multipartMemory = 32 << 20

type handlers struct {
	svc             *assess.Service
	maxRequestBytes int64
}

// errorBody is the JSON payload of every failed request.
type errorBody struct {
	Detail     string     `json:"detail"`
	DetailThai string     `json:"detail_thai,omitempty"`
	Code       model.Kind `json:"code"`
	RequestID  string     `json:"request_id,omitempty"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"vision_ready": h.svc.Ready(),
		"model":        h.svc.ActiveModel(),
	})
}

func (h *handlers) verifyDate(w http.ResponseWriter, r *http.Request) {
	form, err := h.parseForm(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer form.RemoveAll() //nolint:errcheck

	files := uploads(form, "file")
	if len(files) == 0 {
		writeError(w, r, model.NewError(model.KindNoFilesProvided, "No media files provided."))
		return
	}

	out, err := h.svc.VerifyDate(r.Context(), files[0])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) claimability(w http.ResponseWriter, r *http.Request) {
	form, err := h.parseForm(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer form.RemoveAll() //nolint:errcheck

	var raw string
	if v := form.Value["date_verification"]; len(v) > 0 {
		raw = v[0]
	}
	prior, err := model.ParsePriorVerification(raw)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out, err := h.svc.AssessClaim(r.Context(), uploads(form, "files"), prior)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// parseForm bounds and parses a multipart body.
func (h *handlers) parseForm(w http.ResponseWriter, r *http.Request) (*multipart.Form, error) {
	if h.maxRequestBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, model.WrapError(model.KindPayloadTooLarge, 0, "Request body too large.", err)
		}
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, model.WrapError(model.KindInvalidRequest, 0, "Expected a multipart/form-data upload.", err)
		}
		return nil, model.WrapError(model.KindInvalidRequest, 0, "Invalid multipart form.", err)
	}
	return r.MultipartForm, nil
}

// uploads converts the file parts of field into upload items. Parts are
// opened lazily.
func uploads(form *multipart.Form, field string) []model.UploadItem {
	headers := form.File[field]
	items := make([]model.UploadItem, 0, len(headers))
	for _, fh := range headers {
		items = append(items, model.NewUploadItem(fh.Filename, fh.Header.Get("Content-Type"), fh.Size,
			func() (io.ReadCloser, error) { return fh.Open() }))
	}
	return items
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := model.AsError(err)
	reqID := middleware.GetReqID(r.Context())

	fields := []zap.Field{
		zap.String("kind", string(e.Kind)),
		zap.Int("status", e.Status),
		zap.String("request_id", reqID),
		zap.Error(err),
	}
	if e.Status >= http.StatusInternalServerError {
		zap.L().Error("request failed", fields...)
	} else {
		zap.L().Info("request rejected", fields...)
	}

	writeJSON(w, e.Status, errorBody{
		Detail:     e.Message,
		DetailThai: e.Thai,
		Code:       e.Kind,
		RequestID:  reqID,
	})
}
