// Package vision sends evidence images and an instruction to the vision
// model and classifies what comes back.
package vision

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bottle-claims/internal/model"
	"github.com/sells-group/bottle-claims/internal/resilience"
	"github.com/sells-group/bottle-claims/pkg/anthropic"
)

// StatusOverloaded is the API's "overloaded" answer.
const StatusOverloaded = 529

// Request is one inference call: an instruction with its evidence images.
type Request struct {
	System      string
	CacheSystem bool
	Text        string
	Images      model.EvidenceSet
	// Model overrides the active model. The fallback model still applies.
	Model     string
	MaxTokens int64
}

// Response is the model's text answer and its token usage.
type Response struct {
	Text  string
	Usage model.TokenUsage
	Model string
}

// Adapter performs inference calls.
type Adapter interface {
	Infer(ctx context.Context, req Request) (*Response, error)
}

// ClientFactory builds an API client for a key.
type ClientFactory func(apiKey string, opts anthropic.ClientOptions) (anthropic.Client, error)

// Options configures a Gateway.
type Options struct {
	Key           string
	BaseURL       string
	Model         string
	FallbackModel string
	Timeout       time.Duration
	CacheTTL      string
	Factory       ClientFactory
}

// state is swapped as a whole; it is never mutated once published.
type state struct {
	client anthropic.Client
	model  string
}

// Gateway owns the API client and the model currently in use. It is safe
// for concurrent use; Reinitialize and fallback promotion swap its state
// atomically, and in-flight calls keep the state they started with.
type Gateway struct {
	opts  Options
	state atomic.Pointer[state]
	mu    sync.Mutex
}

// NewGateway builds a gateway and tries to initialize its client. A gateway
// whose client could not be built is returned anyway and reports not ready.
func NewGateway(opts Options) *Gateway {
	if opts.Factory == nil {
		opts.Factory = defaultFactory
	}
	g := &Gateway{opts: opts}
	if err := g.Reinitialize(); err != nil {
		zap.L().Warn("vision: client not initialized", zap.Error(err))
	}
	return g
}

func defaultFactory(apiKey string, opts anthropic.ClientOptions) (anthropic.Client, error) {
	return anthropic.NewClient(apiKey, opts), nil
}

// Reinitialize builds a fresh client and resets the active model to the
// configured one.
func (g *Gateway) Reinitialize() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.opts.Key == "" {
		return eris.New("vision: no API key configured")
	}
	client, err := g.opts.Factory(g.opts.Key, anthropic.ClientOptions{
		BaseURL: g.opts.BaseURL,
		Timeout: g.opts.Timeout,
	})
	if err != nil {
		return eris.Wrap(err, "vision: build client")
	}
	g.state.Store(&state{client: client, model: g.opts.Model})
	zap.L().Info("vision: client initialized", zap.String("model", g.opts.Model))
	return nil
}

// Ready reports whether a client is available.
func (g *Gateway) Ready() bool {
	return g.state.Load() != nil
}

// ActiveModel returns the model used when a request names none.
func (g *Gateway) ActiveModel() string {
	if st := g.state.Load(); st != nil {
		return st.model
	}
	return g.opts.Model
}

// Infer runs the request on the requested or active model. When that model
// is unavailable the request is tried once on the fallback model; if the
// fallback answers in place of the active model it becomes the active model.
func (g *Gateway) Infer(ctx context.Context, req Request) (*Response, error) {
	st := g.state.Load()
	if st == nil {
		return nil, model.NewError(model.KindAdapterUnavailable, "The vision client is not available.")
	}

	primary := req.Model
	if primary == "" {
		primary = st.model
	}

	strategies := []resilience.Strategy[*Response]{{
		Name: primary,
		Run: func(ctx context.Context) (*Response, error) {
			return g.call(ctx, st.client, primary, req)
		},
	}}
	fallback := g.opts.FallbackModel
	if fallback != "" && fallback != primary {
		strategies = append(strategies, resilience.Strategy[*Response]{
			Name: fallback,
			Run: func(ctx context.Context) (*Response, error) {
				return g.call(ctx, st.client, fallback, req)
			},
		})
	}

	chain := resilience.Fallback[*Response]{
		Strategies: strategies,
		Handover: func(err error) bool {
			return model.KindOf(err) == model.KindAdapterUnavailable
		},
		OnFallback: func(from, to string, err error) {
			zap.L().Warn("vision: model unavailable, trying fallback",
				zap.String("from", from),
				zap.String("to", to),
				zap.Error(err),
			)
		},
	}

	res := chain.Run(ctx)
	if res.Exhausted() {
		if res.Err == nil {
			return nil, model.NewError(model.KindAdapterError, "The vision service returned no answer.")
		}
		return nil, classifyContext(res.Err)
	}

	if res.Strategy == fallback && primary == st.model {
		if g.state.CompareAndSwap(st, &state{client: st.client, model: fallback}) {
			zap.L().Warn("vision: promoted fallback model",
				zap.String("from", primary),
				zap.String("to", fallback),
			)
		}
	}
	return res.Value, nil
}

func (g *Gateway) call(ctx context.Context, client anthropic.Client, modelID string, req Request) (*Response, error) {
	images := make([]anthropic.Image, len(req.Images))
	for i, ev := range req.Images {
		images[i] = anthropic.Image{MediaType: ev.MediaType, Data: ev.Data}
	}

	var system []anthropic.SystemBlock
	if req.System != "" {
		if req.CacheSystem {
			system = anthropic.BuildCachedSystemBlocks(req.System, g.opts.CacheTTL)
		} else {
			system = anthropic.BuildSystemBlocks(req.System)
		}
	}

	start := time.Now()
	resp, err := client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     modelID,
		MaxTokens: req.MaxTokens,
		System:    system,
		Messages: []anthropic.Message{{
			Role:    "user",
			Content: req.Text,
			Images:  images,
		}},
	})
	if err != nil {
		return nil, Classify(modelID, err)
	}

	usage := model.NewTokenUsage(modelID, resp.Usage.TotalInput(), resp.Usage.OutputTokens)
	zap.L().Debug("vision: inference complete",
		zap.String("model", modelID),
		zap.Int("images", len(images)),
		zap.Int64("input_tokens", usage.InputTokens),
		zap.Int64("cache_read_tokens", resp.Usage.CacheReadInputTokens),
		zap.Int64("output_tokens", usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &Response{Text: resp.Text(), Usage: usage, Model: modelID}, nil
}

// Classify maps a client failure to the error taxonomy.
func Classify(modelID string, err error) *model.Error {
	status := anthropic.StatusCode(err)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return model.WrapError(model.KindAdapterAuthFailure, 0,
			"Authentication with the vision service failed. Check the API key.", err)
	case status == http.StatusNotFound || status == StatusOverloaded:
		return model.WrapError(model.KindAdapterUnavailable, 0,
			fmt.Sprintf("The vision model %s is currently unavailable.", modelID), err)
	case status == 0 && resilience.IsTransient(err):
		return model.WrapError(model.KindAdapterConnectionFailure, 0,
			"The vision service did not respond in time.", err)
	case status == 0:
		return model.WrapError(model.KindAdapterConnectionFailure, 0,
			"Could not connect to the vision service.", err)
	default:
		return model.WrapError(model.KindAdapterError, status,
			fmt.Sprintf("The vision service returned an error (status %d).", status), err)
	}
}

// classifyContext keeps classified errors and maps a chain stopped by a
// cancelled context to a connection failure.
func classifyContext(err error) error {
	var e *model.Error
	if errors.As(err, &e) {
		return e
	}
	return model.WrapError(model.KindAdapterConnectionFailure, 0, "The vision request was cancelled.", err)
}
