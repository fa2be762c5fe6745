package handlers

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/pkoukk/tiktoken-go"

	"github.com/Davincible/llmwire/internal/canonical"
	"github.com/Davincible/llmwire/internal/config"
	"github.com/Davincible/llmwire/internal/connect"
	"github.com/Davincible/llmwire/internal/providers"
)

const longContextThreshold = 60000

// Dispatcher sends canonical requests to the provider selected by the
// routing config and returns canonical responses. It owns endpoint
// resolution, wire encoding and upstream decompression.
type Dispatcher struct {
	config   *config.Manager
	registry *providers.Registry
	client   *http.Client
	logger   *slog.Logger
}

func NewDispatcher(cfg *config.Manager, registry *providers.Registry, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		config:   cfg,
		registry: registry,
		client:   http.DefaultClient,
		logger:   logger,
	}
}

// Dispatch routes and sends one canonical request. The request's model
// field is rewritten to the routed model before encoding.
func (d *Dispatcher) Dispatch(ctx context.Context, req *canonical.Request) (*canonical.Response, error) {
	cfg := d.config.Get()

	inputTokens := d.estimateTokens(req)
	providerName, model := d.route(req, inputTokens, &cfg.Router)

	providerCfg, ok := cfg.Provider(providerName)
	if !ok {
		return nil, fmt.Errorf("provider %q not found in configuration", providerName)
	}

	descriptor := providerCfg.Descriptor()

	endpoint, err := connect.Resolve(descriptor, config.NewSecretSource(cfg))
	if err != nil {
		return nil, err
	}

	codec := d.registry.Get(descriptor.Kind)

	routed := *req
	routed.Model = model

	body, err := codec.EncodeRequest(&routed)
	if err != nil {
		return nil, fmt.Errorf("encode request for %s: %w", providerName, err)
	}

	url := endpoint.URL(codec.EndpointSuffix(model))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range endpoint.Headers {
		httpReq.Header.Set(k, v)
	}

	d.logger.Info("Dispatching request",
		"provider", providerName,
		"model", model,
		"url", url,
		"input_tokens", inputTokens,
	)

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	reader, err := decompressReader(resp)
	if err != nil {
		return nil, fmt.Errorf("decompress upstream response: %w", err)
	}
	if closer, ok := reader.(io.Closer); ok {
		defer closer.Close()
	}

	respBody, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		d.logger.Error("Upstream error response",
			"provider", providerName,
			"status", resp.StatusCode,
			"body", string(respBody),
		)

		return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	out, err := codec.DecodeResponse(respBody)
	if err != nil {
		return nil, fmt.Errorf("decode upstream response: %w", err)
	}

	d.logResponse(out)

	return out, nil
}

// route picks "provider,model" from the router config. Requests whose
// token estimate crosses the long-context threshold use the
// longContext target when one is configured.
func (d *Dispatcher) route(req *canonical.Request, inputTokens int, router *config.RouterConfig) (string, string) {
	target := router.Default

	if router.LongContext != "" && inputTokens > longContextThreshold {
		target = router.LongContext
	}

	if req.Model != "" && strings.Contains(req.Model, ",") {
		target = req.Model
	}

	parts := strings.SplitN(target, ",", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}

	return parts[0], req.Model
}

// estimateTokens counts input tokens over the message contents,
// falling back to a length heuristic when the encoding is unavailable.
func (d *Dispatcher) estimateTokens(req *canonical.Request) int {
	var b strings.Builder
	for _, m := range req.Messages {
		b.WriteString(m.Content)
	}

	text := b.String()

	tke, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		d.logger.Error("Failed to get tiktoken encoding", "error", err)
		return len(text) / 4
	}

	return len(tke.Encode(text, nil, nil))
}

func (d *Dispatcher) logResponse(resp *canonical.Response) {
	fields := []any{"id", resp.ID, "model", resp.Model}

	if resp.Usage != nil {
		fields = append(fields,
			"input_tokens", resp.Usage.InputTokens,
			"output_tokens", resp.Usage.OutputTokens,
		)
	}

	d.logger.Info("Successful response", fields...)
}

func decompressReader(resp *http.Response) (io.Reader, error) {
	var reader io.Reader = resp.Body

	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		reader = gzipReader
	case "br":
		reader = brotli.NewReader(resp.Body)
	}

	return reader, nil
}
