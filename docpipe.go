// Package docpipe orchestrates the document ingestion pipeline: store an
// uploaded file, normalize it to PDF, extract text and images through a
// parsing backend, and derive identity fields from the text via an LLM.
package docpipe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/lbarbosa/docpipe/convert"
	"github.com/lbarbosa/docpipe/extract"
	"github.com/lbarbosa/docpipe/identity"
	"github.com/lbarbosa/docpipe/llm"
	"github.com/lbarbosa/docpipe/store"
	"github.com/lbarbosa/docpipe/tmpfile"
)

// Result is the final payload assembled for one processed document. The
// identity stage is independently error-bearing: its failure is reported
// inside Identity without failing the request.
type Result struct {
	Message           string                `json:"message"`
	OriginalFilename  string                `json:"original_filename"`
	ProcessedFilePath string                `json:"processed_file_path"`
	Raw               json.RawMessage       `json:"raw_extraction_payload"`
	TextSegments      []extract.TextSegment `json:"extracted_text_segments"`
	Images            []extract.ImageRef    `json:"extracted_image_documents"`
	Identity          identity.Fields       `json:"extracted_identity_fields"`
}

// Pipeline is the per-request orchestrator. It is safe for concurrent use:
// requests share nothing but the upload directory, where generated names
// prevent collisions.
type Pipeline struct {
	cfg        Config
	uploads    *tmpfile.Store
	extractor  extract.Extractor
	identifier *identity.Extractor
	history    *store.Store
}

// Option overrides a pipeline component, mainly for tests.
type Option func(*Pipeline)

// WithExtractor replaces the extraction backend.
func WithExtractor(e extract.Extractor) Option {
	return func(p *Pipeline) { p.extractor = e }
}

// WithIdentity replaces the identity extractor.
func WithIdentity(e *identity.Extractor) Option {
	return func(p *Pipeline) { p.identifier = e }
}

// New builds a pipeline from cfg. A llamaparse backend without an API key
// is a hard configuration error; a hosted LLM provider without an API key
// only disables the identity stage.
func New(cfg Config, opts ...Option) (*Pipeline, error) {
	def := DefaultConfig()
	if cfg.UploadsDir == "" {
		cfg.UploadsDir = def.UploadsDir
	}
	if cfg.ProcessingDir == "" {
		cfg.ProcessingDir = def.ProcessingDir
	}
	if cfg.Extractor == "" {
		cfg.Extractor = def.Extractor
	}

	p := &Pipeline{cfg: cfg}
	for _, o := range opts {
		o(p)
	}

	uploads, err := tmpfile.New(cfg.UploadsDir, "uploaded_")
	if err != nil {
		return nil, err
	}
	p.uploads = uploads

	if p.extractor == nil {
		switch cfg.Extractor {
		case "llamaparse":
			if cfg.LlamaParse.APIKey == "" {
				return nil, fmt.Errorf("%w: LlamaParse API key missing", ErrNotConfigured)
			}
			p.extractor = extract.NewLlamaParse(extract.LlamaParseConfig{
				APIKey:   cfg.LlamaParse.APIKey,
				BaseURL:  cfg.LlamaParse.BaseURL,
				ImageDir: cfg.ProcessingDir,
			})
		case "native":
			p.extractor = extract.NewNative()
		default:
			return nil, fmt.Errorf("unknown extractor backend: %s", cfg.Extractor)
		}
	}

	if p.identifier == nil {
		p.identifier = buildIdentity(cfg.LLM)
	}

	if p.history == nil && cfg.HistoryDBPath != "" {
		h, err := store.Open(cfg.HistoryDBPath)
		if err != nil {
			return nil, fmt.Errorf("opening history store: %w", err)
		}
		p.history = h
	}

	return p, nil
}

// buildIdentity returns a live extractor when the LLM configuration is
// usable, and the disabled variant otherwise.
func buildIdentity(cfg LLMConfig) *identity.Extractor {
	if cfg.Provider == "" {
		slog.Info("identity extraction disabled: no LLM provider configured")
		return identity.NewDisabled()
	}
	if llm.RequiresAPIKey(cfg.Provider) && cfg.APIKey == "" {
		slog.Info("identity extraction disabled: no API key for provider",
			"provider", cfg.Provider)
		return identity.NewDisabled()
	}
	provider, err := llm.NewProvider(llm.Config{
		Provider: cfg.Provider,
		Model:    cfg.Model,
		BaseURL:  cfg.BaseURL,
		APIKey:   cfg.APIKey,
	})
	if err != nil {
		slog.Warn("identity extraction disabled", "error", err)
		return identity.NewDisabled()
	}
	return identity.New(provider, cfg.Model)
}

// History returns the history store, or nil when disabled.
func (p *Pipeline) History() *store.Store { return p.history }

// Close releases pipeline resources.
func (p *Pipeline) Close() error {
	if p.history != nil {
		return p.history.Close()
	}
	return nil
}

// Process runs one uploaded document through the full pipeline. The stored
// upload and any converted PDF are deleted on every exit path. Failures in
// the mandatory stages (store, normalize, extract) are returned as errors;
// the identity stage reports its failures inside the result instead.
func (p *Pipeline) Process(ctx context.Context, filename string, content io.Reader) (res *Result, err error) {
	defer func() { p.record(ctx, filename, res, err) }()

	ext := strings.ToLower(filepath.Ext(filename))
	if !convert.IsSupported(ext) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	uploadPath, err := p.uploads.Save(filename, content)
	if err != nil {
		return nil, fmt.Errorf("saving upload: %w", err)
	}
	var convertedPath string
	defer func() {
		p.uploads.Remove(uploadPath, convertedPath)
	}()

	processPath := uploadPath
	if convert.IsImage(ext) {
		slog.Info("converting image to PDF", "filename", filename)
		converted, cerr := convert.ToPDF(uploadPath)
		if cerr != nil {
			return nil, fmt.Errorf("%w: %v", ErrConversionFailed, cerr)
		}
		convertedPath = converted
		processPath = converted
	}

	extracted, err := p.extractor.Extract(ctx, processPath)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", filename, err)
	}
	if extracted.Err != "" {
		return nil, fmt.Errorf("%w: %s", ErrExtractionFailed, extracted.Err)
	}

	var fields identity.Fields
	if text := extracted.JoinText(); strings.TrimSpace(text) == "" {
		// Deliberate short-circuit: nothing to send to the LLM.
		fields = identity.Fields{Error: "no text available"}
	} else {
		fields = p.identifier.Extract(ctx, text)
	}

	segments := extracted.Texts
	if segments == nil {
		segments = []extract.TextSegment{}
	}
	images := extracted.Images
	if images == nil {
		images = []extract.ImageRef{}
	}

	return &Result{
		Message:           "Document processed successfully.",
		OriginalFilename:  filename,
		ProcessedFilePath: processPath,
		Raw:               extracted.Raw,
		TextSegments:      segments,
		Images:            images,
		Identity:          fields,
	}, nil
}

// record appends the outcome to the history store when one is configured.
// Recording failures are logged, never surfaced.
func (p *Pipeline) record(ctx context.Context, filename string, res *Result, perr error) {
	if p.history == nil {
		return
	}
	e := store.Entry{Filename: filename, Status: "ok"}
	if perr != nil {
		e.Status = "failed"
		e.Error = perr.Error()
	} else if res != nil {
		e.ProcessedPath = res.ProcessedFilePath
		e.Name = res.Identity.Name
		e.DOB = res.Identity.DOB
		e.Age = res.Identity.Age
		e.Error = res.Identity.Error
	}
	if err := p.history.Record(ctx, e); err != nil {
		slog.Warn("history: could not record outcome", "filename", filename, "error", err)
	}
}
