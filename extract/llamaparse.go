package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// LlamaParseConfig configures the LlamaParse cloud client.
type LlamaParseConfig struct {
	APIKey  string
	BaseURL string

	// ImageDir is where extracted page images are downloaded. Empty
	// disables image downloads.
	ImageDir string

	// PollInterval between job status checks. Defaults to 5 seconds.
	PollInterval time.Duration
}

// LlamaParse submits PDFs to the LlamaParse cloud service and retrieves the
// structured JSON result: raw payload, per-page text, and page images.
type LlamaParse struct {
	cfg    LlamaParseConfig
	client *http.Client
}

// NewLlamaParse returns a client for the LlamaParse parsing API.
func NewLlamaParse(cfg LlamaParseConfig) *LlamaParse {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.cloud.llamaindex.ai/api/parsing"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	return &LlamaParse{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// Extract uploads the PDF, waits for the parsing job, and assembles the
// result. Service-side failures are reported through Result.Err; the
// returned error is reserved for local faults such as an unreadable file.
func (p *LlamaParse) Extract(ctx context.Context, pdfPath string) (*Result, error) {
	if p.cfg.APIKey == "" {
		return nil, fmt.Errorf("LlamaParse API key not configured")
	}

	file, err := os.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", pdfPath, err)
	}
	defer file.Close()

	jobID, err := p.upload(ctx, file, filepath.Base(pdfPath))
	if err != nil {
		return &Result{Err: fmt.Sprintf("uploading to LlamaParse: %v", err)}, nil
	}

	raw, err := p.pollResult(ctx, jobID)
	if err != nil {
		return &Result{Err: fmt.Sprintf("getting LlamaParse result: %v", err)}, nil
	}

	res, err := p.buildResult(ctx, jobID, raw)
	if err != nil {
		return &Result{Err: fmt.Sprintf("decoding LlamaParse result: %v", err)}, nil
	}
	return res, nil
}

func (p *LlamaParse) upload(ctx context.Context, file io.Reader, filename string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", err
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, "POST", p.cfg.BaseURL+"/upload", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload failed %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.ID, nil
}

// pollResult polls the JSON result endpoint until the job completes.
// 202 means the job is still running.
func (p *LlamaParse) pollResult(ctx context.Context, jobID string) (json.RawMessage, error) {
	for i := 0; i < 60; i++ { // max ~5 minutes at the default interval
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.cfg.PollInterval):
		}

		req, err := http.NewRequestWithContext(ctx, "GET",
			fmt.Sprintf("%s/job/%s/result/json", p.cfg.BaseURL, jobID), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

		resp, err := p.client.Do(req)
		if err != nil {
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}
		if resp.StatusCode != http.StatusAccepted {
			return nil, fmt.Errorf("LlamaParse error %d: %s", resp.StatusCode, string(body))
		}
	}

	return nil, fmt.Errorf("LlamaParse job timed out")
}

// jobResult mirrors the service's JSON result schema. Only the fields the
// pipeline consumes are decoded; the raw payload is kept verbatim.
type jobResult struct {
	Pages []struct {
		Page   int    `json:"page"`
		Text   string `json:"text"`
		Md     string `json:"md"`
		Images []struct {
			Name   string  `json:"name"`
			Width  float64 `json:"width"`
			Height float64 `json:"height"`
		} `json:"images"`
	} `json:"pages"`
}

func (p *LlamaParse) buildResult(ctx context.Context, jobID string, raw json.RawMessage) (*Result, error) {
	var payload jobResult
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}

	res := &Result{Raw: raw}
	for _, page := range payload.Pages {
		text := page.Text
		if text == "" {
			text = page.Md
		}
		if text != "" {
			res.Texts = append(res.Texts, TextSegment{
				Text:     text,
				Metadata: map[string]string{"page": strconv.Itoa(page.Page)},
			})
		}

		for _, img := range page.Images {
			path, err := p.downloadImage(ctx, jobID, img.Name)
			if err != nil {
				// Best effort: a missing page image does not fail the
				// extraction.
				slog.Warn("llamaparse: image download failed",
					"job_id", jobID, "image", img.Name, "error", err)
				continue
			}
			res.Images = append(res.Images, ImageRef{
				Path: path,
				Metadata: map[string]string{
					"page": strconv.Itoa(page.Page),
					"name": img.Name,
				},
			})
		}
	}
	return res, nil
}

func (p *LlamaParse) downloadImage(ctx context.Context, jobID, name string) (string, error) {
	if p.cfg.ImageDir == "" {
		return "", fmt.Errorf("no image directory configured")
	}
	if err := os.MkdirAll(p.cfg.ImageDir, 0o755); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/job/%s/result/image/%s", p.cfg.BaseURL, jobID, name), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image download failed %d", resp.StatusCode)
	}

	path := filepath.Join(p.cfg.ImageDir, fmt.Sprintf("%s_%s", jobID, filepath.Base(name)))
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(path)
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return path, nil
}
