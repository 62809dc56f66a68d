package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Native extracts text locally, page by page, without any network service.
// It produces no images; pages whose text cannot be decoded are skipped.
type Native struct{}

// NewNative returns the local extraction backend.
func NewNative() *Native { return &Native{} }

func (n *Native) Extract(ctx context.Context, pdfPath string) (*Result, error) {
	f, reader, err := pdf.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	res := &Result{}
	totalPages := reader.NumPage()
	for i := 1; i <= totalPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		res.Texts = append(res.Texts, TextSegment{
			Text:     text,
			Metadata: map[string]string{"page": strconv.Itoa(i)},
		})
	}

	// Synthesize a raw payload equivalent to what the cloud backend
	// returns, so downstream consumers see a uniform shape.
	raw, err := json.Marshal(map[string]any{
		"backend":    "native",
		"page_count": totalPages,
	})
	if err != nil {
		return nil, err
	}
	res.Raw = raw
	return res, nil
}
