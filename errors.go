package docpipe

import "errors"

var (
	// ErrUnsupportedFormat is returned when an uploaded file's extension is
	// neither .pdf nor one of the accepted raster image formats.
	ErrUnsupportedFormat = errors.New("docpipe: unsupported file type")

	// ErrConversionFailed is returned when an image cannot be rendered to PDF.
	ErrConversionFailed = errors.New("docpipe: image to PDF conversion failed")

	// ErrExtractionFailed is returned when the document extraction service
	// reports a failure.
	ErrExtractionFailed = errors.New("docpipe: document extraction failed")

	// ErrNotConfigured is returned at construction when the selected
	// extraction backend has no usable credential.
	ErrNotConfigured = errors.New("docpipe: extraction service not configured")
)
