package extract

import "context"

// Stub is a deterministic Extractor for tests: it returns a fixed Result or
// error and records how often it was called.
type Stub struct {
	Result *Result
	Err    error
	Calls  int
}

func (s *Stub) Extract(ctx context.Context, pdfPath string) (*Result, error) {
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Result != nil {
		return s.Result, nil
	}
	return &Result{}, nil
}
