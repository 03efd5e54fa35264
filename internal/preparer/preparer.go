// Package preparer turns a source PDF into the base64 payload submitted for
// analysis. Only a bounded sample of leading pages is sent, which keeps the
// request small for a service billed and rate-limited per page.
package preparer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// DefaultMaxPages is the number of leading pages included in the sample.
const DefaultMaxPages = 2

// ReadError reports an input document that is missing, unreadable, or not a
// parseable PDF.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read document %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// EncodeFirstPages reads the PDF at path, keeps at most the first maxPages
// pages, and returns the resulting document as standard base64. Documents
// already within the bound (including empty and single-page ones) are encoded
// whole. Nothing is written to disk; the trimmed document only ever exists in
// memory.
func EncodeFirstPages(path string, maxPages int) (string, error) {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	f, err := os.Open(path)
	if err != nil {
		return "", &ReadError{Path: path, Err: err}
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pageCount, err := api.PageCount(f, conf)
	if err != nil {
		return "", &ReadError{Path: path, Err: err}
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", &ReadError{Path: path, Err: err}
	}

	var buf bytes.Buffer
	if pageCount > maxPages {
		if err := api.Trim(f, &buf, []string{fmt.Sprintf("1-%d", maxPages)}, conf); err != nil {
			return "", &ReadError{Path: path, Err: err}
		}
	} else {
		if _, err := io.Copy(&buf, f); err != nil {
			return "", &ReadError{Path: path, Err: err}
		}
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
