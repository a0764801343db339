package readers

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ReadPDF extracts the plain text of every page of the PDF at path and
// returns it with the page count.
func ReadPDF(path string) (pages int, text string, err error) {
	// The pdf package panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			pages, text, err = 0, "", fmt.Errorf("parsing pdf %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, "", fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return 0, "", fmt.Errorf("extracting text from %s: %w", path, err)
	}
	var sb strings.Builder
	if _, err := io.Copy(&sb, plain); err != nil {
		return 0, "", fmt.Errorf("reading text from %s: %w", path, err)
	}
	return r.NumPage(), sb.String(), nil
}
