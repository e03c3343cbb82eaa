package validate

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// CheckPDF verifies that a .pdf on disk is readable and has at least one
// page. This catches corrupt or truncated PDFs locally, before an upload
// burns a round trip.
func CheckPDF(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	pageCount, err := api.PageCount(f, nil)
	if err != nil {
		return fmt.Errorf("无法读取PDF文件 %s: %w", path, err)
	}
	if pageCount < 1 {
		return fmt.Errorf("PDF文件没有页面: %s", path)
	}
	return nil
}
