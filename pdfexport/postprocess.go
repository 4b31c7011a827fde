package pdfexport

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Postprocess optimizes the exported file in place and returns its page
// count. Relaxed validation accepts the constructs Chrome emits that a
// strict pass rejects.
func Postprocess(path string) (int, error) {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	if err := api.OptimizeFile(path, "", cfg); err != nil {
		return 0, fmt.Errorf("optimize %s: %w", path, err)
	}
	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("page count %s: %w", path, err)
	}
	return pageCount, nil
}
