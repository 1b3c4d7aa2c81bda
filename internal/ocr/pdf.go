package ocr

import (
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rotisserie/eris"
)

// ValidatePDF checks that the file at path is a well-formed PDF and returns
// its page count. Validation is relaxed; field reports come from a variety of
// mobile export tools that produce slightly off-spec files.
func ValidatePDF(path string) (int, error) {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed

	if err := api.ValidateFile(path, cfg); err != nil {
		return 0, eris.Wrapf(err, "ocr: validate pdf %s", path)
	}

	pages, err := api.PageCountFile(path)
	if err != nil {
		return 0, eris.Wrapf(err, "ocr: page count %s", path)
	}
	return pages, nil
}
