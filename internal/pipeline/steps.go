package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"

	"github.com/nao1215/webgrep/internal/resource"
)

// probeBinary checks that a binary exists and can be invoked with a
// harmless flag. A non-zero exit still counts as present: some tools
// exit non-zero on --help, and presence is all the probe asserts.
func probeBinary(binary, flag, message string) Availability {
	if _, err := exec.LookPath(binary); err != nil {
		return Availability{OK: false, Message: message}
	}

	err := exec.Command(binary, flag).Run() //nolint:gosec // Fixed binary name and flag
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return Availability{OK: false, Message: message}
	}
	return Availability{OK: true}
}

// guard reports whether the resource's type is one the step registered
// for. Steps shared across tables use it to no-op safely.
func guard(res *resource.Resource, types []resource.Type) bool {
	return slices.Contains(types, res.Type)
}

// runWithStdin feeds content to a binary on stdin and returns stdout.
func runWithStdin(ctx context.Context, content []byte, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec // Fixed binary names
	cmd.Stdin = bytes.NewReader(content)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", binary, err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// runOnFile invokes a binary against a persisted file and returns
// stdout. Tools that report findings on stderr or via exit status for
// unremarkable inputs still yield usable (possibly empty) output.
func runOnFile(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec // Fixed binary names, path from our own storage
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// The tool ran and judged the input; its stdout is the result.
			return stdout.Bytes(), nil
		}
		return nil, fmt.Errorf("%s failed: %w", binary, err)
	}
	return stdout.Bytes(), nil
}

// JSBeautifyStep unminifies JavaScript before it is persisted, so grep
// matches and line numbers refer to readable code.
type JSBeautifyStep struct{}

// NewJSBeautifyStep creates the JavaScript beautification preprocessor.
func NewJSBeautifyStep() *JSBeautifyStep {
	return &JSBeautifyStep{}
}

// Name returns the step name.
func (s *JSBeautifyStep) Name() string { return "js-beautify" }

// Types returns the resource types the step applies to.
func (s *JSBeautifyStep) Types() []resource.Type {
	return []resource.Type{resource.TypeScript, resource.TypeInlineScript}
}

// Probe checks for the js-beautify binary.
func (s *JSBeautifyStep) Probe() Availability {
	return probeBinary("js-beautify", "--version",
		"install js-beautify to unminify JavaScript before searching")
}

// Run feeds the script to js-beautify on stdin and returns the
// beautified replacement.
func (s *JSBeautifyStep) Run(ctx context.Context, res *resource.Resource) ([]byte, error) {
	if !guard(res, s.Types()) {
		return nil, nil
	}
	return runWithStdin(ctx, res.Content, "js-beautify", "-")
}

// CSSUnminifyStep reformats minified CSS before persistence.
type CSSUnminifyStep struct{}

// NewCSSUnminifyStep creates the CSS unminification preprocessor.
func NewCSSUnminifyStep() *CSSUnminifyStep {
	return &CSSUnminifyStep{}
}

// Name returns the step name.
func (s *CSSUnminifyStep) Name() string { return "css-unminify" }

// Types returns the resource types the step applies to.
func (s *CSSUnminifyStep) Types() []resource.Type {
	return []resource.Type{resource.TypeStyle, resource.TypeInlineStyle}
}

// Probe checks for the js-beautify binary, which also handles CSS.
func (s *CSSUnminifyStep) Probe() Availability {
	return probeBinary("js-beautify", "--version",
		"install js-beautify to unminify stylesheets before searching")
}

// Run feeds the stylesheet to js-beautify in CSS mode.
func (s *CSSUnminifyStep) Run(ctx context.Context, res *resource.Resource) ([]byte, error) {
	if !guard(res, s.Types()) {
		return nil, nil
	}
	return runWithStdin(ctx, res.Content, "js-beautify", "--type", "css", "-")
}

// ExifStep derives a text dump of an image's EXIF metadata. It runs
// in-process: the EXIF library is compiled in, so its probe is always
// satisfied.
type ExifStep struct{}

// NewExifStep creates the EXIF metadata deriver.
func NewExifStep() *ExifStep {
	return &ExifStep{}
}

// Name returns the step name.
func (s *ExifStep) Name() string { return "exif" }

// Types returns the resource types the step applies to.
func (s *ExifStep) Types() []resource.Type {
	return []resource.Type{resource.TypeImage}
}

// Probe always succeeds for in-process steps.
func (s *ExifStep) Probe() Availability {
	return Availability{OK: true}
}

// Run extracts EXIF entries as "TagName = Value" lines. Images without
// EXIF segments yield empty output, which is itself meaningful: the
// derived child is persisted as an empty file.
func (s *ExifStep) Run(_ context.Context, res *resource.Resource) ([]byte, error) {
	if !guard(res, s.Types()) {
		return nil, nil
	}

	rawExif, err := exif.SearchAndExtractExif(res.Content)
	if err != nil || rawExif == nil {
		return []byte{}, nil
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return []byte{}, nil
	}

	var sb strings.Builder
	for _, entry := range entries {
		sb.WriteString(entry.TagName)
		sb.WriteString(" = ")
		sb.WriteString(entry.Formatted)
		sb.WriteString("\n")
	}
	return []byte(sb.String()), nil
}

// StringsStep derives the printable strings embedded in an image file,
// exposing text hidden in binary payloads to the search.
type StringsStep struct{}

// NewStringsStep creates the printable-strings deriver.
func NewStringsStep() *StringsStep {
	return &StringsStep{}
}

// Name returns the step name.
func (s *StringsStep) Name() string { return "strings" }

// Types returns the resource types the step applies to.
func (s *StringsStep) Types() []resource.Type {
	return []resource.Type{resource.TypeImage}
}

// Probe checks for the strings binary.
func (s *StringsStep) Probe() Availability {
	return probeBinary("strings", "--version",
		"install binutils to extract printable strings from images")
}

// Run invokes strings against the persisted image file.
func (s *StringsStep) Run(ctx context.Context, res *resource.Resource) ([]byte, error) {
	if !guard(res, s.Types()) {
		return nil, nil
	}
	return runOnFile(ctx, "strings", "--", res.AbsPath)
}

// OCRStep derives recognized text from an image via tesseract, so text
// rendered into images becomes searchable.
type OCRStep struct{}

// NewOCRStep creates the OCR deriver.
func NewOCRStep() *OCRStep {
	return &OCRStep{}
}

// Name returns the step name.
func (s *OCRStep) Name() string { return "ocr" }

// Types returns the resource types the step applies to.
func (s *OCRStep) Types() []resource.Type {
	return []resource.Type{resource.TypeImage}
}

// Probe checks for the tesseract binary.
func (s *OCRStep) Probe() Availability {
	return probeBinary("tesseract", "--version",
		"install tesseract-ocr to recognize text inside images")
}

// Run invokes tesseract against the persisted image file, writing the
// recognized text to stdout.
func (s *OCRStep) Run(ctx context.Context, res *resource.Resource) ([]byte, error) {
	if !guard(res, s.Types()) {
		return nil, nil
	}
	return runOnFile(ctx, "tesseract", res.AbsPath, "stdout")
}

// SteghideStep derives steghide's embedded-data report for an image.
type SteghideStep struct{}

// NewSteghideStep creates the steghide probing deriver.
func NewSteghideStep() *SteghideStep {
	return &SteghideStep{}
}

// Name returns the step name.
func (s *SteghideStep) Name() string { return "steghide" }

// Types returns the resource types the step applies to.
func (s *SteghideStep) Types() []resource.Type {
	return []resource.Type{resource.TypeImage}
}

// Probe checks for the steghide binary.
func (s *SteghideStep) Probe() Availability {
	return probeBinary("steghide", "--version",
		"install steghide to probe images for hidden data")
}

// Run asks steghide for embedding info with an empty passphrase.
// Unsupported formats and images without embedded data produce empty or
// error output; both are recorded as the derived child's content.
func (s *SteghideStep) Run(ctx context.Context, res *resource.Resource) ([]byte, error) {
	if !guard(res, s.Types()) {
		return nil, nil
	}
	return runOnFile(ctx, "steghide", "info", "-p", "", "--", res.AbsPath)
}
