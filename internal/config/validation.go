package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/opd-ai/go-meme/internal/render"
	"github.com/opd-ai/go-meme/internal/source"
)

// ValidationError represents a configuration validation error.
// It contains the field name and a description of the issue.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the results of a configuration validation.
type ValidationResult struct {
	// Errors contains all validation errors found.
	Errors []ValidationError
	// Warnings contains non-fatal issues such as values outside the
	// interactive control ranges.
	Warnings []ValidationError
}

// IsValid returns true if there are no validation errors.
func (vr *ValidationResult) IsValid() bool {
	return len(vr.Errors) == 0
}

// Error returns a combined error message if there are errors, nil otherwise.
func (vr *ValidationResult) Error() error {
	if len(vr.Errors) == 0 {
		return nil
	}

	messages := make([]string, 0, len(vr.Errors))
	for _, e := range vr.Errors {
		messages = append(messages, e.Error())
	}
	return fmt.Errorf("validation failed: %s", strings.Join(messages, "; "))
}

// AddError adds a validation error.
func (vr *ValidationResult) AddError(field, message string) {
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Message: message})
}

// AddWarning adds a validation warning.
func (vr *ValidationResult) AddWarning(field, message string) {
	vr.Warnings = append(vr.Warnings, ValidationError{Field: field, Message: message})
}

// Merge combines another ValidationResult into this one.
func (vr *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	vr.Errors = append(vr.Errors, other.Errors...)
	vr.Warnings = append(vr.Warnings, other.Warnings...)
}

// Validator checks a Config before it is rendered.
type Validator struct {
	// strictMode turns range warnings into errors.
	strictMode bool
	// checkFiles stats font_file and local image paths.
	checkFiles bool
}

// NewValidator creates a new Validator with default settings.
func NewValidator() *Validator {
	return &Validator{checkFiles: true}
}

// WithStrictMode makes values outside the interactive ranges errors.
func (v *Validator) WithStrictMode(strict bool) *Validator {
	v.strictMode = strict
	return v
}

// WithFileChecks controls whether referenced files must exist.
func (v *Validator) WithFileChecks(check bool) *Validator {
	v.checkFiles = check
	return v
}

// Validate performs validation of a Config.
func (v *Validator) Validate(cfg *Config) *ValidationResult {
	result := &ValidationResult{}
	if cfg == nil {
		result.AddError("config", "is nil")
		return result
	}

	v.validateImage(&cfg.Image, result)
	v.validateCaption(&cfg.Caption, result)
	v.validateTransform(&cfg.Transform, result)
	v.validateLayout(&cfg.Layout, result)
	v.validateOutput(&cfg.Output, result)

	return result
}

// rangeIssue reports a value outside an interactive range.
func (v *Validator) rangeIssue(result *ValidationResult, field, message string) {
	if v.strictMode {
		result.AddError(field, message)
		return
	}
	result.AddWarning(field, message)
}

func (v *Validator) validateImage(ic *ImageConfig, result *ValidationResult) {
	if ic.Timeout < 0 {
		result.AddError("timeout", fmt.Sprintf("must be non-negative, got %v", ic.Timeout))
	}
	if strings.TrimSpace(ic.Source) == "" {
		result.AddWarning("image", "no image source; nothing will be drawn until one is loaded")
		return
	}
	if _, err := source.Resolve(ic.Source); err != nil {
		result.AddError("image", err.Error())
	}
}

func (v *Validator) validateCaption(cc *CaptionConfig, result *ValidationResult) {
	if !finite(cc.FontSize) || cc.FontSize <= 0 {
		result.AddError("font_size", fmt.Sprintf("must be positive, got %g", cc.FontSize))
	}
	if !finite(cc.TopOffset) {
		result.AddError("top_offset", "must be finite")
	}
	if !finite(cc.BottomOffset) {
		result.AddError("bottom_offset", "must be finite")
	}
	if cc.Color.A == 0 {
		result.AddWarning("text_color", "captions are fully transparent")
	}
	if cc.FontFile != "" && v.checkFiles {
		info, err := os.Stat(cc.FontFile)
		switch {
		case errors.Is(err, os.ErrNotExist):
			result.AddError("font_file", fmt.Sprintf("file not found: %s", cc.FontFile))
		case err != nil:
			result.AddError("font_file", err.Error())
		case info.IsDir():
			result.AddError("font_file", fmt.Sprintf("is a directory: %s", cc.FontFile))
		}
	}
}

func (v *Validator) validateTransform(tc *TransformConfig, result *ValidationResult) {
	if !finite(tc.Scale) || tc.Scale <= 0 {
		result.AddError("scale", fmt.Sprintf("must be a positive number, got %g", tc.Scale))
	} else if tc.Scale < MinScale || tc.Scale > MaxScale {
		v.rangeIssue(result, "scale",
			fmt.Sprintf("%g is outside the control range %g to %g", tc.Scale, MinScale, MaxScale))
	}

	if !finite(tc.Rotate) {
		result.AddError("rotate", "must be finite")
	} else if tc.Rotate < MinRotate || tc.Rotate > MaxRotate {
		v.rangeIssue(result, "rotate",
			fmt.Sprintf("%g is outside the control range %g to %g", tc.Rotate, MinRotate, MaxRotate))
	}

	if tc.MirrorAxis != render.MirrorVertical && tc.MirrorAxis != render.MirrorHorizontal {
		result.AddError("mirror_axis", fmt.Sprintf("unknown axis: %d", tc.MirrorAxis))
	}
}

func (v *Validator) validateLayout(lc *LayoutConfig, result *ValidationResult) {
	if !finite(lc.MaxWidth) || lc.MaxWidth < 1 {
		result.AddError("max_width", fmt.Sprintf("must be at least 1, got %g", lc.MaxWidth))
	}
	if !finite(lc.ViewportWidth) || lc.ViewportWidth <= 0 {
		result.AddError("viewport_width", fmt.Sprintf("must be positive, got %g", lc.ViewportWidth))
		return
	}
	if render.DisplayWidth(lc.ViewportWidth, lc.MaxWidth) < 1 {
		result.AddError("viewport_width",
			fmt.Sprintf("%g gives a canvas narrower than one pixel", lc.ViewportWidth))
	}

	const maxDimension = 10000
	if lc.MaxWidth > maxDimension {
		result.AddWarning("max_width", fmt.Sprintf("unusually large value %g", lc.MaxWidth))
	}
}

func (v *Validator) validateOutput(oc *OutputConfig, result *ValidationResult) {
	if _, err := render.ParseFormat(string(oc.Format)); err != nil {
		result.AddError("format", err.Error())
	}
	if oc.Quality < 1 || oc.Quality > 100 {
		result.AddError("quality", fmt.Sprintf("must be between 1 and 100, got %d", oc.Quality))
	}
	if oc.Path == "" {
		result.AddWarning("output", "no output path; export needs an explicit destination")
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ValidateConfig is a convenience function to validate a Config with default settings.
// Returns nil if the config is valid, or an error describing validation failures.
func ValidateConfig(cfg *Config) error {
	return NewValidator().Validate(cfg).Error()
}

// ValidateConfigStrict validates a Config with strict mode enabled.
func ValidateConfigStrict(cfg *Config) error {
	return NewValidator().WithStrictMode(true).Validate(cfg).Error()
}
