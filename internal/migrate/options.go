package migrate

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Options are the per-run settings of a migration.
type Options struct {
	// Source is the notebook folder produced by the Markdown converter.
	Source string
	// ReportPath is where the CSV report is written; empty disables it.
	ReportPath string
	// Keep skips removal of the source note folders.
	Keep bool
	// Overwrite replaces an existing destination file instead of suffixing
	// when a note without attachments collides.
	Overwrite bool
	// ReportOnly resolves names and builds the report without copying,
	// writing, or removing anything. Names in such a report are provisional.
	ReportOnly bool
}

// Validate checks option consistency.
func (o Options) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Source, validation.Required),
		validation.Field(&o.ReportPath,
			validation.Required.When(o.ReportOnly).Error("required when running report-only")),
	)
}
