package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldOperation names the top-level command being run (convert, combine, split).
	FieldOperation = "operation"
	// FieldFile is the source file a record refers to.
	FieldFile = "file"
	// FieldRunID identifies one CLI invocation across console and file output.
	FieldRunID = "run_id"
	// FieldEventType classifies a record for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step a user can take.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)
