package helpers

// Mode selects how a command renders its result.
type Mode string

const (
	ModeJSON Mode = "json"
	ModeTUI  Mode = "tui"
)

// OutputFormat is the user-facing value of --format.
type OutputFormat string

const (
	OutputFormatAuto OutputFormat = "auto"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatTUI  OutputFormat = "tui"
)
