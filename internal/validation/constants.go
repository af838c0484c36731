package validation

const (
	// Cancellation limits
	MinCancellationReasonLength = 10
	MaxReasonLength             = 500

	// String lengths
	MaxNotesLength         = 500
	MaxScreenshotRefLength = 512
)
