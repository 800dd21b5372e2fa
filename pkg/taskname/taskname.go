package taskname

// Background task names. Keeping them in one place stops the API binary and
// the worker from drifting apart on the wire format.
const (
	// Quality tasks
	QualityScorePass = "quality:score_pass"
)
