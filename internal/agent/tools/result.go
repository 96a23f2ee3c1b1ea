// Package tools holds the mock function tools offered to agents and the
// registry that resolves tool references to ADK tools.
package tools

// Status values carried by every mock tool result.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Report is the result of the weather and time tools.
type Report struct {
	Status       string `json:"status"`
	Report       string `json:"report,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

func successReport(report string) Report {
	return Report{Status: StatusSuccess, Report: report}
}

func errorReport(msg string) Report {
	return Report{Status: StatusError, ErrorMessage: msg}
}

// CityArgs is the input of the weather and time tools.
type CityArgs struct {
	City string `json:"city" jsonschema:"The name of the city for which to retrieve the report."`
}
