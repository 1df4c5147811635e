package response

import (
	"finadvisor/internal/calculator"
	"finadvisor/internal/domain/advice"
)

// Status tells the caller which path produced a response
type Status string

const (
	StatusAnswered      Status = "answered"
	StatusGeneral       Status = "general"
	StatusClarification Status = "needs_more_information"
	StatusInvalidInput  Status = "invalid_input"
	StatusError         Status = "error"
)

// Response is the final answer to one question. Recommendations holds the
// displayed ones; Structured.Recommendations always holds the full list.
type Response struct {
	Greeting        string                  `json:"greeting"`
	MainAnswer      string                  `json:"main_answer"`
	Recommendations []advice.Recommendation `json:"recommendations"`
	Hidden          int                     `json:"hidden_recommendations"`
	NextSteps       []string                `json:"next_steps"`
	Text            string                  `json:"response"`
	Structured      StructuredData          `json:"structured_data"`
}

// StructuredData is the machine-readable projection of a response
type StructuredData struct {
	Status             Status                  `json:"status"`
	Domain             advice.Domain           `json:"domain"`
	Intent             advice.Intent           `json:"intent"`
	Confidence         float64                 `json:"confidence"`
	MatchedKeywords    []string                `json:"matched_keywords"`
	Entities           map[string]string       `json:"entities,omitempty"`
	MissingFields      []string                `json:"missing_fields,omitempty"`
	InvalidFields      []string                `json:"invalid_fields,omitempty"`
	CalculationResults *calculator.Results     `json:"calculation_results"`
	Recommendations    []advice.Recommendation `json:"recommendations"`
}

// Envelope is the boundary shape returned to HTTP and job callers
type Envelope struct {
	Response       string         `json:"response"`
	StructuredData StructuredData `json:"structured_data"`
}

// Envelope projects the response onto the boundary shape
func (r *Response) Envelope() Envelope {
	return Envelope{Response: r.Text, StructuredData: r.Structured}
}
