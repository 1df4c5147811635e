package kafka

// Default topics for the advice job layer; both are overridable in config
const (
	TopicAdviceRequests  = "advice.requests"
	TopicAdviceResponses = "advice.responses"
)
