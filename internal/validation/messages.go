package validation

// messagePriority mirrors the blocking-check order, with too_long after the
// content categories. The first code present in the input wins; too_short is
// never a blocking code, so it falls through to the generic message.
var messagePriority = []ReasonCode{
	ReasonNSFWContent,
	ReasonPromptInjection,
	ReasonSystemCommand,
	ReasonSpamPattern,
	ReasonSuspiciousPattern,
	ReasonTooLong,
}

var blockedMessages = map[ReasonCode]string{
	ReasonNSFWContent:       "Inappropriate content detected. Please keep queries professional and family-friendly.",
	ReasonPromptInjection:   "System manipulation detected. Please ask your question directly using natural language.",
	ReasonSystemCommand:     "System commands detected. Please use natural language to describe your dataset needs.",
	ReasonSpamPattern:       "Spam patterns detected. Please use clear, natural language without excessive repetition.",
	ReasonSuspiciousPattern: "Suspicious patterns detected. Please use simple, clear language to describe your dataset needs.",
	ReasonTooLong:           "Query is too long. Please keep your request under 1024 characters.",
}

const fallbackBlockedMessage = "Query validation failed. Please try rephrasing your request."

// BlockedQueryMessage maps a set of reason codes to a single user-facing
// message. Total over any input: unknown codes and the empty list fall back
// to a generic message.
func BlockedQueryMessage(reasons []ReasonCode) string {
	for _, code := range messagePriority {
		for _, reason := range reasons {
			if reason == code {
				return blockedMessages[code]
			}
		}
	}
	return fallbackBlockedMessage
}
