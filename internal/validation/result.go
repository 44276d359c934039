package validation

// ReasonCode is a machine-readable classification for a rejected query.
type ReasonCode string

const (
	ReasonTooShort          ReasonCode = "too_short"
	ReasonTooLong           ReasonCode = "too_long"
	ReasonNSFWContent       ReasonCode = "nsfw_content"
	ReasonPromptInjection   ReasonCode = "prompt_injection"
	ReasonSystemCommand     ReasonCode = "system_command"
	ReasonSpamPattern       ReasonCode = "spam_pattern"
	ReasonSuspiciousPattern ReasonCode = "suspicious_pattern"
)

// Result is the outcome of classifying one query string. A fresh value is
// built on every call; callers never see shared state.
//
// Invariant: len(BlockedReasons) > 0 implies IsBlocked and !IsValid.
type Result struct {
	IsValid        bool
	IsBlocked      bool
	Warnings       []string
	Suggestions    []string
	BlockedReasons []ReasonCode
}

func okResult() Result {
	return Result{
		IsValid:        true,
		IsBlocked:      false,
		Warnings:       []string{},
		Suggestions:    []string{},
		BlockedReasons: []ReasonCode{},
	}
}
