package validation

import (
	"regexp"
	"unicode/utf8"
)

// Category is one blocking classifier: a reason code plus the pattern set that
// triggers it. Categories are evaluated in slice order and the first match
// wins, so the position in Rules.Categories is the blocking priority.
type Category struct {
	Code       ReasonCode
	Warning    string
	Suggestion string
	Patterns   []*regexp.Regexp

	// Checks are structural tests that regexp (RE2) cannot express, such as
	// repeated-character runs. They are evaluated after Patterns.
	Checks []func(string) bool
}

func (c Category) matches(query string) bool {
	for _, p := range c.Patterns {
		if p.MatchString(query) {
			return true
		}
	}
	for _, check := range c.Checks {
		if check(query) {
			return true
		}
	}
	return false
}

// Rules holds the full classifier configuration: length limits, the ordered
// blocking categories, and the advisory thresholds applied to accepted
// queries. Tests inject synthetic rule sets; production code uses
// DefaultRules or the YAML loader in internal/config.
type Rules struct {
	MinLength        int
	MaxLength        int
	ShortAdvisoryLen int
	LongAdvisoryLen  int
	Categories       []Category
	GenericPatterns  []*regexp.Regexp
}

const (
	defaultMinLength        = 3
	defaultMaxLength        = 1024
	defaultShortAdvisoryLen = 10
	defaultLongAdvisoryLen  = 800
)

// hasRepeatedRun reports whether the string contains a run of at least n
// identical characters. Stands in for the backreference pattern (.)\1{n-1,}
// which RE2 does not support.
func hasRepeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for i, w := 0, 0; i < len(s); i += w {
		r, width := utf8.DecodeRuneInString(s[i:])
		w = width
		if run > 0 && r == prev {
			run++
		} else {
			prev = r
			run = 1
		}
		if run >= n {
			return true
		}
	}
	return false
}

var nsfwPatterns = []*regexp.Regexp{
	// Adult content
	regexp.MustCompile(`(?i)\b(sex|porn|nude|naked|xxx|adult|erotic|horny|sexy)\b`),
	regexp.MustCompile(`(?i)\b(penis|vagina|dick|cock|pussy|tits|boobs|ass|anal)\b`),
	regexp.MustCompile(`(?i)\b(orgasm|masturbat|ejaculat|climax|arousal)\b`),
	regexp.MustCompile(`(?i)\b(prostitut|escort|hookup|bang|fuck|shit|damn)\b`),

	// Violence and weapons
	regexp.MustCompile(`(?i)\b(kill|murder|violence|weapon|gun|bomb|terror|attack)\b`),
	regexp.MustCompile(`(?i)\b(suicide|death|harm|hurt|pain|torture|abuse)\b`),

	// Drugs and illegal activities
	regexp.MustCompile(`(?i)\b(drug|cocaine|heroin|meth|weed|marijuana|illegal)\b`),
	regexp.MustCompile(`(?i)\b(hack|crack|pirat|steal|fraud|scam)\b`),
}

var promptInjectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(previous|all|above|prior)\s+instruct`),
	regexp.MustCompile(`(?i)forget\s+(everything|all|previous|above)`),
	regexp.MustCompile(`(?i)act\s+as\s+(a\s+)?(different|new|other)`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+(a\s+)?`),
	regexp.MustCompile(`(?i)pretend\s+to\s+be`),
	regexp.MustCompile(`(?i)role\s*play\s+as`),
	regexp.MustCompile(`(?i)simulate\s+(being|that)`),
	regexp.MustCompile(`(?i)override\s+(your|the)\s+(settings|instructions)`),
	regexp.MustCompile(`(?i)system\s+(prompt|message|instruction)`),
	regexp.MustCompile(`(?i)developer\s+mode`),
	regexp.MustCompile(`(?i)jailbreak`),
	regexp.MustCompile(`(?i)bypass\s+(safety|filter|restriction)`),
}

var systemCommandPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(sudo|rm\s+-rf|chmod|mkdir|cp\s+|mv\s+)\b`),
	regexp.MustCompile(`(?i)\b(exec|eval|system|shell|cmd|bash)\b`),
	regexp.MustCompile(`(?i)\b(admin|administrator|root|privilege)`),
	regexp.MustCompile(`(?i)\b(password|secret|key|token|auth)`),
	regexp.MustCompile(`(?i)<script|javascript:|<iframe|<embed`),
	regexp.MustCompile(`\$\{|\$\(|` + "`.*`" + `|\|\||&&`),
}

var spamPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[!?]{5,}`),                      // excessive punctuation
	regexp.MustCompile(`(?i)\b(test|hello|hi|hey)\b\s*$`), // simple test queries
	regexp.MustCompile(`(?i)^\s*[a-z]\s*$`),             // single letters
	regexp.MustCompile(`[A-Z]{10,}`),                    // excessive caps
	regexp.MustCompile(`[0-9]{10,}`),                    // long number sequences
}

var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)https?://[^\s]+`),                         // URLs
	regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`), // emails
	regexp.MustCompile(`(?i)\b[0-9a-f]{32,}\b`),                       // hash-like strings
	regexp.MustCompile(`[{}\[\]<>]`),                                  // suspicious brackets
	regexp.MustCompile(`\\\w+`),                                       // escape sequences
}

var genericPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(what is|how to|tell me|explain|help|info|list|show|give)$`),
	regexp.MustCompile(`(?i)^(hi|hello|hey|test|testing)$`),
}

// DefaultRules returns the built-in classifier table. Category order is the
// blocking priority: nsfw_content, prompt_injection, system_command,
// spam_pattern, suspicious_pattern.
func DefaultRules() Rules {
	return Rules{
		MinLength:        defaultMinLength,
		MaxLength:        defaultMaxLength,
		ShortAdvisoryLen: defaultShortAdvisoryLen,
		LongAdvisoryLen:  defaultLongAdvisoryLen,
		Categories: []Category{
			{
				Code:       ReasonNSFWContent,
				Warning:    "Inappropriate content detected",
				Suggestion: "Keep queries professional and family-friendly",
				Patterns:   nsfwPatterns,
			},
			{
				Code:       ReasonPromptInjection,
				Warning:    "System manipulation attempt detected",
				Suggestion: "Ask your question directly without system commands",
				Patterns:   promptInjectionPatterns,
			},
			{
				Code:       ReasonSystemCommand,
				Warning:    "System commands are not allowed",
				Suggestion: "Use natural language to ask your question",
				Patterns:   systemCommandPatterns,
			},
			{
				Code:       ReasonSpamPattern,
				Warning:    "Spam-like pattern detected",
				Suggestion: "Use natural language without excessive repetition",
				Patterns:   spamPatterns,
				Checks: []func(string) bool{
					func(s string) bool { return hasRepeatedRun(s, 11) },
				},
			},
			{
				Code:       ReasonSuspiciousPattern,
				Warning:    "Suspicious patterns detected",
				Suggestion: "Use clear, natural language for your questions",
				Patterns:   suspiciousPatterns,
			},
		},
		GenericPatterns: genericPatterns,
	}
}
