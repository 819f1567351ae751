package security

import (
	"regexp"

	"github.com/craftista/concierge/internal/logging"
)

// Scan is the result of inspecting a backend response.
type Scan struct {
	Flagged  bool
	Redacted string // always safe to return; equals the input when clean
	Families []string
}

const redactedMarker = "[redacted]"

// Patterns resembling credentials, connection strings, or internal paths.
// Defends against the backend being tricked into echoing configuration.
var leakRules = []patternRule{
	{"aws-access-key", regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`)},
	{"secret-key", regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{20,}\b`)},
	{"bearer-token", regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/=-]{16,}`)},
	{"connection-string", regexp.MustCompile(`(?i)\b(postgres(?:ql)?|mysql|mongodb(?:\+srv)?|redis|amqps?):\/\/[^\s"']+`)},
	{"credential-pair", regexp.MustCompile(`(?i)\b(api[_-]?key|secret|password|passwd|access[_-]?token)\s*[=:]\s*\S{8,}`)},
	{"private-key", regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----(?s:.*?)(?:-----END [A-Z ]*PRIVATE KEY-----|\z)`)},
	{"internal-path", regexp.MustCompile(`(?:^|\s)(/(?:etc|var|proc|root)/[^\s"']+|/home/[A-Za-z0-9_.-]+/[^\s"']+)`)},
	{"internal-path", regexp.MustCompile(`(?i)\b[A-Z]:\\(?:Users|Windows|Program Files)[^\s"']*`)},
}

// Scanner inspects backend responses for leakage before they reach users.
type Scanner struct {
	log *logging.Logger
}

// NewScanner creates an output scanner.
func NewScanner(log *logging.Logger) *Scanner {
	return &Scanner{log: log.Sub("security.scanner")}
}

// Inspect scans a response and redacts matches in place. A flagged response
// is never surfaced raw; callers use Redacted unconditionally.
func (s *Scanner) Inspect(response string) Scan {
	out := response
	var families []string

	for _, rule := range leakRules {
		if !rule.re.MatchString(out) {
			continue
		}
		families = append(families, rule.name)
		out = rule.re.ReplaceAllStringFunc(out, func(match string) string {
			// Preserve leading whitespace captured by path rules so
			// surrounding text stays readable.
			i := 0
			for i < len(match) && (match[i] == ' ' || match[i] == '\n' || match[i] == '\t') {
				i++
			}
			return match[:i] + redactedMarker
		})
	}

	if len(families) > 0 {
		s.log.Warn().Strs("families", families).Msg("backend output redacted")
		return Scan{Flagged: true, Redacted: out, Families: families}
	}
	return Scan{Redacted: out}
}
