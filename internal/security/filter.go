// Package security screens user input before it reaches the model backend
// and scans backend output before it reaches the user.
//
// Both sides are blocklist heuristics. They catch the known attack and
// leakage families below; they are not a proof of safety, and detected
// pattern sets should be extended as new families appear in logs.
package security

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/craftista/concierge/internal/logging"
)

// DefaultMaxMessageLen is the hard input length cap. Oversized messages are
// rejected outright: both a cost control and a flooding defense.
const DefaultMaxMessageLen = 5000

// Verdict is the result of inspecting an inbound message.
type Verdict struct {
	Accepted  bool
	Sanitized string // safe to forward when Accepted
	Reason    string // detection family when rejected
}

// patternRule names a detection family and its pattern.
type patternRule struct {
	name string
	re   *regexp.Regexp
}

// Known attack families. Ordering matters only for which reason gets
// reported; any single match rejects.
var injectionRules = []patternRule{
	{"instruction-override", regexp.MustCompile(`(?i)\b(ignore|disregard|forget)\s+(all\s+|any\s+)?(previous|prior|above|earlier|your)\s+(instructions?|prompts?|rules|guidelines|context)`)},
	{"instruction-override", regexp.MustCompile(`(?i)\bnew\s+instructions?\s*:`)},
	{"role-hijack", regexp.MustCompile(`(?i)\byou\s+are\s+now\s+(a|an|the|no\s+longer)\b`)},
	{"role-hijack", regexp.MustCompile(`(?i)\b(pretend|act\s+as\s+if)\s+(to\s+be|you\s+are|you('| a)re)\b`)},
	{"role-hijack", regexp.MustCompile(`(?i)\byour\s+(new\s+)?(role|persona|identity)\s+is\b`)},
	{"prompt-extraction", regexp.MustCompile(`(?i)\b(reveal|show|print|repeat|output|display)\b.{0,40}\b(system\s+prompt|initial\s+instructions|hidden\s+instructions)`)},
	{"control-token", controlTokenRe},
	{"control-token", regexp.MustCompile(`(?i)\[\s*/?\s*(INST|SYS)\s*\]`)},
	{"role-marker", roleMarkerLineRe},
}

// controlTokenRe matches special tokens used to delimit turns in model
// prompt formats (<|im_start|>, <|system|>, <|endoftext|>, ...).
var controlTokenRe = regexp.MustCompile(`(?i)<\|?\s*(im_start|im_end|endoftext|system|assistant|user)\s*\|?>`)

// roleMarkerLineRe matches a line that opens with a role label, the way a
// transcript would be forged inside a message.
var roleMarkerLineRe = regexp.MustCompile(`(?im)^\s*(system|assistant)\s*:`)

// Filter inspects inbound chat messages.
type Filter struct {
	maxLen int
	log    *logging.Logger
}

// NewFilter creates an injection filter. maxLen <= 0 uses the default cap.
func NewFilter(maxLen int, log *logging.Logger) *Filter {
	if maxLen <= 0 {
		maxLen = DefaultMaxMessageLen
	}
	return &Filter{maxLen: maxLen, log: log.Sub("security.filter")}
}

// Inspect screens a message. Rejections carry the detection family in
// Reason and never produce a Sanitized value; detected attacks must not
// reach the backend in any form.
func (f *Filter) Inspect(message string) Verdict {
	if len(message) > f.maxLen {
		f.log.Info().Int("len", len(message)).Int("cap", f.maxLen).Msg("message over length cap")
		return Verdict{Reason: "length-cap"}
	}

	for _, rule := range injectionRules {
		if rule.re.MatchString(message) {
			f.log.Info().Str("family", rule.name).Msg("injection pattern detected")
			return Verdict{Reason: rule.name}
		}
	}

	if reason := floodReason(message); reason != "" {
		f.log.Info().Str("family", reason).Msg("flooding detected")
		return Verdict{Reason: reason}
	}

	// Pattern detection is necessarily incomplete, so even accepted
	// messages get role-marker-like tokens stripped before forwarding.
	return Verdict{Accepted: true, Sanitized: sanitize(message)}
}

// MaxLen returns the configured length cap.
func (f *Filter) MaxLen() int { return f.maxLen }

// floodReason detects repetition and special-character flooding.
func floodReason(message string) string {
	const maxRun = 50
	run := 0
	var prev rune
	for i, r := range message {
		if i > 0 && r == prev {
			run++
			if run >= maxRun {
				return "repetition-flood"
			}
		} else {
			run = 1
		}
		prev = r
	}

	if len(message) > 40 {
		special := 0
		total := 0
		for _, r := range message {
			total++
			if !unicode.IsLetter(r) && !unicode.IsNumber(r) && !unicode.IsSpace(r) {
				special++
			}
		}
		if total > 0 && float64(special)/float64(total) > 0.5 {
			return "special-char-flood"
		}
	}
	return ""
}

// sanitize strips embedded role-marker-like tokens from an accepted message.
func sanitize(message string) string {
	out := controlTokenRe.ReplaceAllString(message, " ")
	out = roleMarkerLineRe.ReplaceAllString(out, "")
	out = strings.TrimSpace(out)
	return out
}
