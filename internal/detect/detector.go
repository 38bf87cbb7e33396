// Package detect classifies free-text tool output into task-completion
// categories with a 0-100 confidence score.
package detect

import (
	"strings"
	"unicode/utf8"
)

// Category is a completion-signal category with a fixed base confidence.
type Category string

const (
	CategoryCommit       Category = "commit-related"
	CategoryDeployment   Category = "deployment"
	CategoryBuildSuccess Category = "build-success"
	CategoryTestSuccess  Category = "test-success"
	CategoryBugFixed     Category = "bug-fixed"
	CategoryFileCreated  Category = "file-created"
)

// Result describes a detected completion signal.
type Result struct {
	Keyword    string   `json:"keyword"`
	Confidence int      `json:"confidence"` // 0-100
	Category   Category `json:"category"`
	Context    string   `json:"context_snippet"`
}

// categoryRule pairs a category with its trigger phrases and base confidence.
type categoryRule struct {
	category Category
	base     int
	triggers []string
}

// rules is the priority table: highest base confidence first, ties broken
// by table position. Matching is deterministic regardless of where a
// trigger appears in the input.
var rules = []categoryRule{
	{CategoryCommit, 95, []string{"git commit", "committed", "commit -m"}},
	{CategoryDeployment, 90, []string{"deployed", "deployment complete", "released to"}},
	{CategoryBuildSuccess, 90, []string{"build succeeded", "build passed", "compiled successfully"}},
	{CategoryTestSuccess, 88, []string{"tests passed", "all tests pass", "test suite passed"}},
	{CategoryBugFixed, 85, []string{"fixed the bug", "bug fixed", "issue resolved"}},
	{CategoryFileCreated, 75, []string{"file created", "created file", "wrote file"}},
}

// failureIndicators co-occurring with a completion phrase mean the output
// is not a clean success.
var failureIndicators = []string{
	"failed", "failure", "error", "unauthorized", "forbidden",
	"403", "404", "500", "timeout", "timed out", "exception",
	"denied", "rejected", "could not", "cannot", "unable to",
}

// hedgingWords disqualify the context bonus.
var hedgingWords = []string{
	"maybe", "might", "possibly", "trying", "attempting",
	"should", "probably", "hopefully",
}

const (
	failurePenalty      = 30
	contextBonus        = 5
	minUnambiguousLen   = 40
	contextSnippetChars = 120
)

// Detector scans tool output for completion signals.
type Detector struct {
	rules []categoryRule
}

// NewDetector creates a detector with the built-in category table.
func NewDetector() *Detector {
	return &Detector{rules: rules}
}

// Detect scans the output for the strongest matching trigger phrase.
//
// The bool result distinguishes "nothing detected" from "detected with
// low confidence": callers must not treat a miss as a zero-confidence hit.
func (d *Detector) Detect(output string) (Result, bool) {
	if strings.TrimSpace(output) == "" {
		return Result{}, false
	}

	// Triggers and indicator words are ASCII, so lowercasing only ASCII
	// bytes keeps every byte offset valid in the original string. A full
	// strings.ToLower can change byte lengths (e.g. U+023A grows, U+0130
	// shrinks) and its indexes must not be used to slice output.
	lowered := lowerASCII(output)

	for _, rule := range d.rules {
		for _, trigger := range rule.triggers {
			idx := strings.Index(lowered, trigger)
			if idx < 0 {
				continue
			}

			confidence := rule.base
			if containsAny(lowered, failureIndicators) {
				confidence -= failurePenalty
			}
			if unambiguous(lowered) {
				confidence += contextBonus
			}
			confidence = clamp(confidence, 0, 100)

			return Result{
				Keyword:    trigger,
				Confidence: confidence,
				Category:   rule.category,
				Context:    snippet(output, idx, len(trigger)),
			}, true
		}
	}

	return Result{}, false
}

// unambiguous reports whether the surrounding text gives clear context:
// non-trivial length with no hedging language.
func unambiguous(lowered string) bool {
	if len(lowered) < minUnambiguousLen {
		return false
	}
	return !containsAny(lowered, hedgingWords)
}

// lowerASCII lowercases ASCII letters only, preserving byte offsets.
func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// snippet extracts text around the match for audit evidence. Bounds are
// clamped into the string and aligned to rune boundaries so multi-byte
// text never slices mid-rune.
func snippet(output string, idx, matchLen int) string {
	start := clamp(idx-contextSnippetChars/2, 0, len(output))
	end := clamp(idx+matchLen+contextSnippetChars/2, start, len(output))
	for start > 0 && !utf8.RuneStart(output[start]) {
		start--
	}
	for end < len(output) && !utf8.RuneStart(output[end]) {
		end++
	}
	return strings.TrimSpace(output[start:end])
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
