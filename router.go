package sqlpilot

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Classification is the router's decision for one request.
type Classification struct {
	Intent     Intent
	Confidence float64
	Reason     string
}

// FallbackClassifier is an optional generative classifier consulted only
// when no deterministic rule fires. Its output is clamped to [0,1]; any
// failure degrades to needs_clarification at low confidence.
type FallbackClassifier interface {
	Classify(ctx context.Context, requestText string, history []Turn) (Classification, error)
}

// Greetings and closings that route to conversation. Whole-string match
// only; anything longer is assumed to be a data request.
var greetingPhrases = []string{
	"hello", "hi", "hey", "thanks", "thank you",
	"bye", "goodbye", "how are you",
}

// Domain keywords that mark a data query: entity nouns, aggregation
// verbs, and question-lead phrases. Single words match on word
// boundaries, phrases on substring.
var dataKeywords = []string{
	"show", "list", "get", "find", "display", "give", "select", "query",
	"employee", "employees", "staff", "worker",
	"customer", "customers", "client", "user",
	"transaction", "transactions", "payment", "deposit", "withdrawal",
	"shift", "shifts", "schedule",
	"session", "sessions", "game", "gaming", "bet", "gambling",
	"equipment", "machine", "table",
	"revenue", "salary", "income", "money", "amount", "expenditure",
	"risk", "high-risk", "problem", "behavior", "behaviors",
	"how many", "count", "total", "sum", "average", "avg", "top",
	"highest", "lowest", "first", "last", "best", "worst",
	"region", "department", "age", "gender",
	"online", "offline", "monthly", "spending",
}

// Interrogative sentence openings that suggest a data question even when
// no domain keyword is present.
var questionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^how\s+many`),
	regexp.MustCompile(`^what\s+is`),
	regexp.MustCompile(`^who\s+`),
	regexp.MustCompile(`^which\s+`),
	regexp.MustCompile(`^where\s+`),
	regexp.MustCompile(`^when\s+`),
	regexp.MustCompile(`^show\s+me`),
	regexp.MustCompile(`^find\s+`),
	regexp.MustCompile(`^list\s+`),
	regexp.MustCompile(`^get\s+`),
	regexp.MustCompile(`^top\s+\d+`),
	regexp.MustCompile(`^\d+\s+\w+`),
}

var keywordPatterns = compileKeywordMatchers(dataKeywords)

func compileKeywordMatchers(keywords []string) map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(keywords))
	for _, kw := range keywords {
		if strings.Contains(kw, " ") {
			continue
		}
		patterns[kw] = regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`)
	}
	return patterns
}

// Router classifies a request into an intent with a confidence score.
// The primary path is deterministic rule order: greetings, then domain
// keywords, then interrogative openings, then a data-query default at a
// lower confidence floor. The default biases toward attempting data
// resolution over asking questions: a failed SQL run recovers through
// clarification, a premature question does not.
type Router struct {
	fallback FallbackClassifier
	logger   *slog.Logger
}

// RouterOptions configures a Router. All fields are optional.
type RouterOptions struct {
	Fallback FallbackClassifier
	Logger   *slog.Logger
}

// NewRouter creates a Router.
func NewRouter(opts RouterOptions) *Router {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{fallback: opts.Fallback, logger: logger}
}

// Classify routes one request. No network call occurs unless every
// deterministic rule misses and a fallback classifier is configured.
func (r *Router) Classify(ctx context.Context, requestText string, history []Turn) Classification {
	lower := strings.ToLower(strings.TrimSpace(requestText))

	if lower == "" {
		return Classification{
			Intent:     IntentNeedsClarification,
			Confidence: 0,
			Reason:     "empty input",
		}
	}

	for _, phrase := range greetingPhrases {
		if lower == phrase {
			return Classification{
				Intent:     IntentConversational,
				Confidence: 0.95,
				Reason:     fmt.Sprintf("pure conversation phrase: %q", phrase),
			}
		}
	}

	var matched []string
	for _, kw := range dataKeywords {
		if pattern, ok := keywordPatterns[kw]; ok {
			if pattern.MatchString(lower) {
				matched = append(matched, kw)
			}
		} else if strings.Contains(lower, kw) {
			matched = append(matched, kw)
		}
	}
	if len(matched) > 0 {
		if len(matched) > 5 {
			matched = matched[:5]
		}
		return Classification{
			Intent:     IntentDataQuery,
			Confidence: 0.98,
			Reason:     fmt.Sprintf("data keywords detected: %s", strings.Join(matched, ", ")),
		}
	}

	for _, pattern := range questionPatterns {
		if pattern.MatchString(lower) {
			return Classification{
				Intent:     IntentDataQuery,
				Confidence: 0.95,
				Reason:     "question pattern detected",
			}
		}
	}

	if r.fallback != nil {
		return r.classifyWithFallback(ctx, requestText, history)
	}

	return defaultDataQuery()
}

func defaultDataQuery() Classification {
	return Classification{
		Intent:     IntentDataQuery,
		Confidence: 0.8,
		Reason:     "default routing for potential data query",
	}
}

// classifyWithFallback consults the generative classifier, clamping its
// confidence and degrading to needs_clarification on any failure.
func (r *Router) classifyWithFallback(ctx context.Context, requestText string, history []Turn) Classification {
	result, err := r.fallback.Classify(ctx, requestText, history)
	if err != nil {
		r.logger.Warn("fallback classifier failed", "error", err)
		return Classification{
			Intent:     IntentNeedsClarification,
			Confidence: 0.3,
			Reason:     "fallback classifier unavailable",
		}
	}
	switch result.Intent {
	case IntentConversational, IntentDataQuery, IntentNeedsClarification:
	default:
		r.logger.Warn("fallback classifier returned unknown intent", "intent", result.Intent)
		return Classification{
			Intent:     IntentNeedsClarification,
			Confidence: 0.3,
			Reason:     "fallback classifier returned unknown intent",
		}
	}
	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 1 {
		result.Confidence = 1
	}
	return result
}
