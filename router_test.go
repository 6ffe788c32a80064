package sqlpilot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRouterGreetings(t *testing.T) {
	router := NewRouter(RouterOptions{})
	for _, input := range []string{"hello", "Hi", "  thanks ", "how are you"} {
		c := router.Classify(context.Background(), input, nil)
		require.Equal(t, IntentConversational, c.Intent, "input %q", input)
		require.GreaterOrEqual(t, c.Confidence, 0.9)
	}
}

func TestRouterDataKeywords(t *testing.T) {
	router := NewRouter(RouterOptions{})

	c := router.Classify(context.Background(), "show me 5 employees", nil)
	require.Equal(t, IntentDataQuery, c.Intent)
	require.GreaterOrEqual(t, c.Confidence, 0.9)
	require.Contains(t, c.Reason, "show")

	c = router.Classify(context.Background(), "average monthly gambling expenditure by region", nil)
	require.Equal(t, IntentDataQuery, c.Intent)
	require.GreaterOrEqual(t, c.Confidence, 0.9)
}

func TestRouterReasonCapsKeywords(t *testing.T) {
	router := NewRouter(RouterOptions{})
	c := router.Classify(context.Background(),
		"show list find display customers transactions revenue by region", nil)
	require.Equal(t, IntentDataQuery, c.Intent)
	// Reason lists at most five matched keywords.
	require.NotContains(t, c.Reason, "region")
}

func TestRouterQuestionPatterns(t *testing.T) {
	router := NewRouter(RouterOptions{})
	c := router.Classify(context.Background(), "who joined in march", nil)
	require.Equal(t, IntentDataQuery, c.Intent)
	require.GreaterOrEqual(t, c.Confidence, 0.9)
}

func TestRouterEmptyInput(t *testing.T) {
	router := NewRouter(RouterOptions{})
	for _, input := range []string{"", "   "} {
		c := router.Classify(context.Background(), input, nil)
		require.Equal(t, IntentNeedsClarification, c.Intent)
		require.Zero(t, c.Confidence)
	}
}

func TestRouterDefaultBiasesToDataQuery(t *testing.T) {
	router := NewRouter(RouterOptions{})
	c := router.Classify(context.Background(), "something entirely unrelated", nil)
	require.Equal(t, IntentDataQuery, c.Intent)
	require.InDelta(t, 0.8, c.Confidence, 0.001)
}

type stubFallback struct {
	result Classification
	err    error
	calls  int
}

func (s *stubFallback) Classify(ctx context.Context, text string, history []Turn) (Classification, error) {
	s.calls++
	return s.result, s.err
}

func TestRouterFallback(t *testing.T) {
	t.Run("not consulted when a rule fires", func(t *testing.T) {
		fallback := &stubFallback{}
		router := NewRouter(RouterOptions{Fallback: fallback})
		router.Classify(context.Background(), "show me employees", nil)
		require.Zero(t, fallback.calls)
	})

	t.Run("confidence clamped to unit interval", func(t *testing.T) {
		fallback := &stubFallback{result: Classification{Intent: IntentDataQuery, Confidence: 1.7}}
		router := NewRouter(RouterOptions{Fallback: fallback})
		c := router.Classify(context.Background(), "something entirely unrelated", nil)
		require.Equal(t, 1.0, c.Confidence)
		require.Equal(t, 1, fallback.calls)
	})

	t.Run("failure degrades to clarification", func(t *testing.T) {
		fallback := &stubFallback{err: errors.New("model unavailable")}
		router := NewRouter(RouterOptions{Fallback: fallback})
		c := router.Classify(context.Background(), "something entirely unrelated", nil)
		require.Equal(t, IntentNeedsClarification, c.Intent)
		require.LessOrEqual(t, c.Confidence, 0.3)
	})

	t.Run("unknown intent degrades to clarification", func(t *testing.T) {
		fallback := &stubFallback{result: Classification{Intent: "mystery", Confidence: 0.9}}
		router := NewRouter(RouterOptions{Fallback: fallback})
		c := router.Classify(context.Background(), "something entirely unrelated", nil)
		require.Equal(t, IntentNeedsClarification, c.Intent)
	})
}
