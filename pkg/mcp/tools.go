package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/intervue-ai/intervue/pkg/similarity"
	"github.com/intervue-ai/intervue/pkg/tracker"
)

type handler func(ctx context.Context, s *Server, args json.RawMessage) ToolCallResult

var handlers = map[string]handler{
	"intervue_analytics":   handleAnalytics,
	"intervue_session":     handleSession,
	"intervue_cache_stats": handleCacheStats,
	"intervue_similarity":  handleSimilarity,
}

func object(required []string, props map[string]any) map[string]any {
	schema := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func str(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

var tools = []Tool{
	{
		Name:        "intervue_analytics",
		Description: "Show platform totals: sessions, completed interviews, candidates and average score.",
		InputSchema: object(nil, map[string]any{}),
	},
	{
		Name:        "intervue_session",
		Description: "Show progress, answers and scores for one interview session.",
		InputSchema: object([]string{"session_id"}, map[string]any{
			"session_id": str("The session ID to inspect"),
		}),
	},
	{
		Name:        "intervue_cache_stats",
		Description: "Show question cache hit rates and estimated API savings.",
		InputSchema: object(nil, map[string]any{}),
	},
	{
		Name:        "intervue_similarity",
		Description: "Score how similar two job postings are (0-100) with a per-group breakdown.",
		InputSchema: object([]string{"role_a", "role_b"}, map[string]any{
			"role_a":        str("First job role"),
			"description_a": str("First job description (optional)"),
			"role_b":        str("Second job role"),
			"description_b": str("Second job description (optional)"),
		}),
	},
}

func textResult(text string) ToolCallResult {
	return ToolCallResult{Content: []ContentBlock{{Type: "text", Text: text}}}
}

func errorResult(text string) ToolCallResult {
	return ToolCallResult{Content: []ContentBlock{{Type: "text", Text: text}}, IsError: true}
}

func handleAnalytics(ctx context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	a, err := s.backend.Analytics(ctx)
	if err != nil {
		return errorResult("Error fetching analytics: " + err.Error())
	}
	rating := "N/A"
	if a.CompletedInterviews > 0 {
		rating = fmt.Sprintf("%.1f/10", a.AverageScore)
	}
	return textResult(fmt.Sprintf("Platform Analytics\n"+
		"  Sessions:   %d\n"+
		"  Completed:  %d\n"+
		"  Candidates: %d\n"+
		"  Rating:     %s\n",
		a.TotalSessions, a.CompletedInterviews, a.TotalCandidates, rating))
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

func handleSession(ctx context.Context, s *Server, raw json.RawMessage) ToolCallResult {
	var args sessionArgs
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &args)
	}
	if args.SessionID == "" {
		return errorResult("session_id is required")
	}
	sess, err := s.backend.Session(ctx, args.SessionID)
	if errors.Is(err, tracker.ErrSessionNotFound) {
		return errorResult("Session not found: " + args.SessionID)
	}
	if err != nil {
		return errorResult("Error fetching session: " + err.Error())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Session %s (%s)\n", sess.ID, sess.Mode)
	fmt.Fprintf(&b, "  Role:     %s\n", sess.JobRole)
	fmt.Fprintf(&b, "  Progress: %d/%d\n", sess.CurrentIndex, len(sess.Questions))
	fmt.Fprintf(&b, "  Started:  %s\n", sess.StartedAt.Format("2006-01-02 15:04:05"))
	if sess.CompletedAt != nil {
		fmt.Fprintf(&b, "  Finished: %s\n", sess.CompletedAt.Format("2006-01-02 15:04:05"))
	}
	if len(sess.Answers) == 0 {
		b.WriteString("\nNo answers yet.\n")
		return textResult(b.String())
	}
	fmt.Fprintf(&b, "\n%4s  %5s  %s\n", "#", "Score", "Question")
	b.WriteString(strings.Repeat("-", 60) + "\n")
	for i, a := range sess.Answers {
		fmt.Fprintf(&b, "%4d  %5d  %s\n", i+1, a.Evaluation.Score, a.Question)
	}
	if r := sess.Results; r != nil {
		fmt.Fprintf(&b, "\nRating: %s (average %.1f)\n", r.Rating, r.AverageScore)
	}
	if r := sess.FinalReport; r != nil {
		fmt.Fprintf(&b, "\nRecommendation: %s\n", r.Recommendation)
	}
	return textResult(b.String())
}

func handleCacheStats(_ context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	st, enabled := s.backend.CacheStats()
	if !enabled {
		return textResult("Cache is disabled.")
	}
	return textResult(fmt.Sprintf("Cache Statistics\n"+
		"  Requests:    %d\n"+
		"  Exact hits:  %d\n"+
		"  Similar:     %d\n"+
		"  Misses:      %d\n"+
		"  Hit rate:    %.1f%% (%s)\n"+
		"  Cost saved:  $%.3f\n",
		st.TotalRequests, st.ExactHits, st.SimilarHits, st.CacheMisses,
		st.HitRate, st.Efficiency, st.CostSaved))
}

type similarityArgs struct {
	RoleA string `json:"role_a"`
	DescA string `json:"description_a"`
	RoleB string `json:"role_b"`
	DescB string `json:"description_b"`
}

func handleSimilarity(_ context.Context, s *Server, raw json.RawMessage) ToolCallResult {
	var args similarityArgs
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &args)
	}
	if args.RoleA == "" || args.RoleB == "" {
		return errorResult("role_a and role_b are required")
	}
	bd := s.scorer.Compare(args.RoleA, args.DescA, args.RoleB, args.DescB)
	return textResult(fmt.Sprintf("Similarity: %.2f (%s)\n"+
		"  Role:   %.2f\n"+
		"  Level:  %.2f\n"+
		"  Domain: %.2f\n",
		bd.Total, similarity.Reason(bd.Total), bd.Role, bd.Level, bd.Domain))
}
