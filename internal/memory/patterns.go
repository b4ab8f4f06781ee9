package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/hirelane/aicore/internal/models"
	"github.com/hirelane/aicore/internal/utils"
)

// recentConversationScan caps how far back pattern extraction looks.
const recentConversationScan = 20

var struggleMarkers = []string{
	"stuck", "help", "error", "can't", "cannot", "confused",
	"not working", "doesn't work", "failing", "broken",
}

var preferenceMarkers = []string{
	"i prefer", "i'd rather", "i like to", "i always use", "my preference",
}

var skillMarkers = []string{
	"i know", "i've used", "i have experience", "i'm familiar with", "i worked with",
}

// ExtractPatterns scans the user's recent conversations and aggregates
// recurring message signatures into Pattern records. Best-effort heuristic:
// results are derived, recomputed on demand, and never stored as truth.
func (m *Manager) ExtractPatterns(ctx context.Context, userID string) ([]models.Pattern, error) {
	const op = "MemoryManager.ExtractPatterns"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	convs, err := m.store.ListByUser(ctx, userID, recentConversationScan)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load recent conversations", err)
	}

	agg := map[string]*models.Pattern{}
	observe := func(typ models.PatternType, desc string, msg models.Message) {
		key := string(typ) + "|" + desc
		p, ok := agg[key]
		if !ok {
			p = &models.Pattern{
				UserID:      userID,
				Type:        typ,
				Description: desc,
				FirstSeen:   msg.Timestamp,
				LastSeen:    msg.Timestamp,
			}
			agg[key] = p
		}
		p.Occurrences++
		if msg.Timestamp.Before(p.FirstSeen) {
			p.FirstSeen = msg.Timestamp
		}
		if msg.Timestamp.After(p.LastSeen) {
			p.LastSeen = msg.Timestamp
		}
	}

	for _, conv := range convs {
		for _, msg := range conv.Messages {
			if msg.Role != models.RoleUser {
				continue
			}
			lower := strings.ToLower(msg.Content)

			if strings.Contains(msg.Content, "?") {
				observe(models.PatternQuestion, signature(msg.Content), msg)
			}
			if marker := firstMarker(lower, struggleMarkers); marker != "" {
				observe(models.PatternStruggle, marker, msg)
			}
			if marker := firstMarker(lower, preferenceMarkers); marker != "" {
				observe(models.PatternPreference, signature(msg.Content), msg)
			}
			if marker := firstMarker(lower, skillMarkers); marker != "" {
				observe(models.PatternSkill, signature(msg.Content), msg)
			}
		}
	}

	out := make([]models.Pattern, 0, len(agg))
	for _, p := range agg {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Occurrences != out[j].Occurrences {
			return out[i].Occurrences > out[j].Occurrences
		}
		return out[i].Description < out[j].Description
	})
	return out, nil
}

func firstMarker(lower string, markers []string) string {
	for _, marker := range markers {
		if strings.Contains(lower, marker) {
			return marker
		}
	}
	return ""
}

// signature normalizes a message to a short lowercase prefix so paraphrase-
// free repeats aggregate onto one key.
func signature(content string) string {
	s := strings.ToLower(strings.TrimSpace(content))
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 50 {
		s = s[:50]
	}
	return s
}
