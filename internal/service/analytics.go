package service

import (
	"context"
	"math"
	"sort"

	"github.com/rs/zerolog/log"

	apperrors "github.com/klimaneustart/dialogue-server/internal/errors"
	"github.com/klimaneustart/dialogue-server/internal/model"
	"github.com/klimaneustart/dialogue-server/internal/repository"
)

const topListLimit = 5

// AnalyticsService aggregates the full conversation set into a chart-ready
// summary. Aggregation is one whole-table read; there is no pagination or
// filtering at this scope.
type AnalyticsService struct {
	convRepo repository.ConversationRepository

	// degradeToZero selects the failure policy: when true a store failure
	// yields a zeroed summary with debugError set instead of an error.
	degradeToZero bool
}

func NewAnalyticsService(convRepo repository.ConversationRepository, degradeToZero bool) *AnalyticsService {
	return &AnalyticsService{convRepo: convRepo, degradeToZero: degradeToZero}
}

func (s *AnalyticsService) Compute(ctx context.Context) (*model.AnalyticsSummary, error) {
	convs, err := s.convRepo.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("analytics aggregation failed")
		if s.degradeToZero {
			summary := model.EmptySummary()
			summary.DebugError = "analytics temporarily unavailable"
			return summary, nil
		}
		return nil, apperrors.Database(err)
	}
	return summarize(convs), nil
}

func summarize(convs []model.Conversation) *model.AnalyticsSummary {
	summary := model.EmptySummary()
	summary.TotalDialogues = len(convs)

	districts := newTally()
	topics := newTally()
	areas := newTally()

	durationTotal := 0
	durationRows := 0
	selectedInitiatives := 0

	for _, conv := range convs {
		summary.TotalParticipants += conv.NumPeople

		if conv.Duration > 0 {
			durationTotal += conv.Duration
			durationRows++
		}

		for _, district := range conv.Districts {
			districts.add(district)
		}

		// A row contributes at most once per distinct topic key. Keys are
		// visited sorted so tie-breaking does not depend on map iteration.
		for _, topic := range sortedKeys(conv.TopicDetails) {
			topics.add(topic)
		}

		for _, area := range conv.InterestAreas {
			areas.add(area)
		}

		selectedInitiatives += len(conv.SelectedInitiatives)
	}

	if durationRows > 0 {
		summary.AvgDuration = int(math.Round(float64(durationTotal) / float64(durationRows)))
	}

	summary.DialoguesByDistrict = districts.sorted(0)
	summary.TopTopics = topics.sorted(topListLimit)
	summary.TopInterestAreas = areas.sorted(topListLimit)
	summary.InitiativeEngagement = model.InitiativeEngagement{
		Recommended: summary.TotalDialogues,
		Selected:    selectedInitiatives,
	}

	return summary
}

func sortedKeys(m model.JSONMap) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// tally counts group members while remembering first-seen order, which
// breaks ties when two groups have the same count.
type tally struct {
	counts map[string]int
	order  map[string]int
	next   int
}

func newTally() *tally {
	return &tally{counts: map[string]int{}, order: map[string]int{}}
}

func (t *tally) add(name string) {
	if _, seen := t.counts[name]; !seen {
		t.order[name] = t.next
		t.next++
	}
	t.counts[name]++
}

// sorted returns the tally as name/value pairs ordered by value descending.
// limit caps the result when positive.
func (t *tally) sorted(limit int) []model.NameCount {
	result := make([]model.NameCount, 0, len(t.counts))
	for name, value := range t.counts {
		result = append(result, model.NameCount{Name: name, Value: value})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Value != result[j].Value {
			return result[i].Value > result[j].Value
		}
		return t.order[result[i].Name] < t.order[result[j].Name]
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}
