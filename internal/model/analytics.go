package model

// NameCount is one chart bucket: a group name and its tally.
type NameCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// InitiativeEngagement compares recommendations shown against initiatives
// picked. "Recommended" is a proxy: every dialogue is assumed to have seen
// one recommendation set.
type InitiativeEngagement struct {
	Recommended int `json:"recommended"`
	Selected    int `json:"selected"`
}

// AnalyticsSummary is the whole-table aggregate served to the dashboard.
// DebugError is only populated when the service runs in degrade-to-zero mode
// and the underlying read failed.
type AnalyticsSummary struct {
	TotalDialogues       int                  `json:"totalDialogues"`
	TotalParticipants    int                  `json:"totalParticipants"`
	AvgDuration          int                  `json:"avgDuration"`
	DialoguesByDistrict  []NameCount          `json:"dialoguesByDistrict"`
	TopTopics            []NameCount          `json:"topTopics"`
	TopInterestAreas     []NameCount          `json:"topInterestAreas"`
	InitiativeEngagement InitiativeEngagement `json:"initiativeEngagement"`
	DebugError           string               `json:"debugError,omitempty"`
}

// EmptySummary returns the zero-valued summary with empty (not nil) slices,
// matching what an aggregation over zero rows produces.
func EmptySummary() *AnalyticsSummary {
	return &AnalyticsSummary{
		DialoguesByDistrict: []NameCount{},
		TopTopics:           []NameCount{},
		TopInterestAreas:    []NameCount{},
	}
}
