package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/klimaneustart/dialogue-server/internal/model"
)

func TestConversationsWorkbook(t *testing.T) {
	convs := []model.Conversation{
		{
			ID:           1,
			UUID:         "abc-123",
			Status:       model.StatusCompleted,
			MainInterest: "mobility",
			Districts:    model.StringList{"Mitte", "Kreuzberg"},
			TopicDetails: model.JSONMap{"mobility": map[string]any{"note": "bikes"}},
			IsAnonymous:  true,
			NumPeople:    4,
			Duration:     25,
			CreatedAt:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		},
	}
	summary := &model.AnalyticsSummary{
		TotalDialogues:      1,
		TotalParticipants:   4,
		AvgDuration:         25,
		DialoguesByDistrict: []model.NameCount{{Name: "Mitte", Value: 1}},
		InitiativeEngagement: model.InitiativeEngagement{
			Recommended: 1,
		},
	}

	data, err := ConversationsWorkbook(convs, summary)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	t.Run("contains both sheets", func(t *testing.T) {
		sheets := f.GetSheetList()
		assert.Contains(t, sheets, "Conversations")
		assert.Contains(t, sheets, "Summary")
		assert.NotContains(t, sheets, "Sheet1")
	})

	t.Run("conversation row carries the record", func(t *testing.T) {
		uuid, err := f.GetCellValue("Conversations", "B2")
		require.NoError(t, err)
		assert.Equal(t, "abc-123", uuid)

		districts, err := f.GetCellValue("Conversations", "J2")
		require.NoError(t, err)
		assert.Equal(t, "Mitte, Kreuzberg", districts)

		anonymous, err := f.GetCellValue("Conversations", "E2")
		require.NoError(t, err)
		assert.Equal(t, "Yes", anonymous)
	})

	t.Run("summary sheet carries the metrics", func(t *testing.T) {
		metric, err := f.GetCellValue("Summary", "A2")
		require.NoError(t, err)
		assert.Equal(t, "Total Conversations", metric)

		value, err := f.GetCellValue("Summary", "B2")
		require.NoError(t, err)
		assert.Equal(t, "1", value)
	})

	t.Run("empty record set still produces a workbook", func(t *testing.T) {
		data, err := ConversationsWorkbook(nil, model.EmptySummary())
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	})
}
