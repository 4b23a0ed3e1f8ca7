package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/klimaneustart/dialogue-server/internal/model"
)

var conversationHeader = []string{
	"ID",
	"UUID",
	"Created At",
	"Status",
	"Anonymous",
	"Share Contact",
	"Main Interest",
	"Livable City",
	"Notes",
	"Districts",
	"Selected Initiatives",
	"Interest Areas",
	"Interest Districts",
	"Observer Reflection",
	"Surprise",
	"Number of People",
	"Duration (minutes)",
	"Location",
	"Topic Details",
}

// ConversationsWorkbook renders the full record set plus the analytics
// summary as an xlsx file. It is a pure function of its inputs; contact
// data never appears in the export.
func ConversationsWorkbook(convs []model.Conversation, summary *model.AnalyticsSummary) ([]byte, error) {
	f := excelize.NewFile()
	// Don't defer Close() here: WriteTo needs the file open.

	sheetName := "Conversations"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := writeRow(f, sheetName, 1, toAnySlice(conversationHeader)); err != nil {
		f.Close()
		return nil, err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(conversationHeader))
	f.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle)

	for i, conv := range convs {
		topicDetails, err := json.Marshal(conv.TopicDetails)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("marshal topic details: %w", err)
		}

		row := []any{
			conv.ID,
			conv.UUID,
			conv.CreatedAt.Format(time.RFC3339),
			string(conv.Status),
			yesNo(conv.IsAnonymous),
			yesNo(conv.ShareContact),
			conv.MainInterest,
			conv.LivableCity,
			conv.Notes,
			strings.Join(conv.Districts, ", "),
			strings.Join(conv.SelectedInitiatives, ", "),
			strings.Join(conv.InterestAreas, ", "),
			strings.Join(conv.InterestDistricts, ", "),
			conv.ObserverReflection,
			conv.Surprise,
			conv.NumPeople,
			conv.Duration,
			conv.Location,
			string(topicDetails),
		}
		if err := writeRow(f, sheetName, i+2, row); err != nil {
			f.Close()
			return nil, err
		}
	}

	if err := writeSummarySheet(f, summary, headerStyle); err != nil {
		f.Close()
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummarySheet(f *excelize.File, summary *model.AnalyticsSummary, headerStyle int) error {
	sheetName := "Summary"
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	if err := writeRow(f, sheetName, 1, []any{"Metric", "Value"}); err != nil {
		return err
	}
	f.SetCellStyle(sheetName, "A1", "B1", headerStyle)

	rows := [][]any{
		{"Total Conversations", summary.TotalDialogues},
		{"Total Participants", summary.TotalParticipants},
		{"Average Duration (minutes)", summary.AvgDuration},
		{"Initiatives Recommended", summary.InitiativeEngagement.Recommended},
		{"Initiatives Selected", summary.InitiativeEngagement.Selected},
	}
	for _, district := range summary.DialoguesByDistrict {
		rows = append(rows, []any{"Dialogues in " + district.Name, district.Value})
	}

	for i, row := range rows {
		if err := writeRow(f, sheetName, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("resolve cell: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func toAnySlice(values []string) []any {
	result := make([]any, len(values))
	for i, v := range values {
		result[i] = v
	}
	return result
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
