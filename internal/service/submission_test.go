package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/klimaneustart/dialogue-server/internal/errors"
	"github.com/klimaneustart/dialogue-server/internal/model"
)

func TestSubmissionNormalize(t *testing.T) {
	t.Run("requires uuid", func(t *testing.T) {
		sub := &Submission{}
		err := sub.Normalize()
		assert.Equal(t, apperrors.ErrCodeMissingRequired, apperrors.GetCode(err))
	})

	t.Run("rejects whitespace-only uuid", func(t *testing.T) {
		sub := &Submission{UUID: "   "}
		assert.Error(t, sub.Normalize())
	})

	t.Run("defaults status to in_progress", func(t *testing.T) {
		sub := &Submission{UUID: "u"}
		require.NoError(t, sub.Normalize())
		assert.Equal(t, string(model.StatusInProgress), sub.Status)
	})

	t.Run("accepts completed status", func(t *testing.T) {
		sub := &Submission{UUID: "u", Status: "completed"}
		require.NoError(t, sub.Normalize())
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		sub := &Submission{UUID: "u", Status: "archived"}
		err := sub.Normalize()
		assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
	})

	t.Run("rejects negative numPeople", func(t *testing.T) {
		sub := &Submission{UUID: "u", NumPeople: -1}
		assert.Error(t, sub.Normalize())
	})

	t.Run("rejects negative duration", func(t *testing.T) {
		sub := &Submission{UUID: "u", Duration: -5}
		assert.Error(t, sub.Normalize())
	})

	t.Run("defaults containers to empty", func(t *testing.T) {
		sub := &Submission{UUID: "u"}
		require.NoError(t, sub.Normalize())

		assert.NotNil(t, sub.TopicDetails)
		assert.Empty(t, sub.TopicDetails)
		assert.NotNil(t, sub.Districts)
		assert.NotNil(t, sub.SelectedInitiatives)
		assert.NotNil(t, sub.InterestAreas)
		assert.NotNil(t, sub.InterestDistricts)
	})

	t.Run("isAnonymous defaults true, shareContact defaults false", func(t *testing.T) {
		sub := &Submission{UUID: "u"}
		require.NoError(t, sub.Normalize())
		assert.True(t, sub.Anonymous())
		assert.False(t, sub.ShareContact)
	})

	t.Run("explicit isAnonymous false is preserved", func(t *testing.T) {
		sub := &Submission{UUID: "u", IsAnonymous: boolPtr(false)}
		require.NoError(t, sub.Normalize())
		assert.False(t, sub.Anonymous())
	})
}

func TestSubmissionDecoding(t *testing.T) {
	t.Run("unknown top-level fields are dropped", func(t *testing.T) {
		payload := `{"uuid":"u","unknownField":"ignored","anotherOne":42}`

		var sub Submission
		require.NoError(t, json.Unmarshal([]byte(payload), &sub))
		require.NoError(t, sub.Normalize())
		assert.Equal(t, "u", sub.UUID)
	})

	t.Run("topicDetails sub-keys pass through unvalidated", func(t *testing.T) {
		payload := `{"uuid":"u","topicDetails":{"mobility":{"options":["bike"],"note":"x","novel":{"deep":true}}}}`

		var sub Submission
		require.NoError(t, json.Unmarshal([]byte(payload), &sub))
		require.NoError(t, sub.Normalize())

		mobility, ok := sub.TopicDetails["mobility"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, mobility, "novel")
	})
}

func TestSubmissionUpsertParams(t *testing.T) {
	t.Run("maps content fields and omits contact fields", func(t *testing.T) {
		sub := &Submission{
			UUID:         "u",
			MainInterest: "climate",
			Districts:    []string{"Mitte"},
			NumPeople:    3,
			FirstName:    "Anna",
			ContactInfo:  "anna@example.org",
		}
		require.NoError(t, sub.Normalize())

		params := sub.UpsertParams()
		assert.Equal(t, "u", params.UUID)
		assert.Equal(t, "climate", params.MainInterest)
		assert.Equal(t, model.StringList{"Mitte"}, params.Districts)
		assert.Equal(t, 3, params.NumPeople)
		assert.True(t, params.IsAnonymous)
	})

	t.Run("HasContactFields checks all four fields", func(t *testing.T) {
		assert.False(t, (&Submission{}).HasContactFields())
		assert.True(t, (&Submission{FirstName: "A"}).HasContactFields())
		assert.True(t, (&Submission{LastName: "B"}).HasContactFields())
		assert.True(t, (&Submission{ContactInfo: "a@b.c"}).HasContactFields())
		assert.True(t, (&Submission{Phone: "1"}).HasContactFields())
	})
}
