package service

import (
	"fmt"
	"strings"

	apperrors "github.com/klimaneustart/dialogue-server/internal/errors"
	"github.com/klimaneustart/dialogue-server/internal/model"
)

// Submission is the raw payload a facilitator posts. Decoding into this
// struct drops unknown top-level fields; sub-keys of topicDetails pass
// through without deep validation.
type Submission struct {
	UUID                string         `json:"uuid"`
	Status              string         `json:"status"`
	MainInterest        string         `json:"mainInterest"`
	LivableCity         string         `json:"livableCity"`
	Notes               string         `json:"notes"`
	Location            string         `json:"location"`
	ObserverReflection  string         `json:"observerReflection"`
	Surprise            string         `json:"surprise"`
	TopicDetails        map[string]any `json:"topicDetails"`
	Districts           []string       `json:"districts"`
	SelectedInitiatives []string       `json:"selectedInitiatives"`
	InterestAreas       []string       `json:"interestAreas"`
	InterestDistricts   []string       `json:"interestDistricts"`
	IsAnonymous         *bool          `json:"isAnonymous"`
	ShareContact        bool           `json:"shareContact"`
	NumPeople           int            `json:"numPeople"`
	Duration            int            `json:"duration"`

	// Contact capture fields. Routed to the PII contact table, never part
	// of the conversation row. ContactInfo is the legacy single email field.
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Phone       string `json:"phone"`
	ContactInfo string `json:"contactInfo"`

	// Accepted from older clients, not persisted.
	ParticipantType string `json:"participantType"`
	SendCopy        bool   `json:"sendCopy"`
}

// Normalize applies defaults and checks the submission. It returns a
// validation error with a human-readable reason; nothing is written to the
// store when it fails.
func (s *Submission) Normalize() error {
	if strings.TrimSpace(s.UUID) == "" {
		return apperrors.MissingRequired("uuid")
	}
	if s.Status == "" {
		s.Status = string(model.StatusInProgress)
	}
	if !model.Status(s.Status).Valid() {
		return apperrors.InvalidInput("status", fmt.Sprintf("must be %q or %q", model.StatusInProgress, model.StatusCompleted))
	}
	if s.NumPeople < 0 {
		return apperrors.ValidationError("numPeople must be a non-negative integer")
	}
	if s.Duration < 0 {
		return apperrors.ValidationError("duration must be a non-negative integer")
	}
	if s.TopicDetails == nil {
		s.TopicDetails = map[string]any{}
	}
	if s.Districts == nil {
		s.Districts = []string{}
	}
	if s.SelectedInitiatives == nil {
		s.SelectedInitiatives = []string{}
	}
	if s.InterestAreas == nil {
		s.InterestAreas = []string{}
	}
	if s.InterestDistricts == nil {
		s.InterestDistricts = []string{}
	}
	return nil
}

// Anonymous reports the isAnonymous flag with its default of true.
func (s *Submission) Anonymous() bool {
	return s.IsAnonymous == nil || *s.IsAnonymous
}

// HasContactFields reports whether any identifying field was submitted.
func (s *Submission) HasContactFields() bool {
	return s.FirstName != "" || s.LastName != "" || s.ContactInfo != "" || s.Phone != ""
}

// UpsertParams maps the normalized submission onto the conversation field set.
func (s *Submission) UpsertParams() model.UpsertConversationParams {
	return model.UpsertConversationParams{
		UUID:                s.UUID,
		Status:              model.Status(s.Status),
		MainInterest:        s.MainInterest,
		LivableCity:         s.LivableCity,
		Notes:               s.Notes,
		Location:            s.Location,
		ObserverReflection:  s.ObserverReflection,
		Surprise:            s.Surprise,
		TopicDetails:        model.JSONMap(s.TopicDetails),
		Districts:           model.StringList(s.Districts),
		SelectedInitiatives: model.StringList(s.SelectedInitiatives),
		InterestAreas:       model.StringList(s.InterestAreas),
		InterestDistricts:   model.StringList(s.InterestDistricts),
		IsAnonymous:         s.Anonymous(),
		ShareContact:        s.ShareContact,
		NumPeople:           s.NumPeople,
		Duration:            s.Duration,
	}
}
