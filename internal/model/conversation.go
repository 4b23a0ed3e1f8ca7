package model

import (
	"time"
)

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

func (s Status) Valid() bool {
	return s == StatusInProgress || s == StatusCompleted
}

// Conversation is one recorded dialogue session. PIIRef is a weak reference
// to a PIIContact row; it is excluded from JSON so the public API never
// exposes which conversations carry contact data.
type Conversation struct {
	ID                  int64      `db:"id" json:"id"`
	UUID                string     `db:"uuid" json:"uuid"`
	Status              Status     `db:"status" json:"status"`
	MainInterest        string     `db:"main_interest" json:"mainInterest"`
	LivableCity         string     `db:"livable_city" json:"livableCity"`
	Notes               string     `db:"notes" json:"notes"`
	Location            string     `db:"location" json:"location"`
	ObserverReflection  string     `db:"observer_reflection" json:"observerReflection"`
	Surprise            string     `db:"surprise" json:"surprise"`
	TopicDetails        JSONMap    `db:"topic_details" json:"topicDetails"`
	Districts           StringList `db:"districts" json:"districts"`
	SelectedInitiatives StringList `db:"selected_initiatives" json:"selectedInitiatives"`
	InterestAreas       StringList `db:"interest_areas" json:"interestAreas"`
	InterestDistricts   StringList `db:"interest_districts" json:"interestDistricts"`
	IsAnonymous         bool       `db:"is_anonymous" json:"isAnonymous"`
	ShareContact        bool       `db:"share_contact" json:"shareContact"`
	NumPeople           int        `db:"num_people" json:"numPeople"`
	Duration            int        `db:"duration" json:"duration"`
	PIIRef              *string    `db:"pii_ref" json:"-"`
	CreatedAt           time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updatedAt"`
}

// UpsertConversationParams carries the full mutable field set. An upsert for
// an existing uuid replaces all of these; id and created_at are untouched.
type UpsertConversationParams struct {
	UUID                string
	Status              Status
	MainInterest        string
	LivableCity         string
	Notes               string
	Location            string
	ObserverReflection  string
	Surprise            string
	TopicDetails        JSONMap
	Districts           StringList
	SelectedInitiatives StringList
	InterestAreas       StringList
	InterestDistricts   StringList
	IsAnonymous         bool
	ShareContact        bool
	NumPeople           int
	Duration            int
}
