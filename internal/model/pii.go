package model

import (
	"time"
)

// PIIContact holds the personal data captured with a conversation, stored in
// its own table. conversation_uuid_hash associates it with a conversation
// without a foreign key: the conversation never depends on this row existing.
type PIIContact struct {
	ID                   string     `db:"id" json:"id"`
	ConversationUUIDHash string     `db:"conversation_uuid_hash" json:"conversationUuidHash"`
	FirstNameEnc         string     `db:"first_name_enc" json:"-"`
	LastNameEnc          string     `db:"last_name_enc" json:"-"`
	EmailEnc             string     `db:"email_enc" json:"-"`
	PhoneEnc             string     `db:"phone_enc" json:"-"`
	ConsentGiven         bool       `db:"consent_given" json:"consentGiven"`
	ConsentScope         StringList `db:"consent_scope" json:"consentScope"`
	ConsentTimestamp     time.Time  `db:"consent_timestamp" json:"consentTimestamp"`
	RetentionUntil       time.Time  `db:"retention_until" json:"retentionUntil"`
	CreatedAt            time.Time  `db:"created_at" json:"createdAt"`
}

type CreatePIIContactParams struct {
	ID                   string
	ConversationUUIDHash string
	FirstNameEnc         string
	LastNameEnc          string
	EmailEnc             string
	PhoneEnc             string
	ConsentGiven         bool
	ConsentScope         StringList
	ConsentTimestamp     time.Time
	RetentionUntil       time.Time
}
