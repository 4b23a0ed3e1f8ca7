package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/klimaneustart/dialogue-server/internal/database"
	"github.com/klimaneustart/dialogue-server/internal/model"
)

type ConversationRepository interface {
	FindByID(ctx context.Context, id int64) (*model.Conversation, error)
	FindByUUID(ctx context.Context, uuid string) (*model.Conversation, error)
	List(ctx context.Context) ([]model.Conversation, error)
	Upsert(ctx context.Context, params model.UpsertConversationParams) (*model.Conversation, error)
	SetPIIRef(ctx context.Context, id int64, piiID string) error
	ClearPIIRef(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) (bool, error)
	ClearDanglingPIIRefs(ctx context.Context) (int64, error)
	WithTx(tx *sqlx.Tx) ConversationRepository
}

type conversationRepo struct {
	db database.DBTX
}

func NewConversationRepository(db database.DBTX) ConversationRepository {
	return &conversationRepo{db: db}
}

func (r *conversationRepo) WithTx(tx *sqlx.Tx) ConversationRepository {
	return &conversationRepo{db: tx}
}

func (r *conversationRepo) FindByID(ctx context.Context, id int64) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.GetContext(ctx, &conv, `
		SELECT * FROM conversations WHERE id = $1
	`, id)
	return HandleNotFound(&conv, err)
}

func (r *conversationRepo) FindByUUID(ctx context.Context, uuid string) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.GetContext(ctx, &conv, `
		SELECT * FROM conversations WHERE uuid = $1
	`, uuid)
	return HandleNotFound(&conv, err)
}

func (r *conversationRepo) List(ctx context.Context) ([]model.Conversation, error) {
	var convs []model.Conversation
	err := r.db.SelectContext(ctx, &convs, `
		SELECT * FROM conversations ORDER BY created_at DESC
	`)
	return convs, err
}

// Upsert creates the conversation on first submission of a uuid and fully
// replaces the mutable content fields on resubmission. The single statement
// keeps concurrent same-uuid submissions last-write-wins without a
// read-then-write window. id and created_at are never touched by the update.
func (r *conversationRepo) Upsert(ctx context.Context, params model.UpsertConversationParams) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.GetContext(ctx, &conv, `
		INSERT INTO conversations
			(uuid, status, main_interest, livable_city, notes, location,
			 observer_reflection, surprise, topic_details, districts,
			 selected_initiatives, interest_areas, interest_districts,
			 is_anonymous, share_contact, num_people, duration)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (uuid) DO UPDATE SET
			status = EXCLUDED.status,
			main_interest = EXCLUDED.main_interest,
			livable_city = EXCLUDED.livable_city,
			notes = EXCLUDED.notes,
			location = EXCLUDED.location,
			observer_reflection = EXCLUDED.observer_reflection,
			surprise = EXCLUDED.surprise,
			topic_details = EXCLUDED.topic_details,
			districts = EXCLUDED.districts,
			selected_initiatives = EXCLUDED.selected_initiatives,
			interest_areas = EXCLUDED.interest_areas,
			interest_districts = EXCLUDED.interest_districts,
			is_anonymous = EXCLUDED.is_anonymous,
			share_contact = EXCLUDED.share_contact,
			num_people = EXCLUDED.num_people,
			duration = EXCLUDED.duration,
			updated_at = NOW()
		RETURNING *
	`, params.UUID, params.Status, params.MainInterest, params.LivableCity,
		params.Notes, params.Location, params.ObserverReflection, params.Surprise,
		params.TopicDetails, params.Districts, params.SelectedInitiatives,
		params.InterestAreas, params.InterestDistricts, params.IsAnonymous,
		params.ShareContact, params.NumPeople, params.Duration)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepo) SetPIIRef(ctx context.Context, id int64, piiID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE conversations SET pii_ref = $2 WHERE id = $1
	`, id, piiID)
	return err
}

func (r *conversationRepo) ClearPIIRef(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE conversations SET pii_ref = NULL WHERE id = $1
	`, id)
	return err
}

func (r *conversationRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// ClearDanglingPIIRefs nulls pii_ref on conversations whose PII contact no
// longer exists, e.g. after the retention job purged it.
func (r *conversationRepo) ClearDanglingPIIRefs(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE conversations c SET pii_ref = NULL
		WHERE c.pii_ref IS NOT NULL
		  AND NOT EXISTS (SELECT 1 FROM pii_contacts p WHERE p.id = c.pii_ref)
	`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
