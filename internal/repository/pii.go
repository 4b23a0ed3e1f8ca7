package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/klimaneustart/dialogue-server/internal/database"
	"github.com/klimaneustart/dialogue-server/internal/model"
)

type PIIContactRepository interface {
	Create(ctx context.Context, params model.CreatePIIContactParams) (*model.PIIContact, error)
	FindByID(ctx context.Context, id string) (*model.PIIContact, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) (int64, error)
	WithTx(tx *sqlx.Tx) PIIContactRepository
}

type piiContactRepo struct {
	db database.DBTX
}

func NewPIIContactRepository(db database.DBTX) PIIContactRepository {
	return &piiContactRepo{db: db}
}

func (r *piiContactRepo) WithTx(tx *sqlx.Tx) PIIContactRepository {
	return &piiContactRepo{db: tx}
}

func (r *piiContactRepo) Create(ctx context.Context, params model.CreatePIIContactParams) (*model.PIIContact, error) {
	var pii model.PIIContact
	err := r.db.GetContext(ctx, &pii, `
		INSERT INTO pii_contacts
			(id, conversation_uuid_hash, first_name_enc, last_name_enc,
			 email_enc, phone_enc, consent_given, consent_scope,
			 consent_timestamp, retention_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING *
	`, params.ID, params.ConversationUUIDHash, params.FirstNameEnc,
		params.LastNameEnc, params.EmailEnc, params.PhoneEnc,
		params.ConsentGiven, params.ConsentScope, params.ConsentTimestamp,
		params.RetentionUntil)
	if err != nil {
		return nil, err
	}
	return &pii, nil
}

func (r *piiContactRepo) FindByID(ctx context.Context, id string) (*model.PIIContact, error) {
	var pii model.PIIContact
	err := r.db.GetContext(ctx, &pii, `
		SELECT * FROM pii_contacts WHERE id = $1
	`, id)
	return HandleNotFound(&pii, err)
}

func (r *piiContactRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM pii_contacts WHERE id = $1`, id)
	return err
}

// DeleteExpired purges contacts whose retention window has passed.
func (r *piiContactRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM pii_contacts WHERE retention_until < NOW()
	`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
