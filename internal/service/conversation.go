package service

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/klimaneustart/dialogue-server/internal/database"
	apperrors "github.com/klimaneustart/dialogue-server/internal/errors"
	"github.com/klimaneustart/dialogue-server/internal/model"
	"github.com/klimaneustart/dialogue-server/internal/repository"
	"github.com/klimaneustart/dialogue-server/internal/util"
)

// TxRunner runs a function inside a store transaction. *database.DB
// implements it.
type TxRunner interface {
	WithTx(ctx context.Context, fn database.TxFunc) error
}

type SubmitResult struct {
	ID   int64  `json:"id"`
	UUID string `json:"uuid"`
}

type ConversationService struct {
	db            TxRunner
	convRepo      repository.ConversationRepository
	piiRepo       repository.PIIContactRepository
	encryptionKey string
	piiRetention  time.Duration
}

func NewConversationService(
	db TxRunner,
	convRepo repository.ConversationRepository,
	piiRepo repository.PIIContactRepository,
	encryptionKey string,
	piiRetention time.Duration,
) *ConversationService {
	return &ConversationService{
		db:            db,
		convRepo:      convRepo,
		piiRepo:       piiRepo,
		encryptionKey: encryptionKey,
		piiRetention:  piiRetention,
	}
}

// Submit validates and upserts one submission, keyed by uuid. Resubmitting
// the same uuid replaces the conversation content in place, so retries after
// a transient store failure are safe.
func (s *ConversationService) Submit(ctx context.Context, sub *Submission) (*SubmitResult, error) {
	if err := sub.Normalize(); err != nil {
		return nil, err
	}

	conv, err := s.convRepo.Upsert(ctx, sub.UpsertParams())
	if err != nil {
		return nil, apperrors.Database(err)
	}

	capture := sub.ShareContact && !sub.Anonymous() && sub.HasContactFields()
	switch {
	case capture:
		if err := s.capturePII(ctx, conv, sub); err != nil {
			return nil, err
		}
	case conv.PIIRef != nil:
		// Consent withdrawn on resubmission: the previously captured
		// contact must not outlive the consent.
		if err := s.deleteLinkedPII(ctx, conv); err != nil {
			return nil, err
		}
	}

	log.Info().
		Int64("id", conv.ID).
		Str("uuid", conv.UUID).
		Str("status", string(conv.Status)).
		Bool("piiCaptured", capture).
		Msg("conversation submitted")

	return &SubmitResult{ID: conv.ID, UUID: conv.UUID}, nil
}

// capturePII stores the contact fields in their own row and links it.
// An existing row for the conversation is replaced, never accumulated.
func (s *ConversationService) capturePII(ctx context.Context, conv *model.Conversation, sub *Submission) error {
	firstName, err := s.encryptField(sub.FirstName)
	if err != nil {
		return err
	}
	lastName, err := s.encryptField(sub.LastName)
	if err != nil {
		return err
	}
	email, err := s.encryptField(sub.ContactInfo)
	if err != nil {
		return err
	}
	phone, err := s.encryptField(sub.Phone)
	if err != nil {
		return err
	}

	now := time.Now()
	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		convRepo := s.convRepo.WithTx(tx)
		piiRepo := s.piiRepo.WithTx(tx)

		if conv.PIIRef != nil {
			if err := piiRepo.Delete(ctx, *conv.PIIRef); err != nil {
				return err
			}
		}

		pii, err := piiRepo.Create(ctx, model.CreatePIIContactParams{
			ID:                   uuid.NewString(),
			ConversationUUIDHash: util.HashUUID(conv.UUID),
			FirstNameEnc:         firstName,
			LastNameEnc:          lastName,
			EmailEnc:             email,
			PhoneEnc:             phone,
			ConsentGiven:         true,
			ConsentScope:         model.StringList{"contact"},
			ConsentTimestamp:     now,
			RetentionUntil:       now.Add(s.piiRetention),
		})
		if err != nil {
			return err
		}

		return convRepo.SetPIIRef(ctx, conv.ID, pii.ID)
	})
	if err != nil {
		return apperrors.Database(err)
	}
	return nil
}

// encryptField applies field-level encryption when a key is configured.
// Empty values stay empty either way.
func (s *ConversationService) encryptField(value string) (string, error) {
	if value == "" || s.encryptionKey == "" {
		return value, nil
	}
	encrypted, err := util.Encrypt(s.encryptionKey, value)
	if err != nil {
		return "", apperrors.Internal("Failed to protect contact data").WithCause(err)
	}
	return encrypted, nil
}

// GetByIdentifier looks up a conversation by surrogate id (numeric) or uuid.
func (s *ConversationService) GetByIdentifier(ctx context.Context, identifier string) (*model.Conversation, error) {
	return s.lookup(ctx, s.convRepo, identifier)
}

func (s *ConversationService) lookup(ctx context.Context, repo repository.ConversationRepository, identifier string) (*model.Conversation, error) {
	var conv *model.Conversation
	var err error
	if id, parseErr := strconv.ParseInt(identifier, 10, 64); parseErr == nil {
		conv, err = repo.FindByID(ctx, id)
	} else {
		conv, err = repo.FindByUUID(ctx, identifier)
	}
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if conv == nil {
		return nil, apperrors.NotFound("Conversation")
	}
	return conv, nil
}

// List returns all conversations, newest first.
func (s *ConversationService) List(ctx context.Context) ([]model.Conversation, error) {
	convs, err := s.convRepo.List(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return convs, nil
}

// ErasePII deletes the linked contact row and nulls the reference. Calling
// it on a conversation without captured PII is a no-op, so it is safe to
// call twice.
func (s *ConversationService) ErasePII(ctx context.Context, identifier string) error {
	conv, err := s.GetByIdentifier(ctx, identifier)
	if err != nil {
		return err
	}
	if conv.PIIRef == nil {
		return nil
	}
	if err := s.deleteLinkedPII(ctx, conv); err != nil {
		return err
	}
	log.Info().Int64("id", conv.ID).Msg("pii erased")
	return nil
}

func (s *ConversationService) deleteLinkedPII(ctx context.Context, conv *model.Conversation) error {
	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.piiRepo.WithTx(tx).Delete(ctx, *conv.PIIRef); err != nil {
			return err
		}
		return s.convRepo.WithTx(tx).ClearPIIRef(ctx, conv.ID)
	})
	if err != nil {
		return apperrors.Database(err)
	}
	return nil
}

// Erase removes the conversation and, first, any linked PII contact. PII
// must never outlive its owning conversation.
func (s *ConversationService) Erase(ctx context.Context, identifier string) error {
	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		convRepo := s.convRepo.WithTx(tx)
		piiRepo := s.piiRepo.WithTx(tx)

		conv, err := s.lookup(ctx, convRepo, identifier)
		if err != nil {
			return err
		}

		if conv.PIIRef != nil {
			if err := piiRepo.Delete(ctx, *conv.PIIRef); err != nil {
				return err
			}
		}

		found, err := convRepo.Delete(ctx, conv.ID)
		if err != nil {
			return err
		}
		if !found {
			return apperrors.NotFound("Conversation")
		}
		return nil
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return err
		}
		return apperrors.Database(err)
	}
	log.Info().Str("identifier", identifier).Msg("conversation erased")
	return nil
}
