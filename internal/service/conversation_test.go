package service

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/klimaneustart/dialogue-server/internal/database"
	apperrors "github.com/klimaneustart/dialogue-server/internal/errors"
	"github.com/klimaneustart/dialogue-server/internal/model"
	"github.com/klimaneustart/dialogue-server/internal/repository"
	"github.com/klimaneustart/dialogue-server/internal/util"
)

// Mock repositories

type mockConversationRepo struct {
	mock.Mock
}

func (m *mockConversationRepo) FindByID(ctx context.Context, id int64) (*model.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *mockConversationRepo) FindByUUID(ctx context.Context, uuid string) (*model.Conversation, error) {
	args := m.Called(ctx, uuid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *mockConversationRepo) List(ctx context.Context) ([]model.Conversation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Conversation), args.Error(1)
}

func (m *mockConversationRepo) Upsert(ctx context.Context, params model.UpsertConversationParams) (*model.Conversation, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *mockConversationRepo) SetPIIRef(ctx context.Context, id int64, piiID string) error {
	args := m.Called(ctx, id, piiID)
	return args.Error(0)
}

func (m *mockConversationRepo) ClearPIIRef(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockConversationRepo) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockConversationRepo) ClearDanglingPIIRefs(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockConversationRepo) WithTx(tx *sqlx.Tx) repository.ConversationRepository {
	return m
}

type mockPIIRepo struct {
	mock.Mock
}

func (m *mockPIIRepo) Create(ctx context.Context, params model.CreatePIIContactParams) (*model.PIIContact, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PIIContact), args.Error(1)
}

func (m *mockPIIRepo) FindByID(ctx context.Context, id string) (*model.PIIContact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PIIContact), args.Error(1)
}

func (m *mockPIIRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockPIIRepo) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPIIRepo) WithTx(tx *sqlx.Tx) repository.PIIContactRepository {
	return m
}

// fakeTxRunner executes the transaction body directly; the mocks ignore the
// tx handle.
type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn database.TxFunc) error {
	return fn(nil)
}

func piiFromParams(params model.CreatePIIContactParams) *model.PIIContact {
	return &model.PIIContact{
		ID:                   params.ID,
		ConversationUUIDHash: params.ConversationUUIDHash,
		FirstNameEnc:         params.FirstNameEnc,
		LastNameEnc:          params.LastNameEnc,
		EmailEnc:             params.EmailEnc,
		PhoneEnc:             params.PhoneEnc,
		ConsentGiven:         params.ConsentGiven,
		ConsentScope:         params.ConsentScope,
		ConsentTimestamp:     params.ConsentTimestamp,
		RetentionUntil:       params.RetentionUntil,
	}
}

func newTestService(convRepo *mockConversationRepo, piiRepo *mockPIIRepo, key string) *ConversationService {
	return NewConversationService(fakeTxRunner{}, convRepo, piiRepo, key, 365*24*time.Hour)
}

func boolPtr(b bool) *bool { return &b }

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects missing uuid without touching the store", func(t *testing.T) {
		convRepo := new(mockConversationRepo)
		piiRepo := new(mockPIIRepo)
		svc := newTestService(convRepo, piiRepo, "")

		_, err := svc.Submit(ctx, &Submission{Notes: "no uuid here"})

		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeMissingRequired, appErr.Code)
		convRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("creates conversation and skips PII when contact not shared", func(t *testing.T) {
		convRepo := new(mockConversationRepo)
		piiRepo := new(mockPIIRepo)
		svc := newTestService(convRepo, piiRepo, "")

		convRepo.On("Upsert", mock.Anything, mock.Anything).Return(&model.Conversation{
			ID:   7,
			UUID: "abc-123",
		}, nil)

		result, err := svc.Submit(ctx, &Submission{
			UUID:         "abc-123",
			ShareContact: false,
			FirstName:    "Anna",
		})

		require.NoError(t, err)
		assert.Equal(t, int64(7), result.ID)
		assert.Equal(t, "abc-123", result.UUID)
		piiRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("skips PII when anonymous even with shareContact", func(t *testing.T) {
		convRepo := new(mockConversationRepo)
		piiRepo := new(mockPIIRepo)
		svc := newTestService(convRepo, piiRepo, "")

		convRepo.On("Upsert", mock.Anything, mock.Anything).Return(&model.Conversation{ID: 1, UUID: "u1"}, nil)

		_, err := svc.Submit(ctx, &Submission{
			UUID:         "u1",
			ShareContact: true,
			// isAnonymous omitted, defaults to true
			FirstName: "Anna",
		})

		require.NoError(t, err)
		piiRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("skips PII when no identifying field is present", func(t *testing.T) {
		convRepo := new(mockConversationRepo)
		piiRepo := new(mockPIIRepo)
		svc := newTestService(convRepo, piiRepo, "")

		convRepo.On("Upsert", mock.Anything, mock.Anything).Return(&model.Conversation{ID: 2, UUID: "u2"}, nil)

		_, err := svc.Submit(ctx, &Submission{
			UUID:         "u2",
			ShareContact: true,
			IsAnonymous:  boolPtr(false),
		})

		require.NoError(t, err)
		piiRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("captures and links PII when consented", func(t *testing.T) {
		convRepo := new(mockConversationRepo)
		piiRepo := new(mockPIIRepo)
		svc := newTestService(convRepo, piiRepo, "")

		convRepo.On("Upsert", mock.Anything, mock.Anything).Return(&model.Conversation{ID: 3, UUID: "u3"}, nil)
		piiRepo.On("Create", mock.Anything, mock.MatchedBy(func(params model.CreatePIIContactParams) bool {
			return params.ConversationUUIDHash == util.HashUUID("u3") &&
				params.FirstNameEnc == "Anna" &&
				params.EmailEnc == "anna@example.org" &&
				params.ConsentGiven &&
				len(params.ConsentScope) == 1 && params.ConsentScope[0] == "contact" &&
				params.RetentionUntil.After(time.Now().Add(364*24*time.Hour))
		})).Return(piiFromParams(model.CreatePIIContactParams{ID: "pii-1"}), nil)
		convRepo.On("SetPIIRef", mock.Anything, int64(3), "pii-1").Return(nil)

		_, err := svc.Submit(ctx, &Submission{
			UUID:         "u3",
			ShareContact: true,
			IsAnonymous:  boolPtr(false),
			FirstName:    "Anna",
			ContactInfo:  "anna@example.org",
		})

		require.NoError(t, err)
		piiRepo.AssertExpectations(t)
		convRepo.AssertExpectations(t)
	})

	t.Run("encrypts contact fields when a key is configured", func(t *testing.T) {
		key := "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
		convRepo := new(mockConversationRepo)
		piiRepo := new(mockPIIRepo)
		svc := newTestService(convRepo, piiRepo, key)

		convRepo.On("Upsert", mock.Anything, mock.Anything).Return(&model.Conversation{ID: 4, UUID: "u4"}, nil)
		piiRepo.On("Create", mock.Anything, mock.MatchedBy(func(params model.CreatePIIContactParams) bool {
			if params.PhoneEnc == "030-1234567" {
				return false
			}
			plain, err := util.Decrypt(key, params.PhoneEnc)
			return err == nil && plain == "030-1234567"
		})).Return(piiFromParams(model.CreatePIIContactParams{ID: "pii-2"}), nil)
		convRepo.On("SetPIIRef", mock.Anything, int64(4), "pii-2").Return(nil)

		_, err := svc.Submit(ctx, &Submission{
			UUID:         "u4",
			ShareContact: true,
			IsAnonymous:  boolPtr(false),
			Phone:        "030-1234567",
		})

		require.NoError(t, err)
		piiRepo.AssertExpectations(t)
	})

	t.Run("replaces an existing PII row on consented resubmission", func(t *testing.T) {
		convRepo := new(mockConversationRepo)
		piiRepo := new(mockPIIRepo)
		svc := newTestService(convRepo, piiRepo, "")

		oldRef := "pii-old"
		convRepo.On("Upsert", mock.Anything, mock.Anything).Return(&model.Conversation{ID: 5, UUID: "u5", PIIRef: &oldRef}, nil)
		piiRepo.On("Delete", mock.Anything, "pii-old").Return(nil)
		piiRepo.On("Create", mock.Anything, mock.Anything).Return(piiFromParams(model.CreatePIIContactParams{ID: "pii-new"}), nil)
		convRepo.On("SetPIIRef", mock.Anything, int64(5), "pii-new").Return(nil)

		_, err := svc.Submit(ctx, &Submission{
			UUID:         "u5",
			ShareContact: true,
			IsAnonymous:  boolPtr(false),
			LastName:     "Mueller",
		})

		require.NoError(t, err)
		piiRepo.AssertExpectations(t)
	})

	t.Run("retracts PII when consent is withdrawn on resubmission", func(t *testing.T) {
		convRepo := new(mockConversationRepo)
		piiRepo := new(mockPIIRepo)
		svc := newTestService(convRepo, piiRepo, "")

		ref := "pii-stale"
		convRepo.On("Upsert", mock.Anything, mock.Anything).Return(&model.Conversation{ID: 6, UUID: "u6", PIIRef: &ref}, nil)
		piiRepo.On("Delete", mock.Anything, "pii-stale").Return(nil)
		convRepo.On("ClearPIIRef", mock.Anything, int64(6)).Return(nil)

		_, err := svc.Submit(ctx, &Submission{
			UUID:         "u6",
			ShareContact: false,
			FirstName:    "Anna",
		})

		require.NoError(t, err)
		piiRepo.AssertExpectations(t)
		convRepo.AssertExpectations(t)
	})

	t.Run("surfaces store failures as retryable database errors", func(t *testing.T) {
		convRepo := new(mockConversationRepo)
		piiRepo := new(mockPIIRepo)
		svc := newTestService(convRepo, piiRepo, "")

		convRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil, assert.AnError)

		_, err := svc.Submit(ctx, &Submission{UUID: "u7"})

		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeDatabase, appErr.Code)
	})
}

func TestGetByIdentifier(t *testing.T) {
	ctx := context.Background()

	t.Run("numeric identifier resolves by surrogate id", func(t *testing.T) {
		convRepo := new(mockConversationRepo)
		svc := newTestService(convRepo, new(mockPIIRepo), "")

		convRepo.On("FindByID", mock.Anything, int64(42)).Return(&model.Conversation{ID: 42, UUID: "u"}, nil)

		conv, err := svc.GetByIdentifier(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, int64(42), conv.ID)
	})

	t.Run("non-numeric identifier resolves by uuid", func(t *testing.T) {
		convRepo := new(mockConversationRepo)
		svc := newTestService(convRepo, new(mockPIIRepo), "")

		convRepo.On("FindByUUID", mock.Anything, "abc-123").Return(&model.Conversation{ID: 1, UUID: "abc-123"}, nil)

		conv, err := svc.GetByIdentifier(ctx, "abc-123")
		require.NoError(t, err)
		assert.Equal(t, "abc-123", conv.UUID)
	})

	t.Run("unknown identifier yields NotFound", func(t *testing.T) {
		convRepo := new(mockConversationRepo)
		svc := newTestService(convRepo, new(mockPIIRepo), "")

		convRepo.On("FindByUUID", mock.Anything, "missing").Return(nil, nil)

		_, err := svc.GetByIdentifier(ctx, "missing")
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeNotFound, appErr.Code)
	})
}

func TestErasePII(t *testing.T) {
	ctx := context.Background()

	t.Run("no-op without a linked contact", func(t *testing.T) {
		convRepo := new(mockConversationRepo)
		piiRepo := new(mockPIIRepo)
		svc := newTestService(convRepo, piiRepo, "")

		convRepo.On("FindByID", mock.Anything, int64(1)).Return(&model.Conversation{ID: 1}, nil)

		require.NoError(t, svc.ErasePII(ctx, "1"))
		piiRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("deletes contact and clears the reference", func(t *testing.T) {
		convRepo := new(mockConversationRepo)
		piiRepo := new(mockPIIRepo)
		svc := newTestService(convRepo, piiRepo, "")

		ref := "pii-9"
		convRepo.On("FindByID", mock.Anything, int64(2)).Return(&model.Conversation{ID: 2, PIIRef: &ref}, nil)
		piiRepo.On("Delete", mock.Anything, "pii-9").Return(nil)
		convRepo.On("ClearPIIRef", mock.Anything, int64(2)).Return(nil)

		require.NoError(t, svc.ErasePII(ctx, "2"))
		piiRepo.AssertExpectations(t)
		convRepo.AssertExpectations(t)
	})

	t.Run("unknown conversation yields NotFound", func(t *testing.T) {
		convRepo := new(mockConversationRepo)
		svc := newTestService(convRepo, new(mockPIIRepo), "")

		convRepo.On("FindByID", mock.Anything, int64(3)).Return(nil, nil)

		err := svc.ErasePII(ctx, "3")
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	})
}

func TestErase(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes PII before the conversation", func(t *testing.T) {
		convRepo := new(mockConversationRepo)
		piiRepo := new(mockPIIRepo)
		svc := newTestService(convRepo, piiRepo, "")

		ref := "pii-7"
		convRepo.On("FindByID", mock.Anything, int64(10)).Return(&model.Conversation{ID: 10, PIIRef: &ref}, nil)
		piiRepo.On("Delete", mock.Anything, "pii-7").Return(nil)
		convRepo.On("Delete", mock.Anything, int64(10)).Return(true, nil)

		require.NoError(t, svc.Erase(ctx, "10"))
		piiRepo.AssertExpectations(t)
		convRepo.AssertExpectations(t)
	})

	t.Run("second erase yields NotFound without crashing", func(t *testing.T) {
		convRepo := new(mockConversationRepo)
		svc := newTestService(convRepo, new(mockPIIRepo), "")

		convRepo.On("FindByID", mock.Anything, int64(10)).Return(nil, nil)

		err := svc.Erase(ctx, "10")
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	})
}
