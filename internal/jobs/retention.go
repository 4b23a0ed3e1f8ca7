package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/klimaneustart/dialogue-server/internal/repository"
)

// RetentionJob purges PII contacts whose retention window has passed and
// clears the references that pointed at them. Conversations themselves are
// never touched; only explicit erasure removes those.
type RetentionJob struct {
	piiRepo  repository.PIIContactRepository
	convRepo repository.ConversationRepository
	interval time.Duration
	done     chan struct{}
}

func NewRetentionJob(
	piiRepo repository.PIIContactRepository,
	convRepo repository.ConversationRepository,
	interval time.Duration,
) *RetentionJob {
	return &RetentionJob{
		piiRepo:  piiRepo,
		convRepo: convRepo,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (j *RetentionJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("pii retention job started")
}

func (j *RetentionJob) Stop() {
	close(j.done)
	log.Info().Msg("pii retention job stopped")
}

func (j *RetentionJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.purge()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.purge()
		}
	}
}

func (j *RetentionJob) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	purged, err := j.piiRepo.DeleteExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to purge expired pii contacts")
		return
	}
	if purged > 0 {
		log.Info().Int64("count", purged).Msg("purged expired pii contacts")
	}

	cleared, err := j.convRepo.ClearDanglingPIIRefs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to clear dangling pii references")
		return
	}
	if cleared > 0 {
		log.Info().Int64("count", cleared).Msg("cleared dangling pii references")
	}
}
