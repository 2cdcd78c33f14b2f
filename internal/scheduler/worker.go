package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salespipe_backend/internal/email"
	identityrepo "salespipe_backend/internal/identity/repository"
	"salespipe_backend/internal/pipeline/domain"
	pipelinerepo "salespipe_backend/internal/pipeline/repository"
	"salespipe_backend/platform/config"
	"salespipe_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

const reminderDateLayout = "2006-01-02"

// LeadSource is the pipeline data the worker reads.
type LeadSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error)
	LeadsWithDueFollowUps(ctx context.Context, cutoff time.Time) ([]*domain.Lead, error)
}

// UserSource resolves lead owners to their email addresses.
type UserSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (identityrepo.User, error)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	leads  LeadSource
	users  UserSource
	sender email.Sender
	dedup  *Deduper
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, sender email.Sender, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	dedup, err := NewDeduper(redisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}
	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	w := &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
		leads:  pipelinerepo.New(pool),
		users:  identityrepo.New(pool),
		sender: sender,
		dedup:  dedup,
		log:    log,
	}
	w.mux.HandleFunc(TaskFollowUpReminder, w.handleFollowUpReminder)
	w.mux.HandleFunc(TaskFollowUpSweep, w.handleFollowUpSweep)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) Close() error {
	return w.dedup.Close()
}

func (w *Worker) handleFollowUpReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseFollowUpReminderPayload(task)
	if err != nil {
		return err
	}
	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return err
	}

	lead, err := w.leads.GetByID(ctx, leadID)
	if errors.Is(err, pipelinerepo.ErrNotFound) {
		// Deleted since parking; nothing to remind about.
		return nil
	}
	if err != nil {
		return err
	}

	return w.deliver(ctx, lead)
}

// handleFollowUpSweep re-scans for due follow-ups that lost their scheduled
// task. Dedup keys keep the overlap with scheduled tasks from double
// sending.
func (w *Worker) handleFollowUpSweep(ctx context.Context, task *asynq.Task) error {
	leads, err := w.leads.LeadsWithDueFollowUps(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	for _, lead := range leads {
		if err := w.deliver(ctx, lead); err != nil {
			w.log.Error("follow-up sweep delivery failed", "error", err, "leadId", lead.ID)
		}
	}
	return nil
}

func (w *Worker) deliver(ctx context.Context, lead *domain.Lead) error {
	// The lead may have moved on since the task was scheduled.
	if lead.Status != domain.StatusFutureOpportunity || lead.FutureOpportunity == nil {
		return nil
	}
	reminderDate := lead.FutureOpportunity.ReminderDate

	first, err := w.dedup.MarkSent(ctx, lead.ID.String(), reminderDate.Format(reminderDateLayout))
	if err != nil {
		return err
	}
	if !first {
		return nil
	}

	owner, err := w.users.GetByID(ctx, lead.OwnerID)
	if err != nil {
		return err
	}

	return w.sender.SendFollowUpReminder(ctx, email.FollowUpReminder{
		To:           owner.Email,
		OwnerName:    owner.Name,
		Company:      lead.Company,
		Reason:       lead.FutureOpportunity.Reason,
		ReminderDate: reminderDate,
	})
}
