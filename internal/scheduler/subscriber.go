package scheduler

import (
	"context"

	"salespipe_backend/internal/events"
	"salespipe_backend/platform/logger"
)

// RegisterFollowUpScheduler subscribes to FollowUpScheduled events and
// enqueues a reminder task at each lead's reminder date. Called by the API
// process when a scheduler client is configured.
func RegisterFollowUpScheduler(bus events.Bus, client ReminderScheduler, log *logger.Logger) {
	bus.Subscribe(events.FollowUpScheduled{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.FollowUpScheduled)
		if !ok {
			return nil
		}

		payload := FollowUpReminderPayload{
			LeadID:       e.LeadID.String(),
			OwnerID:      e.OwnerID.String(),
			Company:      e.Company,
			Reason:       e.Reason,
			ReminderDate: e.ReminderDate.Format(reminderDateLayout),
		}
		if err := client.ScheduleFollowUpReminder(ctx, payload, e.ReminderDate); err != nil {
			log.Error("failed to schedule follow-up reminder", "error", err, "leadId", e.LeadID)
			return err
		}

		log.Info("follow-up reminder scheduled", "leadId", e.LeadID, "runAt", e.ReminderDate)
		return nil
	}))
}
