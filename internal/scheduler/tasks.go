package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskFollowUpReminder fires when a future-opportunity lead's reminder date
// arrives.
const TaskFollowUpReminder = "pipeline.followup.reminder"

// TaskFollowUpSweep periodically re-scans the database for due follow-ups
// whose scheduled task was lost (e.g. Redis was flushed).
const TaskFollowUpSweep = "pipeline.followup.sweep"

type FollowUpReminderPayload struct {
	LeadID       string `json:"leadId"`
	OwnerID      string `json:"ownerId"`
	Company      string `json:"company"`
	Reason       string `json:"reason"`
	ReminderDate string `json:"reminderDate"`
}

func NewFollowUpReminderTask(payload FollowUpReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFollowUpReminder, data), nil
}

func ParseFollowUpReminderPayload(task *asynq.Task) (FollowUpReminderPayload, error) {
	var payload FollowUpReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return FollowUpReminderPayload{}, err
	}
	return payload, nil
}

func NewFollowUpSweepTask() *asynq.Task {
	return asynq.NewTask(TaskFollowUpSweep, nil)
}
