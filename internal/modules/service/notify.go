package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event kinds delivered to the notification exchange. Routing key equals
// the kind.
const (
	EventApprovalAdvanced = "approval_advanced"
	EventTaskCompleted    = "task_completed"
	EventActionRequired   = "action_required"
	EventWorkerTaskUpdate = "worker_task_update"
)

// Event is the payload handed to the notification fan-out. Delivery is
// fire-and-forget: transport failures never roll back the state transition
// that produced the event.
type Event struct {
	TaskID        *uuid.UUID  `json:"task_id,omitempty"`
	ProjectID     uuid.UUID   `json:"project_id"`
	TargetUserIDs []uuid.UUID `json:"target_user_ids"`
	EventKind     string      `json:"event_kind"`
	Message       string      `json:"message"`
}

// EventPublisher is satisfied by queue.Publisher.
type EventPublisher interface {
	PublishJSON(ctx context.Context, routingKey string, v any) error
}

type Notifier interface {
	Dispatch(ctx context.Context, ev Event)
}

type mqNotifier struct {
	pub EventPublisher
	log *zap.Logger
}

func NewNotifier(pub EventPublisher, log *zap.Logger) Notifier {
	return &mqNotifier{pub: pub, log: log}
}

func (n *mqNotifier) Dispatch(ctx context.Context, ev Event) {
	if n.pub == nil {
		return
	}
	if err := n.pub.PublishJSON(ctx, ev.EventKind, ev); err != nil {
		n.log.Sugar().Warnw("notification publish failed",
			"kind", ev.EventKind,
			"project_id", ev.ProjectID,
			"err", err,
		)
	}
}
