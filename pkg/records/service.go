package records

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/synaptica-ai/hospital/pkg/common/logger"
	"github.com/synaptica-ai/hospital/pkg/common/models"
)

// EventSource is the source stamped on published change events.
const EventSource = "hospital"

const publishTimeout = 5 * time.Second

type AuditAppender interface {
	Append(ctx context.Context, entry models.AuditLog) error
}

// Publisher is satisfied by kafka.Producer.
type Publisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

type actorKey struct{}

// WithActor attaches the identity recorded in audit entries.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFrom(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return "system"
}

// Hooks are the side effects run after a successful mutation. Nil members
// are skipped.
type Hooks struct {
	Audit      AuditAppender
	Events     Publisher
	OnMutation func(entity, action string)
}

// Service wraps a repository and records every successful mutation in the
// audit log, on the event bus and in metrics. Reads pass straight through.
// Side-effect failures are logged and never fail the mutation.
type Service[T Entity, I any] struct {
	next   Repository[T, I]
	entity string
	hooks  Hooks
}

func NewService[T Entity, I any](next Repository[T, I], entity string, hooks Hooks) *Service[T, I] {
	return &Service[T, I]{next: next, entity: entity, hooks: hooks}
}

func (s *Service[T, I]) List(ctx context.Context, query string) ([]T, error) {
	return s.next.List(ctx, query)
}

func (s *Service[T, I]) Get(ctx context.Context, id int64) (T, error) {
	return s.next.Get(ctx, id)
}

func (s *Service[T, I]) Create(ctx context.Context, input I) (T, error) {
	record, err := s.next.Create(ctx, input)
	if err != nil {
		return record, err
	}
	s.record(ctx, ActionCreated, record.EntityID(), toPayload(record))
	return record, nil
}

func (s *Service[T, I]) Update(ctx context.Context, id int64, input I) (T, error) {
	record, err := s.next.Update(ctx, id, input)
	if err != nil {
		return record, err
	}
	s.record(ctx, ActionUpdated, id, toPayload(record))
	return record, nil
}

func (s *Service[T, I]) Delete(ctx context.Context, id int64) error {
	if err := s.next.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, ActionDeleted, id, map[string]interface{}{"id": id})
	return nil
}

func (s *Service[T, I]) record(ctx context.Context, action string, id int64, payload map[string]interface{}) {
	actor := ActorFrom(ctx)
	fields := map[string]interface{}{
		"entity":    s.entity,
		"entity_id": id,
		"action":    action,
		"actor":     actor,
	}

	if s.hooks.Audit != nil {
		err := s.hooks.Audit.Append(ctx, models.AuditLog{
			Entity:   s.entity,
			EntityID: id,
			Action:   s.entity + "_" + action,
			Actor:    actor,
			Payload:  payload,
		})
		if err != nil {
			logger.Log.WithError(err).WithFields(fields).Error("failed to append audit log")
		}
	}

	if s.hooks.Events != nil {
		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		err := s.hooks.Events.PublishEvent(pubCtx, s.entity+"."+action, EventSource, map[string]interface{}{
			"key":    fmt.Sprintf("%s:%d", s.entity, id),
			"id":     id,
			"actor":  actor,
			"record": payload,
		})
		cancel()
		if err != nil {
			logger.Log.WithError(err).WithFields(fields).Warn("failed to publish change event")
		}
	}

	if s.hooks.OnMutation != nil {
		s.hooks.OnMutation(s.entity, action)
	}

	logger.Log.WithFields(fields).Info("record changed")
}

func toPayload(v interface{}) map[string]interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]interface{}
	_ = json.Unmarshal(data, &out)
	return out
}
