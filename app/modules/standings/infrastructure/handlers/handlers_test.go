package standingshandlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	standingsservice "github.com/pickem-club/standings-engine/app/modules/standings/application"
	standingsevents "github.com/pickem-club/standings-engine/app/modules/standings/domain/events"
	"github.com/pickem-club/standings-engine/app/shared/handlerwrapper"
	"github.com/pickem-club/standings-engine/app/shared/observability/logging"
	"github.com/pickem-club/standings-engine/app/shared/results"
	"github.com/pickem-club/standings-engine/app/shared/sharedtypes"
)

func newTestMessage(t *testing.T, payload any) *message.Message {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(context.Background())
	return msg
}

func decodePayload[T any](t *testing.T, msg *message.Message) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(msg.Payload, &out); err != nil {
		t.Fatalf("decode output payload: %v", err)
	}
	return out
}

func TestHandleGameOutcomeFinalized(t *testing.T) {
	slateID := sharedtypes.SlateID(uuid.New())
	gameID := sharedtypes.GameID(uuid.New())

	t.Run("SchedulesRecompute", func(t *testing.T) {
		service := NewFakeService()
		scheduler := &FakeScheduler{}
		h := NewStandingsHandlers(service, scheduler, logging.NoOpLogger)

		msg := newTestMessage(t, standingsevents.GameOutcomeFinalizedPayloadV1{
			SlateID: slateID,
			GameID:  gameID,
		})

		out, err := h.HandleGameOutcomeFinalized(msg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out) != 0 {
			t.Errorf("expected no output messages, got %d", len(out))
		}
		if len(scheduler.Scheduled) != 1 || scheduler.Scheduled[0] != slateID {
			t.Errorf("expected slate %s scheduled, got %v", slateID, scheduler.Scheduled)
		}
		if len(service.Trace()) != 0 {
			t.Errorf("trigger path must not call the service, got %v", service.Trace())
		}
	})

	t.Run("SchedulerErrorSurfaces", func(t *testing.T) {
		service := NewFakeService()
		scheduler := &FakeScheduler{
			ScheduleRecomputeFunc: func(ctx context.Context, slateID sharedtypes.SlateID) error {
				return errors.New("queue unavailable")
			},
		}
		h := NewStandingsHandlers(service, scheduler, logging.NoOpLogger)

		msg := newTestMessage(t, standingsevents.GameOutcomeFinalizedPayloadV1{
			SlateID: slateID,
			GameID:  gameID,
		})

		if _, err := h.HandleGameOutcomeFinalized(msg); err == nil {
			t.Fatal("expected error from failed scheduling")
		}
	})

	t.Run("MalformedPayloadIsDropped", func(t *testing.T) {
		service := NewFakeService()
		scheduler := &FakeScheduler{}
		h := NewStandingsHandlers(service, scheduler, logging.NoOpLogger)

		msg := message.NewMessage(watermill.NewUUID(), []byte("{not json"))
		msg.SetContext(context.Background())

		out, err := h.HandleGameOutcomeFinalized(msg)
		if err != nil {
			t.Fatalf("malformed payload must not be retried, got error: %v", err)
		}
		if len(out) != 0 || len(scheduler.Scheduled) != 0 {
			t.Error("malformed payload must not produce output or scheduling")
		}
	})
}

func TestHandlePropOutcomeFinalized(t *testing.T) {
	slateID := sharedtypes.SlateID(uuid.New())

	service := NewFakeService()
	scheduler := &FakeScheduler{}
	h := NewStandingsHandlers(service, scheduler, logging.NoOpLogger)

	msg := newTestMessage(t, standingsevents.PropOutcomeFinalizedPayloadV1{
		SlateID:   slateID,
		PropBetID: sharedtypes.PropBetID(uuid.New()),
	})

	out, err := h.HandlePropOutcomeFinalized(msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected no output messages, got %d", len(out))
	}
	if len(scheduler.Scheduled) != 1 || scheduler.Scheduled[0] != slateID {
		t.Errorf("expected slate %s scheduled, got %v", slateID, scheduler.Scheduled)
	}
}

func TestHandleRecomputeRequested(t *testing.T) {
	slateID := sharedtypes.SlateID(uuid.New())
	adminActor := &standingsevents.ActorPayloadV1{UserID: "admin-1", IsAdmin: true}

	t.Run("SuccessPublishesCompleted", func(t *testing.T) {
		service := NewFakeService()
		service.RecomputeSlateFunc = func(ctx context.Context, id sharedtypes.SlateID, actor *sharedtypes.Actor) (standingsservice.RecomputeResult, error) {
			if id != slateID {
				t.Errorf("expected slate %s, got %s", slateID, id)
			}
			if actor == nil || !actor.IsAdmin {
				t.Error("expected the requesting actor to reach the service")
			}
			return results.Success[standingsevents.RecomputeCompletedPayloadV1, standingsevents.RecomputeFailedPayloadV1](
				&standingsevents.RecomputeCompletedPayloadV1{
					SlateID:     slateID,
					UsersRanked: 3,
				},
			), nil
		}
		h := NewStandingsHandlers(service, &FakeScheduler{}, logging.NoOpLogger)

		msg := newTestMessage(t, standingsevents.RecomputeRequestedPayloadV1{
			SlateID: slateID,
			Actor:   adminActor,
		})

		out, err := h.HandleRecomputeRequested(msg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out) != 1 {
			t.Fatalf("expected 1 output message, got %d", len(out))
		}
		if topic := handlerwrapper.TopicFromMetadata(out[0]); topic != standingsevents.RecomputeCompletedV1 {
			t.Errorf("expected topic %s, got %s", standingsevents.RecomputeCompletedV1, topic)
		}
		payload := decodePayload[standingsevents.RecomputeCompletedPayloadV1](t, out[0])
		if payload.UsersRanked != 3 {
			t.Errorf("expected 3 users ranked, got %d", payload.UsersRanked)
		}
	})

	t.Run("BusinessFailurePublishesFailed", func(t *testing.T) {
		service := NewFakeService()
		service.RecomputeSlateFunc = func(ctx context.Context, id sharedtypes.SlateID, actor *sharedtypes.Actor) (standingsservice.RecomputeResult, error) {
			return results.Failure[standingsevents.RecomputeCompletedPayloadV1](
				&standingsevents.RecomputeFailedPayloadV1{
					SlateID: slateID,
					Reason:  "slate not found",
				},
			), nil
		}
		h := NewStandingsHandlers(service, &FakeScheduler{}, logging.NoOpLogger)

		msg := newTestMessage(t, standingsevents.RecomputeRequestedPayloadV1{SlateID: slateID, Actor: adminActor})

		out, err := h.HandleRecomputeRequested(msg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out) != 1 {
			t.Fatalf("expected 1 output message, got %d", len(out))
		}
		if topic := handlerwrapper.TopicFromMetadata(out[0]); topic != standingsevents.RecomputeFailedV1 {
			t.Errorf("expected topic %s, got %s", standingsevents.RecomputeFailedV1, topic)
		}
		payload := decodePayload[standingsevents.RecomputeFailedPayloadV1](t, out[0])
		if payload.Reason != "slate not found" {
			t.Errorf("unexpected failure reason %q", payload.Reason)
		}
	})

	t.Run("UnauthorizedIsTerminalNotRetried", func(t *testing.T) {
		service := NewFakeService()
		service.RecomputeSlateFunc = func(ctx context.Context, id sharedtypes.SlateID, actor *sharedtypes.Actor) (standingsservice.RecomputeResult, error) {
			return standingsservice.RecomputeResult{}, standingsservice.ErrUnauthorized
		}
		h := NewStandingsHandlers(service, &FakeScheduler{}, logging.NoOpLogger)

		msg := newTestMessage(t, standingsevents.RecomputeRequestedPayloadV1{SlateID: slateID})

		out, err := h.HandleRecomputeRequested(msg)
		if err != nil {
			t.Fatalf("authorization rejection must not be retried, got error: %v", err)
		}
		if len(out) != 1 {
			t.Fatalf("expected 1 output message, got %d", len(out))
		}
		if topic := handlerwrapper.TopicFromMetadata(out[0]); topic != standingsevents.RecomputeFailedV1 {
			t.Errorf("expected topic %s, got %s", standingsevents.RecomputeFailedV1, topic)
		}
	})

	t.Run("LeaseContentionIsTerminalNotRetried", func(t *testing.T) {
		service := NewFakeService()
		service.RecomputeSlateFunc = func(ctx context.Context, id sharedtypes.SlateID, actor *sharedtypes.Actor) (standingsservice.RecomputeResult, error) {
			return standingsservice.RecomputeResult{}, standingsservice.ErrRecomputeInProgress
		}
		h := NewStandingsHandlers(service, &FakeScheduler{}, logging.NoOpLogger)

		msg := newTestMessage(t, standingsevents.RecomputeRequestedPayloadV1{SlateID: slateID})

		out, err := h.HandleRecomputeRequested(msg)
		if err != nil {
			t.Fatalf("lease contention must not be retried here, got error: %v", err)
		}
		if len(out) != 1 {
			t.Fatalf("expected 1 output message, got %d", len(out))
		}
	})

	t.Run("InfrastructureErrorIsRetried", func(t *testing.T) {
		service := NewFakeService()
		service.RecomputeSlateFunc = func(ctx context.Context, id sharedtypes.SlateID, actor *sharedtypes.Actor) (standingsservice.RecomputeResult, error) {
			return standingsservice.RecomputeResult{}, errors.New("connection refused")
		}
		h := NewStandingsHandlers(service, &FakeScheduler{}, logging.NoOpLogger)

		msg := newTestMessage(t, standingsevents.RecomputeRequestedPayloadV1{SlateID: slateID})

		if _, err := h.HandleRecomputeRequested(msg); err == nil {
			t.Fatal("infrastructure error must surface for retry")
		}
	})
}

func TestHandleBulkRecomputeRequested(t *testing.T) {
	okSlate := sharedtypes.SlateID(uuid.New())
	badSlate := sharedtypes.SlateID(uuid.New())

	t.Run("PublishesPerSlateOutcomes", func(t *testing.T) {
		service := NewFakeService()
		service.BulkRecomputeSlatesFunc = func(ctx context.Context, slateIDs []sharedtypes.SlateID, actor *sharedtypes.Actor) (map[sharedtypes.SlateID]bool, error) {
			return map[sharedtypes.SlateID]bool{okSlate: true, badSlate: false}, nil
		}
		h := NewStandingsHandlers(service, &FakeScheduler{}, logging.NoOpLogger)

		msg := newTestMessage(t, standingsevents.BulkRecomputeRequestedPayloadV1{
			SlateIDs: []sharedtypes.SlateID{okSlate, badSlate},
			Actor:    &standingsevents.ActorPayloadV1{UserID: "admin-1", IsAdmin: true},
		})

		out, err := h.HandleBulkRecomputeRequested(msg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out) != 1 {
			t.Fatalf("expected 1 output message, got %d", len(out))
		}
		if topic := handlerwrapper.TopicFromMetadata(out[0]); topic != standingsevents.BulkRecomputeCompletedV1 {
			t.Errorf("expected topic %s, got %s", standingsevents.BulkRecomputeCompletedV1, topic)
		}
		payload := decodePayload[standingsevents.BulkRecomputeCompletedPayloadV1](t, out[0])
		if !payload.Results[okSlate.String()] {
			t.Errorf("expected slate %s reported true", okSlate)
		}
		if payload.Results[badSlate.String()] {
			t.Errorf("expected slate %s reported false", badSlate)
		}
	})

	t.Run("UnauthorizedIsDropped", func(t *testing.T) {
		service := NewFakeService()
		service.BulkRecomputeSlatesFunc = func(ctx context.Context, slateIDs []sharedtypes.SlateID, actor *sharedtypes.Actor) (map[sharedtypes.SlateID]bool, error) {
			return nil, standingsservice.ErrUnauthorized
		}
		h := NewStandingsHandlers(service, &FakeScheduler{}, logging.NoOpLogger)

		msg := newTestMessage(t, standingsevents.BulkRecomputeRequestedPayloadV1{
			SlateIDs: []sharedtypes.SlateID{okSlate},
		})

		out, err := h.HandleBulkRecomputeRequested(msg)
		if err != nil {
			t.Fatalf("unauthorized bulk request must not be retried, got error: %v", err)
		}
		if len(out) != 0 {
			t.Errorf("expected no output messages, got %d", len(out))
		}
	})
}

func TestHandleValidationRequested(t *testing.T) {
	slateID := sharedtypes.SlateID(uuid.New())

	service := NewFakeService()
	service.ValidateSlateFunc = func(ctx context.Context, id sharedtypes.SlateID) (standingsservice.ValidationResult, error) {
		return results.Success[standingsevents.ValidationReportPayloadV1, standingsevents.RecomputeFailedPayloadV1](
			&standingsevents.ValidationReportPayloadV1{
				SlateID:           slateID,
				Games:             4,
				ResolvedGames:     3,
				PickersWithoutRow: []sharedtypes.UserID{"drifted-user"},
			},
		), nil
	}
	h := NewStandingsHandlers(service, &FakeScheduler{}, logging.NoOpLogger)

	msg := newTestMessage(t, standingsevents.ValidationRequestedPayloadV1{SlateID: slateID})

	out, err := h.HandleValidationRequested(msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 output message, got %d", len(out))
	}
	if topic := handlerwrapper.TopicFromMetadata(out[0]); topic != standingsevents.ValidationReportV1 {
		t.Errorf("expected topic %s, got %s", standingsevents.ValidationReportV1, topic)
	}
	report := decodePayload[standingsevents.ValidationReportPayloadV1](t, out[0])
	if report.Games != 4 || report.ResolvedGames != 3 {
		t.Errorf("unexpected outcome counts in report: %+v", report)
	}
	if len(report.PickersWithoutRow) != 1 || report.PickersWithoutRow[0] != "drifted-user" {
		t.Errorf("unexpected drift list: %v", report.PickersWithoutRow)
	}
}
