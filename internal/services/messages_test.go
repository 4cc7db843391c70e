package services

import (
	"context"
	"testing"

	"github.com/readyresponse/dispatch/internal/apperrors"
	"github.com/readyresponse/dispatch/internal/models"
	"github.com/readyresponse/dispatch/internal/testutil"
	"github.com/readyresponse/dispatch/internal/types"
)

func TestCommunityChatGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := testutil.CreateIncident(t, f.db, f.community.ID, types.IncidentPending)
	pendingID := pending.ID

	_, err := f.svc.Messages.Send(ctx, as(f.community), SendMessageInput{
		ReceiverID: f.coordinator.ID,
		IncidentID: &pendingID,
		Message:    "Is anyone coming?",
	})
	expectKind(t, err, apperrors.KindAuthorization)
	if apperrors.Message(err) != "Chat not allowed until resource is assigned" {
		t.Fatalf("unexpected message %q", apperrors.Message(err))
	}

	resource := testutil.CreateResource(t, f.db, f.agency.ID, "Engine 1")
	if _, err := f.svc.Incidents.AssignResource(ctx, as(f.coordinator), pending.ID, resource.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	msg, err := f.svc.Messages.Send(ctx, as(f.community), SendMessageInput{
		ReceiverID: f.coordinator.ID,
		IncidentID: &pendingID,
		Message:    "Thank you",
	})
	if err != nil {
		t.Fatalf("send after assignment: %v", err)
	}
	if msg.SenderName != f.community.Name || msg.ReceiverRole != types.RoleCoordinator {
		t.Fatalf("unexpected joined fields %+v", msg)
	}
}

func TestChatGateRejectsOtherReporters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	incident := testutil.CreateIncident(t, f.db, f.community.ID, types.IncidentPending)
	resource := testutil.CreateResource(t, f.db, f.agency.ID, "Engine 1")
	if _, err := f.svc.Incidents.AssignResource(ctx, as(f.coordinator), incident.ID, resource.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	id := incident.ID
	_, err := f.svc.Messages.Send(ctx, as(f.community2), SendMessageInput{ReceiverID: f.coordinator.ID, IncidentID: &id, Message: "hi"})
	expectKind(t, err, apperrors.KindAuthorization)

	_, err = f.svc.Messages.Send(ctx, as(f.community), SendMessageInput{ReceiverID: f.coordinator.ID, Message: "no incident"})
	expectKind(t, err, apperrors.KindAuthorization)

	_, err = f.svc.Messages.Send(ctx, as(f.community2), SendMessageInput{ReceiverID: f.agency.ID, IncidentID: &id, Message: "to agency"})
	expectKind(t, err, apperrors.KindAuthorization)
}

func TestCommunityGateAppliesToAnyReceiver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := testutil.CreateIncident(t, f.db, f.community.ID, types.IncidentPending)
	pendingID := pending.ID
	_, err := f.svc.Messages.Send(ctx, as(f.community), SendMessageInput{ReceiverID: f.agency.ID, IncidentID: &pendingID, Message: "anyone there?"})
	expectKind(t, err, apperrors.KindAuthorization)

	incident := testutil.CreateIncident(t, f.db, f.community.ID, types.IncidentPending)
	resource := testutil.CreateResource(t, f.db, f.agency.ID, "Engine 1")
	if _, err := f.svc.Incidents.AssignResource(ctx, as(f.coordinator), incident.ID, resource.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	id := incident.ID
	msg, err := f.svc.Messages.Send(ctx, as(f.community), SendMessageInput{ReceiverID: f.agency.ID, IncidentID: &id, Message: "gate code is 4411"})
	if err != nil {
		t.Fatalf("send to agency after assignment: %v", err)
	}
	if msg.ReceiverRole != types.RoleAgency {
		t.Fatalf("unexpected receiver %+v", msg)
	}
}

func TestChatStaysOpenAfterResolution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	incident := testutil.CreateIncident(t, f.db, f.community.ID, types.IncidentPending)
	resource := testutil.CreateResource(t, f.db, f.agency.ID, "Engine 1")
	if _, err := f.svc.Incidents.AssignResource(ctx, as(f.coordinator), incident.ID, resource.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := f.svc.Incidents.ResolveIncident(ctx, as(f.community), incident.ID); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	id := incident.ID
	if _, err := f.svc.Messages.Send(ctx, as(f.community), SendMessageInput{ReceiverID: f.coordinator.ID, IncidentID: &id, Message: "All clear"}); err != nil {
		t.Fatalf("send after resolution: %v", err)
	}

	msgs, err := f.svc.Messages.List(ctx, as(f.community), nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected system message and reply, got %d", len(msgs))
	}
	if msgs[0].Message != types.SystemMessageChatUnlocked {
		t.Fatalf("expected system message first, got %q", msgs[0].Message)
	}
}

func TestResolvedWithoutAssignmentStaysLocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	incident := testutil.CreateIncident(t, f.db, f.community.ID, types.IncidentPending)
	if _, err := f.svc.Incidents.ResolveIncident(ctx, as(f.community), incident.ID); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	id := incident.ID
	_, err := f.svc.Messages.Send(ctx, as(f.community), SendMessageInput{ReceiverID: f.coordinator.ID, IncidentID: &id, Message: "hello"})
	expectKind(t, err, apperrors.KindAuthorization)
}

func TestCoordinatorAgencyChatIsUnrestricted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Messages.Send(ctx, as(f.coordinator), SendMessageInput{ReceiverID: f.agency.ID, Message: "Status?"}); err != nil {
		t.Fatalf("coordinator to agency: %v", err)
	}
	if _, err := f.svc.Messages.Send(ctx, as(f.agency), SendMessageInput{ReceiverID: f.coordinator.ID, Message: "En route"}); err != nil {
		t.Fatalf("agency to coordinator: %v", err)
	}

	events := f.pub.Named(types.EventNewMessage)
	if len(events) != 4 {
		t.Fatalf("expected each message on both user topics, got %d events", len(events))
	}
}

func TestSendValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Messages.Send(ctx, as(f.coordinator), SendMessageInput{ReceiverID: f.agency.ID, Message: "   "})
	expectKind(t, err, apperrors.KindValidation)

	_, err = f.svc.Messages.Send(ctx, as(f.coordinator), SendMessageInput{ReceiverID: 9999, Message: "hi"})
	expectKind(t, err, apperrors.KindNotFound)

	missing := uint(9999)
	_, err = f.svc.Messages.Send(ctx, as(f.coordinator), SendMessageInput{ReceiverID: f.agency.ID, IncidentID: &missing, Message: "hi"})
	expectKind(t, err, apperrors.KindNotFound)
}

func TestMarkAsReadIsBulk(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.svc.Messages.Send(ctx, as(f.coordinator), SendMessageInput{ReceiverID: f.agency.ID, Message: "one"})
	f.svc.Messages.Send(ctx, as(f.coordinator), SendMessageInput{ReceiverID: f.agency.ID, Message: "two"})
	f.svc.Messages.Send(ctx, as(f.agency), SendMessageInput{ReceiverID: f.coordinator.ID, Message: "reply"})

	n, err := f.svc.Messages.MarkAsRead(ctx, as(f.agency))
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 messages marked, got %d", n)
	}

	var unreadForCoordinator int64
	f.db.Model(&models.Message{}).Where("receiver_id = ? AND is_read = ?", f.coordinator.ID, false).Count(&unreadForCoordinator)
	if unreadForCoordinator != 1 {
		t.Fatal("messages addressed to others must stay unread")
	}
}

func TestDeleteMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	msg, err := f.svc.Messages.Send(ctx, as(f.coordinator), SendMessageInput{ReceiverID: f.agency.ID, Message: "delete me"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	expectKind(t, f.svc.Messages.Delete(ctx, as(f.agency2), msg.ID), apperrors.KindNotFound)
	expectKind(t, f.svc.Messages.Delete(ctx, as(f.agency), 9999), apperrors.KindNotFound)

	if err := f.svc.Messages.Delete(ctx, as(f.agency), msg.ID); err != nil {
		t.Fatalf("receiver delete: %v", err)
	}

	var count int64
	f.db.Model(&models.Message{}).Count(&count)
	if count != 0 {
		t.Fatal("message should be gone")
	}
}

func TestListMessagesScopedToParticipants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.svc.Messages.Send(ctx, as(f.coordinator), SendMessageInput{ReceiverID: f.agency.ID, Message: "for agency 1"})
	f.svc.Messages.Send(ctx, as(f.coordinator), SendMessageInput{ReceiverID: f.agency2.ID, Message: "for agency 2"})

	msgs, err := f.svc.Messages.List(ctx, as(f.agency), nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Message != "for agency 1" {
		t.Fatalf("unexpected messages %+v", msgs)
	}

	all, err := f.svc.Messages.List(ctx, as(f.coordinator), nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected coordinator to see both, got %d", len(all))
	}
}
