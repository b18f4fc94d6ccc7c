package service_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/contafacil/escritorio-go/internal/domain"
	"github.com/contafacil/escritorio-go/internal/infra/memstore"
	"github.com/contafacil/escritorio-go/internal/service"
)

func newObligationFixture(t *testing.T) (*service.ObligationService, string) {
	t.Helper()
	clients, client := newTestClientStore(t)
	svc := service.NewObligationService(memstore.NewObligationStore(), clients, zap.NewNop())
	return svc, client.ID
}

func obligationRequest(clientID, dueDate string) *domain.ObligationRequest {
	return &domain.ObligationRequest{
		ClientID:       clientID,
		Type:           "DAS",
		Description:    "DAS Simples Nacional",
		ReferenceMonth: "2024-06",
		DueDate:        dueDate,
	}
}

func TestObligationCreate_StartsPending(t *testing.T) {
	svc, clientID := newObligationFixture(t)

	ob, err := svc.Create(context.Background(), obligationRequest(clientID, "2099-07-20"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ob.Status != domain.ObligationPending {
		t.Errorf("expected status pending, got %s", ob.Status)
	}
	if ob.ClientName == "" {
		t.Errorf("client name must be resolved on create")
	}
}

func TestObligationCreate_BadDueDate_Validation(t *testing.T) {
	svc, clientID := newObligationFixture(t)

	_, err := svc.Create(context.Background(), obligationRequest(clientID, "20/07/2024"))
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if verr.Field != "due_date" {
		t.Errorf("expected field due_date, got %s", verr.Field)
	}
}

func TestObligationList_OverdueIsDerived(t *testing.T) {
	svc, clientID := newObligationFixture(t)

	past, _ := svc.Create(context.Background(), obligationRequest(clientID, "2020-01-10"))
	future, _ := svc.Create(context.Background(), obligationRequest(clientID, "2099-12-31"))
	completed, _ := svc.Create(context.Background(), obligationRequest(clientID, "2020-02-10"))
	if _, err := svc.Complete(context.Background(), completed.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	overdue, err := svc.List(context.Background(), &domain.ObligationFilter{Status: "overdue"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(overdue) != 1 || overdue[0].ID != past.ID {
		t.Errorf("overdue must contain only the pending past-due obligation, got %d items", len(overdue))
	}

	pending, err := svc.List(context.Background(), &domain.ObligationFilter{Status: "pending"})
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("pending must include past and future due obligations, got %d", len(pending))
	}
	_ = future
}

func TestObligationUpdate_ReplacesEditableFields(t *testing.T) {
	svc, clientID := newObligationFixture(t)

	ob, _ := svc.Create(context.Background(), obligationRequest(clientID, "2099-07-20"))

	req := obligationRequest(clientID, "2099-08-20")
	req.Type = "DARF"
	req.Description = "DARF IRPJ"
	req.Notes = "valor ajustado"

	updated, err := svc.Update(context.Background(), ob.ID, req)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Type != "DARF" || updated.DueDate != "2099-08-20" || updated.Notes != "valor ajustado" {
		t.Errorf("editable fields must be replaced, got %+v", updated)
	}
	if updated.Status != domain.ObligationPending {
		t.Errorf("update must not touch status, got %s", updated.Status)
	}
	if !updated.CreatedAt.Equal(ob.CreatedAt) {
		t.Errorf("update must not move created_at")
	}
}

func TestObligationUpdate_UnknownID_NotFound(t *testing.T) {
	svc, clientID := newObligationFixture(t)

	_, err := svc.Update(context.Background(), "nope", obligationRequest(clientID, "2099-07-20"))
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestObligationDelete_RemovesObligation(t *testing.T) {
	svc, clientID := newObligationFixture(t)

	ob, _ := svc.Create(context.Background(), obligationRequest(clientID, "2099-07-20"))
	if err := svc.Delete(context.Background(), ob.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, err := svc.Get(context.Background(), ob.ID)
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	if err := svc.Delete(context.Background(), ob.ID); !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestObligationComplete_Idempotent(t *testing.T) {
	svc, clientID := newObligationFixture(t)

	ob, _ := svc.Create(context.Background(), obligationRequest(clientID, "2099-07-20"))
	first, err := svc.Complete(context.Background(), ob.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if first.CompletedAt == nil {
		t.Fatal("completed_at must be set")
	}
	second, err := svc.Complete(context.Background(), ob.ID)
	if err != nil {
		t.Fatalf("second complete: %v", err)
	}
	if !second.CompletedAt.Equal(*first.CompletedAt) {
		t.Errorf("second completion must not move completed_at")
	}
}

func TestObligationReopen_OnlyFromCompleted(t *testing.T) {
	svc, clientID := newObligationFixture(t)

	ob, _ := svc.Create(context.Background(), obligationRequest(clientID, "2099-07-20"))

	_, err := svc.Reopen(context.Background(), ob.ID)
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation reopening a pending obligation, got %v", err)
	}

	if _, err := svc.Complete(context.Background(), ob.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	reopened, err := svc.Reopen(context.Background(), ob.ID)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Status != domain.ObligationPending {
		t.Errorf("expected status pending after reopen, got %s", reopened.Status)
	}
	if reopened.CompletedAt != nil {
		t.Errorf("reopen must clear completed_at")
	}
}
