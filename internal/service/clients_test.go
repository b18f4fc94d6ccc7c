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

func validClientRequest() *domain.ClientRequest {
	return &domain.ClientRequest{
		Name:                "Padaria Pão Quente LTDA",
		CNPJ:                "12.345.678/0001-90",
		TaxRegime:           "simples_nacional",
		LegalRepresentative: "Maria Souza",
		Email:               "contato@paopquente.com.br",
	}
}

func TestClientCreate_NormalizesCNPJ(t *testing.T) {
	svc := service.NewClientService(memstore.NewClientStore(), zap.NewNop())

	client, err := svc.Create(context.Background(), validClientRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if client.CNPJ != "12345678000190" {
		t.Errorf("expected normalized CNPJ, got %s", client.CNPJ)
	}
	if !client.Active {
		t.Errorf("new client must be active")
	}
}

func TestClientCreate_DuplicateCNPJ_Conflict(t *testing.T) {
	svc := service.NewClientService(memstore.NewClientStore(), zap.NewNop())

	if _, err := svc.Create(context.Background(), validClientRequest()); err != nil {
		t.Fatalf("first create: %v", err)
	}

	dup := validClientRequest()
	dup.Name = "Outra Empresa"
	dup.CNPJ = "12345678000190" // same digits, different formatting
	_, err := svc.Create(context.Background(), dup)

	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestClientCreate_ShortCNPJ_Validation(t *testing.T) {
	svc := service.NewClientService(memstore.NewClientStore(), zap.NewNop())

	req := validClientRequest()
	req.CNPJ = "123456"
	_, err := svc.Create(context.Background(), req)

	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if verr.Field != "cnpj" {
		t.Errorf("expected field cnpj, got %s", verr.Field)
	}
}

func TestClientCreate_InvalidTaxRegime_Validation(t *testing.T) {
	svc := service.NewClientService(memstore.NewClientStore(), zap.NewNop())

	req := validClientRequest()
	req.TaxRegime = "mei"
	_, err := svc.Create(context.Background(), req)

	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestClientUpdate_KeepsCNPJUnique(t *testing.T) {
	svc := service.NewClientService(memstore.NewClientStore(), zap.NewNop())

	first, _ := svc.Create(context.Background(), validClientRequest())
	secondReq := validClientRequest()
	secondReq.Name = "TechNova Sistemas ME"
	secondReq.CNPJ = "98.765.432/0001-10"
	second, _ := svc.Create(context.Background(), secondReq)

	update := validClientRequest()
	update.Name = second.Name
	update.CNPJ = first.CNPJ
	_, err := svc.Update(context.Background(), second.ID, update)

	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestClientUpdate_ShortCNPJ_Validation(t *testing.T) {
	svc := service.NewClientService(memstore.NewClientStore(), zap.NewNop())

	client, _ := svc.Create(context.Background(), validClientRequest())

	update := validClientRequest()
	update.CNPJ = "123456"
	_, err := svc.Update(context.Background(), client.ID, update)

	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if verr.Field != "cnpj" {
		t.Errorf("expected field cnpj, got %s", verr.Field)
	}

	kept, _ := svc.Get(context.Background(), client.ID)
	if kept.CNPJ != "12345678000190" {
		t.Errorf("rejected update must not touch the stored CNPJ, got %s", kept.CNPJ)
	}
}

func TestClientDeactivate_SoftDelete(t *testing.T) {
	store := memstore.NewClientStore()
	svc := service.NewClientService(store, zap.NewNop())

	client, _ := svc.Create(context.Background(), validClientRequest())

	if err := svc.Deactivate(context.Background(), client.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	// idempotent
	if err := svc.Deactivate(context.Background(), client.ID); err != nil {
		t.Fatalf("second deactivate: %v", err)
	}

	got, err := svc.Get(context.Background(), client.ID)
	if err != nil {
		t.Fatalf("deactivated client must remain readable: %v", err)
	}
	if got.Active {
		t.Errorf("client must be inactive after deactivation")
	}

	active, _ := svc.List(context.Background(), true)
	for _, c := range active {
		if c.ID == client.ID {
			t.Errorf("deactivated client must not appear in active listing")
		}
	}
}

func TestClientGet_Unknown_NotFound(t *testing.T) {
	svc := service.NewClientService(memstore.NewClientStore(), zap.NewNop())

	_, err := svc.Get(context.Background(), "missing")
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
