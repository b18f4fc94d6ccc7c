package memstore

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/contafacil/escritorio-go/internal/domain"
)

// Seed loads demo data so a fresh local environment has clients,
// documents, obligations and fees to work with.
func Seed(clients *ClientStore, docs *DocumentStore, obligations *ObligationStore, fees *FeeStore) {
	ctx := context.Background()
	now := time.Now()

	seedClients := []domain.Client{
		{
			ID:                  "c1f6f4a0-0001-4f3e-9a10-000000000001",
			Name:                "Padaria Pão Quente LTDA",
			CNPJ:                "12345678000190",
			TaxRegime:           "simples_nacional",
			LegalRepresentative: "Maria Souza",
			Email:               "contato@paoquente.com.br",
			Phone:               "+55 11 98765-4321",
			Active:              true,
			CreatedAt:           now.AddDate(0, -8, 0),
			UpdatedAt:           now.AddDate(0, -1, 0),
		},
		{
			ID:                  "c1f6f4a0-0002-4f3e-9a10-000000000002",
			Name:                "TechNova Sistemas ME",
			CNPJ:                "98765432000155",
			TaxRegime:           "lucro_presumido",
			LegalRepresentative: "Carlos Pereira",
			Email:               "financeiro@technova.dev",
			Active:              true,
			CreatedAt:           now.AddDate(-1, -2, 0),
			UpdatedAt:           now.AddDate(0, -2, 0),
		},
		{
			ID:                  "c1f6f4a0-0003-4f3e-9a10-000000000003",
			Name:                "Transportes Rápido Sul SA",
			CNPJ:                "45678912000133",
			TaxRegime:           "lucro_real",
			LegalRepresentative: "Ana Lima",
			Email:               "fiscal@rapidosul.com.br",
			Active:              false,
			CreatedAt:           now.AddDate(-2, 0, 0),
			UpdatedAt:           now.AddDate(0, -6, 0),
		},
	}
	for i := range seedClients {
		clients.CreateClient(ctx, &seedClients[i])
	}

	refMonth := now.AddDate(0, -1, 0).Format("2006-01")
	processedAt := now.AddDate(0, 0, -3)
	val1 := decimal.NewFromFloat(4520.75)
	val2 := decimal.NewFromFloat(1890.00)

	seedDocs := []domain.Document{
		{
			ID:             "d0c00000-0001-4aaa-bbbb-000000000001",
			ClientID:       seedClients[0].ID,
			ClientName:     seedClients[0].Name,
			FileName:       "folha_junho.pdf",
			FileType:       "pdf",
			Category:       "payroll",
			FileSizeBytes:  18244,
			ReferenceMonth: refMonth,
			Summary:        "Folha de pagamento com 12 funcionários, total bruto R$ 4.520,75",
			KeyPoints:      "Total bruto: R$ 4.520,75; Vencimento: 05/07/2024",
			ExtractedValue: &val1,
			ExtractedDate:  processedAt.Format("2006-01-02"),
			Status:         domain.StatusProcessed,
			UploadedAt:     now.AddDate(0, 0, -5),
			ProcessedAt:    &processedAt,
		},
		{
			ID:             "d0c00000-0002-4aaa-bbbb-000000000002",
			ClientID:       seedClients[1].ID,
			ClientName:     seedClients[1].Name,
			FileName:       "nfse_servicos.pdf",
			FileType:       "pdf",
			Category:       "invoice",
			FileSizeBytes:  95211,
			ReferenceMonth: refMonth,
			Summary:        "NFS-e de serviços de desenvolvimento, valor total R$ 1.890,00",
			KeyPoints:      "Valor total: R$ 1.890,00",
			ExtractedValue: &val2,
			Status:         domain.StatusPendingReview,
			UploadedAt:     now.AddDate(0, 0, -2),
		},
		{
			ID:             "d0c00000-0003-4aaa-bbbb-000000000003",
			ClientID:       seedClients[0].ID,
			ClientName:     seedClients[0].Name,
			FileName:       "extrato_scan.jpg",
			FileType:       "jpg",
			Category:       "bank_statement",
			FileSizeBytes:  421003,
			ReferenceMonth: refMonth,
			Status:         domain.StatusPending,
			UploadedAt:     now.AddDate(0, 0, -1),
		},
	}
	for i := range seedDocs {
		docs.CreateDocument(ctx, &seedDocs[i])
	}

	dasAmount := decimal.NewFromFloat(687.30)
	seedObligations := []domain.Obligation{
		{
			ID:             "0b100000-0001-4ccc-dddd-000000000001",
			ClientID:       seedClients[0].ID,
			ClientName:     seedClients[0].Name,
			Type:           "DAS",
			Description:    "DAS Simples Nacional",
			ReferenceMonth: refMonth,
			DueDate:        now.AddDate(0, 0, 7).Format("2006-01-02"),
			Amount:         &dasAmount,
			Status:         domain.ObligationPending,
			CreatedAt:      now.AddDate(0, 0, -10),
		},
		{
			ID:             "0b100000-0002-4ccc-dddd-000000000002",
			ClientID:       seedClients[1].ID,
			ClientName:     seedClients[1].Name,
			Type:           "DARF",
			Description:    "DARF IRPJ trimestral",
			ReferenceMonth: refMonth,
			DueDate:        now.AddDate(0, 0, -4).Format("2006-01-02"),
			Status:         domain.ObligationPending,
			CreatedAt:      now.AddDate(0, 0, -20),
		},
	}
	for i := range seedObligations {
		obligations.CreateObligation(ctx, &seedObligations[i])
	}

	seedFees := []domain.MonthlyFee{
		{
			ID:             "fee00000-0001-4eee-ffff-000000000001",
			ClientID:       seedClients[0].ID,
			ClientName:     seedClients[0].Name,
			ReferenceMonth: refMonth,
			Amount:         decimal.NewFromFloat(850.00),
			DueDate:        now.AddDate(0, 0, 10).Format("2006-01-02"),
			Status:         domain.FeePending,
			CreatedAt:      now.AddDate(0, 0, -15),
		},
		{
			ID:             "fee00000-0002-4eee-ffff-000000000002",
			ClientID:       seedClients[1].ID,
			ClientName:     seedClients[1].Name,
			ReferenceMonth: refMonth,
			Amount:         decimal.NewFromFloat(1200.00),
			DueDate:        now.AddDate(0, 0, -2).Format("2006-01-02"),
			Status:         domain.FeePending,
			CreatedAt:      now.AddDate(0, 0, -15),
		},
	}
	for i := range seedFees {
		fees.CreateFee(ctx, &seedFees[i])
	}
}
