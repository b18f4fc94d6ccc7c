package domain

import "time"

// ============================================================
// Clients
// ============================================================

// Client represents a company serviced by the accounting office.
type Client struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	CNPJ                string    `json:"cnpj"`
	TaxRegime           string    `json:"tax_regime"` // simples_nacional, lucro_presumido, lucro_real
	LegalRepresentative string    `json:"legal_representative"`
	Email               string    `json:"email"`
	Phone               string    `json:"phone,omitempty"`
	Address             string    `json:"address,omitempty"`
	Active              bool      `json:"active"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// ClientRequest is the payload to create or update a client.
type ClientRequest struct {
	Name                string `json:"name" validate:"required"`
	CNPJ                string `json:"cnpj" validate:"required"`
	TaxRegime           string `json:"tax_regime" validate:"required,oneof=simples_nacional lucro_presumido lucro_real"`
	LegalRepresentative string `json:"legal_representative" validate:"required"`
	Email               string `json:"email" validate:"required,email"`
	Phone               string `json:"phone,omitempty"`
	Address             string `json:"address,omitempty"`
}

// ClientRef is the minimal (id, display name) pair the document core needs
// to resolve client_id for display. Also the shape of the fallback list
// used when the client service is unreachable.
type ClientRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
