package model

import (
	"strings"
	"time"
)

// EventStatus enumerates the stages of the proposal pipeline. The stored
// values keep the original Portuguese names used by the frontend.
//
// orcamento_recebido -> proposta_enviada -> proposta_aceita | proposta_recusada
type EventStatus string

const (
	StatusOrcamentoRecebido EventStatus = "orcamento_recebido" // quote received (initial)
	StatusPropostaEnviada   EventStatus = "proposta_enviada"   // proposal sent
	StatusPropostaAceita    EventStatus = "proposta_aceita"    // proposal accepted (terminal)
	StatusPropostaRecusada  EventStatus = "proposta_recusada"  // proposal rejected (terminal)
)

// Valid reports whether s is one of the known pipeline stages.
func (s EventStatus) Valid() bool {
	switch s {
	case StatusOrcamentoRecebido, StatusPropostaEnviada, StatusPropostaAceita, StatusPropostaRecusada:
		return true
	}
	return false
}

// Event is a client booking negotiation as stored in the `events` table.
// Optional columns are pointers so absent and present-but-empty values stay
// distinguishable through partial updates.
type Event struct {
	ID                    uint64      `json:"id"`
	NomeCliente           string      `json:"nomeCliente"`
	TipoEvento            string      `json:"tipoEvento"`
	DataOrcamento         Date        `json:"dataOrcamento"`
	DataEvento            Date        `json:"dataEvento"`
	Status                EventStatus `json:"status"`
	ValorEvento           *float64    `json:"valorEvento"`
	IraParcelar           *bool       `json:"iraParcelar"`
	QuantParcelas         *int        `json:"quantParcelas"`
	DataPrimeiroPagamento *Date       `json:"dataPrimeiroPagamento"`
	ContatoCliente        *string     `json:"contatoCliente"`
	MotivoRecusa          *string     `json:"motivoRecusa"`
	CreatedAt             time.Time   `json:"created_at"`
	UpdatedAt             *time.Time  `json:"updated_at"`
	UserID                *uint64     `json:"-"`
}

// EventPatch carries a sparse PATCH body. Nil fields were omitted by the
// client and leave the persisted value untouched.
type EventPatch struct {
	NomeCliente           *string      `json:"nomeCliente"`
	TipoEvento            *string      `json:"tipoEvento"`
	DataOrcamento         *Date        `json:"dataOrcamento"`
	DataEvento            *Date        `json:"dataEvento"`
	Status                *EventStatus `json:"status"`
	ValorEvento           *float64     `json:"valorEvento"`
	IraParcelar           *bool        `json:"iraParcelar"`
	QuantParcelas         *int         `json:"quantParcelas"`
	DataPrimeiroPagamento *Date        `json:"dataPrimeiroPagamento"`
	ContatoCliente        *string      `json:"contatoCliente"`
	MotivoRecusa          *string      `json:"motivoRecusa"`
}

// Apply merges the patch onto the event, producing the effective post-update
// state. When the patch omits status, the persisted status stays in place so
// stage rules are re-checked against it on every write.
func (e *Event) Apply(p EventPatch) {
	if p.NomeCliente != nil {
		e.NomeCliente = *p.NomeCliente
	}
	if p.TipoEvento != nil {
		e.TipoEvento = *p.TipoEvento
	}
	if p.DataOrcamento != nil {
		e.DataOrcamento = *p.DataOrcamento
	}
	if p.DataEvento != nil {
		e.DataEvento = *p.DataEvento
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.ValorEvento != nil {
		e.ValorEvento = p.ValorEvento
	}
	if p.IraParcelar != nil {
		e.IraParcelar = p.IraParcelar
	}
	if p.QuantParcelas != nil {
		e.QuantParcelas = p.QuantParcelas
	}
	if p.DataPrimeiroPagamento != nil {
		e.DataPrimeiroPagamento = p.DataPrimeiroPagamento
	}
	if p.ContatoCliente != nil {
		e.ContatoCliente = p.ContatoCliente
	}
	if p.MotivoRecusa != nil {
		e.MotivoRecusa = p.MotivoRecusa
	}
}

// FieldError is a business-rule violation tied to a single field. Handlers
// surface it as 422 with the message; no partial write happens.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Message }

// ValidateStatusFields enforces the stage-dependent required fields against
// the effective state. Callers must run it on every write after Apply.
func (e *Event) ValidateStatusFields() error {
	if !e.Status.Valid() {
		return &FieldError{Field: "status", Message: "status must be one of orcamento_recebido, proposta_enviada, proposta_aceita, proposta_recusada"}
	}
	switch e.Status {
	case StatusPropostaEnviada:
		if e.ValorEvento == nil || *e.ValorEvento == 0 {
			return &FieldError{Field: "valorEvento", Message: "valorEvento is required when status is proposta_enviada"}
		}
	case StatusPropostaAceita:
		if e.DataPrimeiroPagamento == nil || e.DataPrimeiroPagamento.IsZero() {
			return &FieldError{Field: "dataPrimeiroPagamento", Message: "dataPrimeiroPagamento is required when status is proposta_aceita"}
		}
	case StatusPropostaRecusada:
		if e.MotivoRecusa == nil || strings.TrimSpace(*e.MotivoRecusa) == "" {
			return &FieldError{Field: "motivoRecusa", Message: "motivoRecusa is required when status is proposta_recusada"}
		}
	}
	return nil
}

// ValidateNew checks the rules that apply only at creation time: the base
// fields must be present and the event date cannot be in the past (today is
// accepted). Stage rules are checked separately via ValidateStatusFields.
func (e *Event) ValidateNew() error {
	if strings.TrimSpace(e.NomeCliente) == "" {
		return &FieldError{Field: "nomeCliente", Message: "nomeCliente is required"}
	}
	if strings.TrimSpace(e.TipoEvento) == "" {
		return &FieldError{Field: "tipoEvento", Message: "tipoEvento is required"}
	}
	if e.DataOrcamento.IsZero() {
		return &FieldError{Field: "dataOrcamento", Message: "dataOrcamento is required"}
	}
	if e.DataEvento.IsZero() {
		return &FieldError{Field: "dataEvento", Message: "dataEvento is required"}
	}
	if e.DataEvento.Before(Today()) {
		return &FieldError{Field: "dataEvento", Message: "dataEvento cannot be in the past"}
	}
	return nil
}
