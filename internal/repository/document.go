package repository

import (
	"time"

	"github.com/google/uuid"
)

// DocumentType enumerates known document kinds.
type DocumentType string

const (
	// TypeIntroduceGoods marks goods produced inside the country entering circulation.
	TypeIntroduceGoods DocumentType = "LP_INTRODUCE_GOODS"
)

// Document is a registered marked-goods document. ID, RegDate and RegNumber
// are zero until a store assigns them; after a successful save they are
// immutable.
type Document struct {
	ID             int64        `json:"doc_id"`
	Status         string       `json:"doc_status"`
	Type           DocumentType `json:"doc_type"`
	ImportRequest  bool         `json:"importRequest"`
	OwnerInn       string       `json:"owner_inn"`
	ParticipantInn string       `json:"participant_inn"`
	ProducerInn    string       `json:"producer_inn"`
	ProductionDate time.Time    `json:"production_date"`
	ProductionType string       `json:"production_type"`
	Description    *Description `json:"description,omitempty"`
	Products       []Product    `json:"products"`
	RegDate        time.Time    `json:"reg_date"`
	RegNumber      string       `json:"reg_number"`
}

// Description is the optional one-to-one attachment of a document.
type Description struct {
	ParticipantInn string `json:"participantInn"`
}

// Product is one marked item listed on a document.
type Product struct {
	CertificateDocument       string    `json:"certificate_document"`
	CertificateDocumentDate   time.Time `json:"certificate_document_date"`
	CertificateDocumentNumber string    `json:"certificate_document_number"`
	OwnerInn                  string    `json:"owner_inn"`
	ProducerInn               string    `json:"producer_inn"`
	ProductionDate            time.Time `json:"production_date"`
	TnvedCode                 string    `json:"tnved_code"`
	UitCode                   string    `json:"uit_code"`
	UituCode                  string    `json:"uitu_code"`
}

// stampRegistration assigns registration metadata prior to insert.
// Zero timestamps default to the registration instant, mirroring
// creation-timestamp columns.
func stampRegistration(doc *Document, now time.Time) {
	doc.ID = 0
	doc.RegDate = now
	doc.RegNumber = uuid.New().String()
	if doc.ProductionDate.IsZero() {
		doc.ProductionDate = now
	}
	for i := range doc.Products {
		if doc.Products[i].CertificateDocumentDate.IsZero() {
			doc.Products[i].CertificateDocumentDate = now
		}
		if doc.Products[i].ProductionDate.IsZero() {
			doc.Products[i].ProductionDate = now
		}
	}
}

// cloneDocument returns a deep copy so callers and stores never share
// product slices or the description pointer.
func cloneDocument(doc Document) Document {
	out := doc
	if doc.Description != nil {
		d := *doc.Description
		out.Description = &d
	}
	if doc.Products != nil {
		out.Products = make([]Product, len(doc.Products))
		copy(out.Products, doc.Products)
	}
	return out
}
