package service

import (
	"context"

	"doc-registry/internal/metrics"
	"doc-registry/internal/repository"
)

// DocumentService is the admission-controlled submission pipeline. A permit
// from the gate admits one save attempt; callers denied a permit are retried
// with backoff before the rate-limit error becomes terminal. Store failures
// are not retried, and a permit spent on a failed save is not refunded: the
// gate limits attempts, not only successes.
type DocumentService struct {
	gate    *RateGate
	retry   *RetryPolicy
	store   repository.DocumentStore
	metrics *metrics.Registry // optional
}

// NewDocumentService wires the gate, the retry policy and the store together.
// metrics may be nil.
func NewDocumentService(gate *RateGate, retry *RetryPolicy, store repository.DocumentStore, m *metrics.Registry) *DocumentService {
	return &DocumentService{gate: gate, retry: retry, store: store, metrics: m}
}

// Create registers the document. On success exactly one record exists with a
// freshly assigned identity; on failure none does. The error is either
// ErrRateLimited (wrapped, after the attempt budget is spent) or the store's
// error unchanged.
func (s *DocumentService) Create(ctx context.Context, doc repository.Document) (repository.Document, error) {
	var created repository.Document
	err := s.retry.Execute(ctx, func() error {
		if !s.gate.TryAcquire() {
			if s.metrics != nil {
				s.metrics.PermitDenials.Inc()
			}
			return ErrRateLimited
		}
		var saveErr error
		created, saveErr = s.store.Create(ctx, doc)
		return saveErr
	})
	if err != nil {
		return repository.Document{}, err
	}
	return created, nil
}

// Get returns a registered document by its identity. Reads bypass admission
// control.
func (s *DocumentService) Get(ctx context.Context, id int64) (repository.Document, error) {
	return s.store.GetByID(ctx, id)
}
