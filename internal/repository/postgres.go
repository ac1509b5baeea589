package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to Postgres, ensures the schema exists and
// returns a DocumentStore implementation.
func NewPostgresStore(ctx context.Context, databaseURL string) (DocumentStore, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	pool, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	s := &postgresStore{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *postgresStore) initSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	createTables := `
		CREATE TABLE IF NOT EXISTS documents (
			doc_id BIGSERIAL PRIMARY KEY,
			doc_status TEXT NOT NULL DEFAULT '',
			doc_type TEXT NOT NULL DEFAULT '',
			import_request BOOLEAN NOT NULL DEFAULT FALSE,
			owner_inn TEXT NOT NULL DEFAULT '',
			participant_inn TEXT NOT NULL DEFAULT '',
			producer_inn TEXT NOT NULL DEFAULT '',
			production_date TIMESTAMPTZ NOT NULL,
			production_type TEXT NOT NULL DEFAULT '',
			reg_date TIMESTAMPTZ NOT NULL,
			reg_number TEXT NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS document_description (
			doc_id BIGINT PRIMARY KEY REFERENCES documents (doc_id) ON DELETE CASCADE,
			participant_inn TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS document_products (
			id BIGSERIAL PRIMARY KEY,
			doc_id BIGINT NOT NULL REFERENCES documents (doc_id) ON DELETE CASCADE,
			certificate_document TEXT NOT NULL DEFAULT '',
			certificate_document_date TIMESTAMPTZ NOT NULL,
			certificate_document_number TEXT NOT NULL DEFAULT '',
			owner_inn TEXT NOT NULL DEFAULT '',
			producer_inn TEXT NOT NULL DEFAULT '',
			production_date TIMESTAMPTZ NOT NULL,
			tnved_code TEXT NOT NULL DEFAULT '',
			uit_code TEXT NOT NULL DEFAULT '',
			uitu_code TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_document_products_doc ON document_products (doc_id);
	`

	_, err := s.pool.Exec(ctx, createTables)
	return err
}

// Create inserts the document and its description/product rows in a single
// transaction, so a failure at any point leaves nothing visible.
func (s *postgresStore) Create(ctx context.Context, doc Document) (Document, error) {
	stamped := cloneDocument(doc)
	stampRegistration(&stamped, time.Now())

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op once committed

	err = tx.QueryRow(ctx, `
		INSERT INTO documents (
			doc_status, doc_type, import_request, owner_inn, participant_inn,
			producer_inn, production_date, production_type, reg_date, reg_number
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING doc_id
	`, stamped.Status, string(stamped.Type), stamped.ImportRequest, stamped.OwnerInn,
		stamped.ParticipantInn, stamped.ProducerInn, stamped.ProductionDate,
		stamped.ProductionType, stamped.RegDate, stamped.RegNumber,
	).Scan(&stamped.ID)
	if err != nil {
		return Document{}, fmt.Errorf("insert document: %w", err)
	}

	if stamped.Description != nil {
		_, err = tx.Exec(ctx, `
			INSERT INTO document_description (doc_id, participant_inn)
			VALUES ($1, $2)
		`, stamped.ID, stamped.Description.ParticipantInn)
		if err != nil {
			return Document{}, fmt.Errorf("insert description: %w", err)
		}
	}

	for _, p := range stamped.Products {
		_, err = tx.Exec(ctx, `
			INSERT INTO document_products (
				doc_id, certificate_document, certificate_document_date,
				certificate_document_number, owner_inn, producer_inn,
				production_date, tnved_code, uit_code, uitu_code
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, stamped.ID, p.CertificateDocument, p.CertificateDocumentDate,
			p.CertificateDocumentNumber, p.OwnerInn, p.ProducerInn,
			p.ProductionDate, p.TnvedCode, p.UitCode, p.UituCode)
		if err != nil {
			return Document{}, fmt.Errorf("insert product: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Document{}, fmt.Errorf("commit transaction: %w", err)
	}
	return stamped, nil
}

// GetByID reads the document graph inside one read-only transaction, so the
// parent and child rows always come from the same snapshot.
func (s *postgresStore) GetByID(ctx context.Context, id int64) (Document, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return Document{}, fmt.Errorf("begin read transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op once committed

	var (
		doc     Document
		docType string
	)
	err = tx.QueryRow(ctx, `
		SELECT doc_id, doc_status, doc_type, import_request, owner_inn,
			participant_inn, producer_inn, production_date, production_type,
			reg_date, reg_number
		FROM documents
		WHERE doc_id = $1
	`, id).Scan(&doc.ID, &doc.Status, &docType, &doc.ImportRequest, &doc.OwnerInn,
		&doc.ParticipantInn, &doc.ProducerInn, &doc.ProductionDate,
		&doc.ProductionType, &doc.RegDate, &doc.RegNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("fetch document: %w", err)
	}
	doc.Type = DocumentType(docType)

	var desc Description
	err = tx.QueryRow(ctx, `
		SELECT participant_inn FROM document_description WHERE doc_id = $1
	`, id).Scan(&desc.ParticipantInn)
	switch {
	case err == nil:
		doc.Description = &desc
	case errors.Is(err, pgx.ErrNoRows):
		// no description attached
	default:
		return Document{}, fmt.Errorf("fetch description: %w", err)
	}

	rows, err := tx.Query(ctx, `
		SELECT certificate_document, certificate_document_date,
			certificate_document_number, owner_inn, producer_inn,
			production_date, tnved_code, uit_code, uitu_code
		FROM document_products
		WHERE doc_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return Document{}, fmt.Errorf("fetch products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.CertificateDocument, &p.CertificateDocumentDate,
			&p.CertificateDocumentNumber, &p.OwnerInn, &p.ProducerInn,
			&p.ProductionDate, &p.TnvedCode, &p.UitCode, &p.UituCode); err != nil {
			return Document{}, fmt.Errorf("scan product: %w", err)
		}
		doc.Products = append(doc.Products, p)
	}
	if err := rows.Err(); err != nil {
		return Document{}, fmt.Errorf("fetch products: %w", err)
	}
	rows.Close()

	if err := tx.Commit(ctx); err != nil {
		return Document{}, fmt.Errorf("commit read transaction: %w", err)
	}
	return doc, nil
}

func (s *postgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *postgresStore) Close() error {
	s.pool.Close()
	return nil
}
