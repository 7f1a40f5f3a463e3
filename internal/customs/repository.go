package customs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists customs documents.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores a new document.
func (r *Repository) Insert(ctx context.Context, d Document) (Document, error) {
	d.ID = uuid.NewString()
	d.CreatedAt = time.Now().UTC()
	payload, err := json.Marshal(d.Payload)
	if err != nil {
		return Document{}, err
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO customs_documents
(id, stock_movement_id, doc_type, doc_number, payload, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.StockMovementID, d.DocType, d.DocNumber, payload, d.Status, d.CreatedAt)
	if err != nil {
		return Document{}, err
	}
	return d, nil
}

// MarkOutcome records the gateway verdict on a submitted document.
func (r *Repository) MarkOutcome(ctx context.Context, id string, status DocStatus, responseCode *int, responseBody string, sentAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE customs_documents
SET status = $2, response_code = $3, response_body = $4, sent_at = $5
WHERE id = $1`, id, status, responseCode, responseBody, sentAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// Get returns one document by id.
func (r *Repository) Get(ctx context.Context, id string) (Document, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `SELECT id, stock_movement_id, doc_type, doc_number, payload, status, response_code, response_body, sent_at, created_at
FROM customs_documents WHERE id = $1`, id))
}

// ListByMovement returns a movement's documents, newest first.
func (r *Repository) ListByMovement(ctx context.Context, movementID string) ([]Document, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, stock_movement_id, doc_type, doc_number, payload, status, response_code, response_body, sent_at, created_at
FROM customs_documents WHERE stock_movement_id = $1 ORDER BY created_at DESC`, movementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Document
	for rows.Next() {
		d, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *Repository) scanOne(row pgx.Row) (Document, error) {
	var d Document
	var payload []byte
	err := row.Scan(&d.ID, &d.StockMovementID, &d.DocType, &d.DocNumber, &payload,
		&d.Status, &d.ResponseCode, &d.ResponseBody, &d.SentAt, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrDocumentNotFound
		}
		return Document{}, err
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &d.Payload); err != nil {
			return Document{}, err
		}
	}
	return d, nil
}
