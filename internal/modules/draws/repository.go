package draws

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/covenantmonitor/internal/database"
	"github.com/aristath/covenantmonitor/internal/utils"
)

const drawColumns = `id, deal_id, draw_number, requested_amount, approved_amount, funded_amount,
	status, requested_at, submitted_at, review_started_at, approved_at, rejected_at,
	rejection_reason, funded_at, supporting_document_ids, updated_at`

const conditionColumns = `draw_id, condition_id, title, description, category, status,
	satisfied_at, waived_at, notes`

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Repository handles draw request database operations.
// Amounts are stored as decimal strings; conditions live in their own table
// and are always loaded with their draw.
//
// Database: compliance.db (draw_requests, draw_conditions tables)
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new draw repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "draws").Logger(),
	}
}

// Create assigns the next draw number for the deal and inserts the draw and
// its conditions in one transaction. d.DrawNumber is set on success.
func (r *Repository) Create(ctx context.Context, d *DrawRequest) error {
	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		var next int
		if err := tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(draw_number), 0) + 1 FROM draw_requests WHERE deal_id = ?", d.DealID,
		).Scan(&next); err != nil {
			return fmt.Errorf("failed to allocate draw number for deal %s: %w", d.DealID, err)
		}
		d.DrawNumber = next

		args, err := drawArgs(d)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO draw_requests (`+drawColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, args...); err != nil {
			return fmt.Errorf("failed to insert draw %s: %w", d.ID, err)
		}

		for i, c := range d.Conditions {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO draw_conditions (draw_id, condition_id, position, title, description, category,
					status, satisfied_at, waived_at, notes)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, d.ID, c.ConditionID, i, c.Title, c.Description, c.Category,
				string(c.Status), utils.NullableUnix(c.SatisfiedAt), utils.NullableUnix(c.WaivedAt), c.Notes,
			); err != nil {
				return fmt.Errorf("failed to insert condition %s on draw %s: %w", c.ConditionID, d.ID, err)
			}
		}
		return nil
	})
}

// GetByID returns nil, nil when the draw does not exist
func (r *Repository) GetByID(ctx context.Context, id string) (*DrawRequest, error) {
	d, err := r.load(ctx, r.db, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get draw %s: %w", id, err)
	}
	return d, nil
}

// ListByDeal returns a deal's draws ordered by draw number
func (r *Repository) ListByDeal(ctx context.Context, dealID string) ([]DrawRequest, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+drawColumns+` FROM draw_requests
		WHERE deal_id = ?
		ORDER BY draw_number ASC
	`, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to list draws for deal %s: %w", dealID, err)
	}
	defer rows.Close()

	result := make([]DrawRequest, 0)
	for rows.Next() {
		d, err := scanDraw(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draw: %w", err)
		}
		result = append(result, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating draws: %w", err)
	}

	conditions, err := r.conditionsForDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	for i := range result {
		result[i].Conditions = conditions[result[i].ID]
		if result[i].Conditions == nil {
			result[i].Conditions = []DrawCondition{}
		}
	}
	return result, nil
}

// Mutate loads a draw, applies fn and writes the draw and its conditions back
// in one transaction. If fn returns an error nothing is written. Returns
// nil, nil when the draw does not exist.
func (r *Repository) Mutate(ctx context.Context, id string, fn func(*DrawRequest) error) (*DrawRequest, error) {
	var updated *DrawRequest
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		d, err := r.load(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("failed to load draw %s: %w", id, err)
		}
		if d == nil {
			return nil
		}

		if err := fn(d); err != nil {
			return err
		}
		d.ID = id
		d.UpdatedAt = time.Now().UTC().Truncate(time.Second)

		args, err := drawArgs(d)
		if err != nil {
			return err
		}
		// id goes last for the WHERE clause
		if _, err := tx.ExecContext(ctx, `
			UPDATE draw_requests SET
				deal_id = ?, draw_number = ?, requested_amount = ?, approved_amount = ?, funded_amount = ?,
				status = ?, requested_at = ?, submitted_at = ?, review_started_at = ?, approved_at = ?,
				rejected_at = ?, rejection_reason = ?, funded_at = ?, supporting_document_ids = ?, updated_at = ?
			WHERE id = ?
		`, append(args[1:], id)...); err != nil {
			return fmt.Errorf("failed to update draw %s: %w", id, err)
		}

		for _, c := range d.Conditions {
			if _, err := tx.ExecContext(ctx, `
				UPDATE draw_conditions SET status = ?, satisfied_at = ?, waived_at = ?, notes = ?
				WHERE draw_id = ? AND condition_id = ?
			`, string(c.Status), utils.NullableUnix(c.SatisfiedAt), utils.NullableUnix(c.WaivedAt), c.Notes,
				id, c.ConditionID); err != nil {
				return fmt.Errorf("failed to update condition %s on draw %s: %w", c.ConditionID, id, err)
			}
		}
		updated = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// load returns nil, nil when absent
func (r *Repository) load(ctx context.Context, q queryer, id string) (*DrawRequest, error) {
	d, err := scanDraw(q.QueryRowContext(ctx, "SELECT "+drawColumns+" FROM draw_requests WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx,
		"SELECT "+conditionColumns+" FROM draw_conditions WHERE draw_id = ? ORDER BY position", id)
	if err != nil {
		return nil, fmt.Errorf("failed to load conditions: %w", err)
	}
	defer rows.Close()

	d.Conditions = make([]DrawCondition, 0)
	for rows.Next() {
		_, c, err := scanCondition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan condition: %w", err)
		}
		d.Conditions = append(d.Conditions, c)
	}
	return d, rows.Err()
}

func (r *Repository) conditionsForDeal(ctx context.Context, dealID string) (map[string][]DrawCondition, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.draw_id, c.condition_id, c.title, c.description, c.category, c.status,
			c.satisfied_at, c.waived_at, c.notes
		FROM draw_conditions c
		JOIN draw_requests d ON d.id = c.draw_id
		WHERE d.deal_id = ?
		ORDER BY c.draw_id, c.position
	`, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conditions for deal %s: %w", dealID, err)
	}
	defer rows.Close()

	byDraw := make(map[string][]DrawCondition)
	for rows.Next() {
		drawID, c, err := scanCondition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan condition: %w", err)
		}
		byDraw[drawID] = append(byDraw[drawID], c)
	}
	return byDraw, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDraw(row rowScanner) (*DrawRequest, error) {
	var (
		d                                 DrawRequest
		requested, status, docs           string
		approved, funded, rejectionReason sql.NullString
		requestedAt, updatedAt            int64
		submittedAt, reviewAt, approvedAt sql.NullInt64
		rejectedAt, fundedAt              sql.NullInt64
	)
	if err := row.Scan(&d.ID, &d.DealID, &d.DrawNumber, &requested, &approved, &funded,
		&status, &requestedAt, &submittedAt, &reviewAt, &approvedAt, &rejectedAt,
		&rejectionReason, &fundedAt, &docs, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if d.RequestedAmount, err = decimal.NewFromString(requested); err != nil {
		return nil, fmt.Errorf("failed to decode requested amount: %w", err)
	}
	if d.ApprovedAmount, err = decimalFromNull(approved); err != nil {
		return nil, fmt.Errorf("failed to decode approved amount: %w", err)
	}
	if d.FundedAmount, err = decimalFromNull(funded); err != nil {
		return nil, fmt.Errorf("failed to decode funded amount: %w", err)
	}
	if err := json.Unmarshal([]byte(docs), &d.SupportingDocumentIDs); err != nil {
		return nil, fmt.Errorf("failed to decode supporting document ids: %w", err)
	}
	if d.SupportingDocumentIDs == nil {
		d.SupportingDocumentIDs = []string{}
	}

	d.Status = Status(status)
	d.RequestedAt = utils.UnixToTime(requestedAt)
	d.UpdatedAt = utils.UnixToTime(updatedAt)
	d.SubmittedAt = utils.TimeFromNull(submittedAt)
	d.ReviewStartedAt = utils.TimeFromNull(reviewAt)
	d.ApprovedAt = utils.TimeFromNull(approvedAt)
	d.RejectedAt = utils.TimeFromNull(rejectedAt)
	d.FundedAt = utils.TimeFromNull(fundedAt)
	if rejectionReason.Valid {
		reason := rejectionReason.String
		d.RejectionReason = &reason
	}
	return &d, nil
}

func scanCondition(row rowScanner) (string, DrawCondition, error) {
	var (
		drawID, status        string
		c                     DrawCondition
		satisfiedAt, waivedAt sql.NullInt64
	)
	if err := row.Scan(&drawID, &c.ConditionID, &c.Title, &c.Description, &c.Category, &status,
		&satisfiedAt, &waivedAt, &c.Notes); err != nil {
		return "", c, err
	}
	c.Status = ConditionStatus(status)
	c.SatisfiedAt = utils.TimeFromNull(satisfiedAt)
	c.WaivedAt = utils.TimeFromNull(waivedAt)
	return drawID, c, nil
}

// drawArgs returns column values in drawColumns order
func drawArgs(d *DrawRequest) ([]interface{}, error) {
	docs := d.SupportingDocumentIDs
	if docs == nil {
		docs = []string{}
	}
	encoded, err := json.Marshal(docs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode supporting document ids: %w", err)
	}

	var rejectionReason interface{}
	if d.RejectionReason != nil {
		rejectionReason = *d.RejectionReason
	}

	return []interface{}{
		d.ID, d.DealID, d.DrawNumber, d.RequestedAmount.String(),
		nullDecimal(d.ApprovedAmount), nullDecimal(d.FundedAmount),
		string(d.Status), d.RequestedAt.Unix(), utils.NullableUnix(d.SubmittedAt),
		utils.NullableUnix(d.ReviewStartedAt), utils.NullableUnix(d.ApprovedAt),
		utils.NullableUnix(d.RejectedAt), rejectionReason, utils.NullableUnix(d.FundedAt),
		string(encoded), d.UpdatedAt.Unix(),
	}, nil
}

func nullDecimal(v *decimal.Decimal) interface{} {
	if v == nil {
		return nil
	}
	return v.String()
}

func decimalFromNull(v sql.NullString) (*decimal.Decimal, error) {
	if !v.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
