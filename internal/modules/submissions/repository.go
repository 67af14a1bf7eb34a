package submissions

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/covenantmonitor/internal/database"
	"github.com/aristath/covenantmonitor/internal/domain"
	"github.com/aristath/covenantmonitor/internal/utils"
)

const submissionColumns = `id, deal_id, period, period_type, period_end_date, financial_data,
	submitted_by, submitted_at, verified_by, verified_at, verification_status, dispute_reason,
	covenant_results, basket_capacities, compliance_certificate_id, updated_at`

// Repository handles financial submission database operations.
// Financial data, covenant results and basket capacities are stored as
// msgpack blobs; they are always read and written as a whole.
//
// Database: compliance.db (financial_submissions table)
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new submission repository.
//
// Parameters:
//   - db: Database connection to compliance.db
//   - log: Structured logger
//
// Returns:
//   - *Repository: Initialized repository instance
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "submissions").Logger(),
	}
}

// Create inserts a fully populated submission
func (r *Repository) Create(ctx context.Context, s *FinancialSubmission) error {
	args, err := submissionArgs(s)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO financial_submissions (`+submissionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to insert submission %s: %w", s.ID, err)
	}
	return nil
}

// GetByID returns nil, nil when the submission does not exist
func (r *Repository) GetByID(ctx context.Context, id string) (*FinancialSubmission, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+submissionColumns+" FROM financial_submissions WHERE id = ?", id)
	s, err := scanSubmission(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission %s: %w", id, err)
	}
	return s, nil
}

// ListByDeal returns a deal's submissions, newest period end first
func (r *Repository) ListByDeal(ctx context.Context, dealID string) ([]FinancialSubmission, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+submissionColumns+` FROM financial_submissions
		WHERE deal_id = ?
		ORDER BY period_end_date DESC, submitted_at DESC
	`, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions for deal %s: %w", dealID, err)
	}
	defer rows.Close()

	result := make([]FinancialSubmission, 0)
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submissions: %w", err)
	}
	return result, nil
}

// ListDealIDs returns every deal that has at least one submission
func (r *Repository) ListDealIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT deal_id FROM financial_submissions ORDER BY deal_id")
	if err != nil {
		return nil, fmt.Errorf("failed to list deal ids: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan deal id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Mutate loads a submission, applies fn and writes it back in one transaction.
// If fn returns an error nothing is written. Returns nil, nil when the
// submission does not exist.
func (r *Repository) Mutate(ctx context.Context, id string, fn func(*FinancialSubmission) error) (*FinancialSubmission, error) {
	var updated *FinancialSubmission
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, "SELECT "+submissionColumns+" FROM financial_submissions WHERE id = ?", id)
		s, err := scanSubmission(row)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load submission %s: %w", id, err)
		}

		if err := fn(s); err != nil {
			return err
		}
		s.ID = id
		s.UpdatedAt = time.Now().UTC().Truncate(time.Second)

		args, err := submissionArgs(s)
		if err != nil {
			return err
		}
		// id goes last for the WHERE clause
		_, err = tx.ExecContext(ctx, `
			UPDATE financial_submissions SET
				deal_id = ?, period = ?, period_type = ?, period_end_date = ?, financial_data = ?,
				submitted_by = ?, submitted_at = ?, verified_by = ?, verified_at = ?,
				verification_status = ?, dispute_reason = ?, covenant_results = ?,
				basket_capacities = ?, compliance_certificate_id = ?, updated_at = ?
			WHERE id = ?
		`, append(args[1:], id)...)
		if err != nil {
			return fmt.Errorf("failed to update submission %s: %w", id, err)
		}
		updated = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(row rowScanner) (*FinancialSubmission, error) {
	var (
		s                                 FinancialSubmission
		periodType, status                string
		periodEnd, submittedAt, updatedAt int64
		financialData, results, baskets   []byte
		verifiedBy, disputeReason, certID sql.NullString
		verifiedAt                        sql.NullInt64
	)
	if err := row.Scan(&s.ID, &s.DealID, &s.Period, &periodType, &periodEnd, &financialData,
		&s.SubmittedBy, &submittedAt, &verifiedBy, &verifiedAt, &status, &disputeReason,
		&results, &baskets, &certID, &updatedAt); err != nil {
		return nil, err
	}

	if err := msgpack.Unmarshal(financialData, &s.FinancialData); err != nil {
		return nil, fmt.Errorf("failed to decode financial data: %w", err)
	}
	if err := msgpack.Unmarshal(results, &s.CovenantResults); err != nil {
		return nil, fmt.Errorf("failed to decode covenant results: %w", err)
	}
	if err := msgpack.Unmarshal(baskets, &s.BasketCapacities); err != nil {
		return nil, fmt.Errorf("failed to decode basket capacities: %w", err)
	}
	if s.FinancialData == nil {
		s.FinancialData = domain.Financials{}
	}
	if s.CovenantResults == nil {
		s.CovenantResults = []domain.CovenantResult{}
	}
	if s.BasketCapacities == nil {
		s.BasketCapacities = []domain.BasketCapacity{}
	}

	s.PeriodType = PeriodType(periodType)
	s.VerificationStatus = VerificationStatus(status)
	s.PeriodEndDate = utils.UnixToTime(periodEnd)
	s.SubmittedAt = utils.UnixToTime(submittedAt)
	s.UpdatedAt = utils.UnixToTime(updatedAt)
	s.VerifiedAt = utils.TimeFromNull(verifiedAt)
	s.VerifiedBy = stringFromNull(verifiedBy)
	s.DisputeReason = stringFromNull(disputeReason)
	s.ComplianceCertificateID = stringFromNull(certID)
	return &s, nil
}

// submissionArgs returns column values in submissionColumns order
func submissionArgs(s *FinancialSubmission) ([]interface{}, error) {
	financialData, err := msgpack.Marshal(s.FinancialData)
	if err != nil {
		return nil, fmt.Errorf("failed to encode financial data: %w", err)
	}
	results, err := msgpack.Marshal(s.CovenantResults)
	if err != nil {
		return nil, fmt.Errorf("failed to encode covenant results: %w", err)
	}
	baskets, err := msgpack.Marshal(s.BasketCapacities)
	if err != nil {
		return nil, fmt.Errorf("failed to encode basket capacities: %w", err)
	}

	return []interface{}{
		s.ID, s.DealID, s.Period, string(s.PeriodType), s.PeriodEndDate.Unix(), financialData,
		s.SubmittedBy, s.SubmittedAt.Unix(), nullString(s.VerifiedBy), utils.NullableUnix(s.VerifiedAt),
		string(s.VerificationStatus), nullString(s.DisputeReason),
		results, baskets, nullString(s.ComplianceCertificateID), s.UpdatedAt.Unix(),
	}, nil
}

func nullString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func stringFromNull(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
