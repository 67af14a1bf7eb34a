package covenants

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/aristath/covenantmonitor/internal/database"
	"github.com/aristath/covenantmonitor/internal/domain"
	"github.com/aristath/covenantmonitor/internal/utils"
)

const definitionColumns = `id, deal_id, name, numerator_fields, denominator_fields,
	operator, threshold, suspended, created_at, updated_at`

// Repository handles covenant definition database operations.
// Definitions are read far more often than written (every submission and
// scenario evaluates them), so per-deal lists are kept in an LRU cache that
// every write for the deal invalidates.
//
// Database: compliance.db (covenant_definitions table)
type Repository struct {
	db    *sql.DB
	cache *lru.Cache[string, []Definition]
	log   zerolog.Logger
}

// NewRepository creates a new covenant definition repository.
//
// Parameters:
//   - db: Database connection to compliance.db
//   - cacheSize: Number of deals whose definition lists are cached
//   - log: Structured logger
//
// Returns:
//   - *Repository: Initialized repository instance
//   - error: Error if the cache cannot be created
func NewRepository(db *sql.DB, cacheSize int, log zerolog.Logger) (*Repository, error) {
	if cacheSize <= 0 {
		cacheSize = 128
	}
	cache, err := lru.New[string, []Definition](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create covenant cache: %w", err)
	}
	return &Repository{
		db:    db,
		cache: cache,
		log:   log.With().Str("repo", "covenants").Logger(),
	}, nil
}

// Create inserts a new definition and assigns its id and timestamps.
//
// Returns:
//   - *Definition: The stored definition
//   - error: Validation error, duplicate name within the deal, or query failure
func (r *Repository) Create(ctx context.Context, input CreateDefinitionInput) (*Definition, error) {
	now := time.Now().UTC().Truncate(time.Second)
	def := &Definition{
		ID:                uuid.NewString(),
		DealID:            input.DealID,
		Name:              strings.TrimSpace(input.Name),
		NumeratorFields:   input.NumeratorFields,
		DenominatorFields: input.DenominatorFields,
		Operator:          input.Operator,
		Threshold:         input.Threshold,
		Suspended:         input.Suspended,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if def.DenominatorFields == nil {
		def.DenominatorFields = []string{}
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	numerator, denominator, err := encodeFields(def)
	if err != nil {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO covenant_definitions (`+definitionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, def.ID, def.DealID, def.Name, numerator, denominator,
		string(def.Operator), def.Threshold, boolToInt(def.Suspended), now.Unix(), now.Unix())
	if err != nil {
		return nil, mapConstraintError(err, def)
	}

	r.cache.Remove(def.DealID)
	r.log.Info().Str("deal_id", def.DealID).Str("covenant", def.Name).Msg("Covenant definition created")
	return def, nil
}

// GetByID returns nil, nil when the definition does not exist
func (r *Repository) GetByID(ctx context.Context, id string) (*Definition, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+definitionColumns+" FROM covenant_definitions WHERE id = ?", id)
	def, err := scanDefinition(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get covenant definition %s: %w", id, err)
	}
	return def, nil
}

// ListByDeal returns a deal's definitions ordered by creation, served from
// the cache when possible. The returned slice is a copy.
func (r *Repository) ListByDeal(ctx context.Context, dealID string) ([]Definition, error) {
	if cached, ok := r.cache.Get(dealID); ok {
		return cloneDefinitions(cached), nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+definitionColumns+` FROM covenant_definitions
		WHERE deal_id = ?
		ORDER BY created_at, name
	`, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to list covenant definitions for deal %s: %w", dealID, err)
	}
	defer rows.Close()

	defs := make([]Definition, 0)
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan covenant definition: %w", err)
		}
		defs = append(defs, *def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating covenant definitions: %w", err)
	}

	r.cache.Add(dealID, defs)
	return cloneDefinitions(defs), nil
}

// Update applies mutate to the stored definition inside one transaction.
// Returns nil, nil when the definition does not exist.
func (r *Repository) Update(ctx context.Context, id string, mutate func(*Definition) error) (*Definition, error) {
	var updated *Definition
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, "SELECT "+definitionColumns+" FROM covenant_definitions WHERE id = ?", id)
		def, err := scanDefinition(row)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load covenant definition %s: %w", id, err)
		}

		dealID := def.DealID
		if err := mutate(def); err != nil {
			return err
		}
		def.ID, def.DealID = id, dealID
		def.Name = strings.TrimSpace(def.Name)
		if def.DenominatorFields == nil {
			def.DenominatorFields = []string{}
		}
		if err := def.Validate(); err != nil {
			return err
		}
		def.UpdatedAt = time.Now().UTC().Truncate(time.Second)

		numerator, denominator, err := encodeFields(def)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE covenant_definitions
			SET name = ?, numerator_fields = ?, denominator_fields = ?, operator = ?,
				threshold = ?, suspended = ?, updated_at = ?
			WHERE id = ?
		`, def.Name, numerator, denominator, string(def.Operator),
			def.Threshold, boolToInt(def.Suspended), def.UpdatedAt.Unix(), id)
		if err != nil {
			return mapConstraintError(err, def)
		}
		updated = def
		return nil
	})
	if err != nil {
		return nil, err
	}
	if updated != nil {
		r.cache.Remove(updated.DealID)
	}
	return updated, nil
}

// Delete removes a definition. Returns false when nothing was deleted.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	existing, err := r.GetByID(ctx, id)
	if err != nil || existing == nil {
		return false, err
	}

	result, err := r.db.ExecContext(ctx, "DELETE FROM covenant_definitions WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete covenant definition %s: %w", id, err)
	}
	r.cache.Remove(existing.DealID)

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDefinition(row rowScanner) (*Definition, error) {
	var (
		def                    Definition
		numerator, denominator string
		operator               string
		suspended              int
		createdAt, updatedAt   int64
	)
	if err := row.Scan(&def.ID, &def.DealID, &def.Name, &numerator, &denominator,
		&operator, &def.Threshold, &suspended, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(numerator), &def.NumeratorFields); err != nil {
		return nil, fmt.Errorf("failed to decode numerator fields: %w", err)
	}
	if err := json.Unmarshal([]byte(denominator), &def.DenominatorFields); err != nil {
		return nil, fmt.Errorf("failed to decode denominator fields: %w", err)
	}
	def.Operator = domain.Operator(operator)
	def.Suspended = suspended != 0
	def.CreatedAt = utils.UnixToTime(createdAt)
	def.UpdatedAt = utils.UnixToTime(updatedAt)
	return &def, nil
}

func encodeFields(def *Definition) (string, string, error) {
	numerator, err := json.Marshal(def.NumeratorFields)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode numerator fields: %w", err)
	}
	denominator, err := json.Marshal(def.DenominatorFields)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode denominator fields: %w", err)
	}
	return string(numerator), string(denominator), nil
}

func mapConstraintError(err error, def *Definition) error {
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return domain.ValidationError("covenant %q already exists for deal %s", def.Name, def.DealID)
	}
	return fmt.Errorf("failed to store covenant definition %q: %w", def.Name, err)
}

func cloneDefinitions(defs []Definition) []Definition {
	out := make([]Definition, len(defs))
	for i, d := range defs {
		d.NumeratorFields = append([]string(nil), d.NumeratorFields...)
		d.DenominatorFields = append([]string{}, d.DenominatorFields...)
		out[i] = d
	}
	return out
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
