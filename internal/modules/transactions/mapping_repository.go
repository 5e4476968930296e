package transactions

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// MappingRepository reads the global category mapping table. The table is
// reference data: rarely mutated, shared read-only by the resolver.
type MappingRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewMappingRepository creates a new mapping repository.
func NewMappingRepository(db *sql.DB, log zerolog.Logger) *MappingRepository {
	return &MappingRepository{
		db:  db,
		log: log.With().Str("repo", "category_mappings").Logger(),
	}
}

// GetByUpstreamCategory looks up the mapping for an aggregator category
// label by exact match. Returns nil (not an error) when no row matches, so
// the resolver can fall through to keyword heuristics.
func (r *MappingRepository) GetByUpstreamCategory(label string) (*CategoryMapping, error) {
	var m CategoryMapping
	err := r.db.QueryRow(
		"SELECT id, upstream_category, tax_category, deductible, vat_applicable FROM category_mappings WHERE upstream_category = ?",
		label,
	).Scan(&m.ID, &m.UpstreamCategory, &m.TaxCategory, &m.Deductible, &m.VATApplicable)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up category mapping: %w", err)
	}
	return &m, nil
}

// GetByUpstreamCategoryTx is GetByUpstreamCategory within an existing
// transaction, so ingestion can resolve mappings on the same connection
// that holds its batch.
func (r *MappingRepository) GetByUpstreamCategoryTx(tx *sql.Tx, label string) (*CategoryMapping, error) {
	var m CategoryMapping
	err := tx.QueryRow(
		"SELECT id, upstream_category, tax_category, deductible, vat_applicable FROM category_mappings WHERE upstream_category = ?",
		label,
	).Scan(&m.ID, &m.UpstreamCategory, &m.TaxCategory, &m.Deductible, &m.VATApplicable)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up category mapping: %w", err)
	}
	return &m, nil
}

// Create inserts a mapping row. Used for seeding and administration.
func (r *MappingRepository) Create(m *CategoryMapping) (*CategoryMapping, error) {
	result, err := r.db.Exec(
		"INSERT INTO category_mappings (upstream_category, tax_category, deductible, vat_applicable) VALUES (?, ?, ?, ?)",
		m.UpstreamCategory, m.TaxCategory, m.Deductible, m.VATApplicable,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert category mapping: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	m.ID = id
	return m, nil
}
