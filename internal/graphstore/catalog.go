package graphstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/skillcompass/skillcompass-go/internal/taxonomy"
)

// ListOccupationGroups returns all occupation groups ordered by code so the
// catalog reads as a hierarchy outline.
func (s *Store) ListOccupationGroups(ctx context.Context) ([]taxonomy.OccupationGroup, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT uri, code, label FROM occupation_groups ORDER BY code, label`)
	if err != nil {
		return nil, fmt.Errorf("failed to list occupation groups: %w", err)
	}
	defer rows.Close()

	var groups []taxonomy.OccupationGroup
	for rows.Next() {
		var g taxonomy.OccupationGroup
		var code sql.NullString
		if err := rows.Scan(&g.URI, &code, &g.Label); err != nil {
			return nil, fmt.Errorf("failed to scan occupation group: %w", err)
		}
		g.Code = code.String
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// ListSkillGroups returns all skill groups ordered by code.
func (s *Store) ListSkillGroups(ctx context.Context) ([]taxonomy.SkillGroup, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT uri, code, label FROM skill_groups ORDER BY code, label`)
	if err != nil {
		return nil, fmt.Errorf("failed to list skill groups: %w", err)
	}
	defer rows.Close()

	var groups []taxonomy.SkillGroup
	for rows.Next() {
		var g taxonomy.SkillGroup
		var code sql.NullString
		if err := rows.Scan(&g.URI, &code, &g.Label); err != nil {
			return nil, fmt.Errorf("failed to scan skill group: %w", err)
		}
		g.Code = code.String
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// ListConceptSchemes returns all concept schemes ordered by label.
func (s *Store) ListConceptSchemes(ctx context.Context) ([]taxonomy.ConceptScheme, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT uri, label FROM concept_schemes ORDER BY label`)
	if err != nil {
		return nil, fmt.Errorf("failed to list concept schemes: %w", err)
	}
	defer rows.Close()

	var schemes []taxonomy.ConceptScheme
	for rows.Next() {
		var cs taxonomy.ConceptScheme
		if err := rows.Scan(&cs.URI, &cs.Label); err != nil {
			return nil, fmt.Errorf("failed to scan concept scheme: %w", err)
		}
		schemes = append(schemes, cs)
	}
	return schemes, rows.Err()
}
