package graphstore

import (
	"context"
	"fmt"

	"github.com/skillcompass/skillcompass-go/internal/taxonomy"
)

// NodeCounts reports how many entities of each kind the store holds.
func (s *Store) NodeCounts(ctx context.Context) ([]taxonomy.NodeCount, error) {
	tables := []struct {
		label string
		table string
	}{
		{"Occupation", "occupations"},
		{"Skill", "skills"},
		{"OccupationGroup", "occupation_groups"},
		{"SkillGroup", "skill_groups"},
		{"ConceptScheme", "concept_schemes"},
	}

	counts := make([]taxonomy.NodeCount, 0, len(tables))
	for _, t := range tables {
		var n int64
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", t.table)
		if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", t.table, err)
		}
		counts = append(counts, taxonomy.NodeCount{Label: t.label, Count: n})
	}
	return counts, nil
}

// RelCounts reports edge counts by relation type. The requires table is
// broken out by its relation_type column; the remaining edge tables count
// as one relation each.
func (s *Store) RelCounts(ctx context.Context) ([]taxonomy.RelCount, error) {
	var counts []taxonomy.RelCount

	rows, err := s.db.QueryContext(ctx, `SELECT COALESCE(NULLIF(relation_type, ''), 'requires'), COUNT(*)
        FROM requires GROUP BY 1 ORDER BY 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to count requires edges: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var rc taxonomy.RelCount
		if err := rows.Scan(&rc.Type, &rc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan requires count: %w", err)
		}
		counts = append(counts, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("requires count rows: %w", err)
	}

	edges := []struct {
		relType string
		table   string
	}{
		{"in_occupation_group", "occupation_group_members"},
		{"in_skill_group", "skill_group_members"},
		{"in_scheme", "scheme_members"},
		{"broader", "group_broader"},
	}
	for _, e := range edges {
		var n int64
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", e.table)
		if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", e.table, err)
		}
		counts = append(counts, taxonomy.RelCount{Type: e.relType, Count: n})
	}
	return counts, nil
}
