package graphstore

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/skillcompass/skillcompass-go/internal/metrics"
	"github.com/skillcompass/skillcompass-go/internal/taxonomy"
)

// ResolveSkillLabels maps skill URIs to their preferred labels. URIs with
// no row in the store fall back to the URI itself so downstream embedding
// still has text to work with; each fallback is logged once per call.
func (s *Store) ResolveSkillLabels(ctx context.Context, uris []string) ([]string, error) {
	done := metrics.TimeOp("resolve_skill_labels")
	success := false
	defer func() { done(success) }()

	if len(uris) == 0 {
		success = true
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT uri, label FROM skills WHERE uri IN (%s)`, placeholders(len(uris)))
	rows, err := s.db.QueryContext(ctx, query, stringArgs(uris)...)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve skill labels: %w", err)
	}
	defer rows.Close()

	byURI := make(map[string]string, len(uris))
	for rows.Next() {
		var uri, label string
		if err := rows.Scan(&uri, &label); err != nil {
			return nil, fmt.Errorf("failed to scan skill label: %w", err)
		}
		byURI[uri] = label
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("skill label rows: %w", err)
	}

	labels := make([]string, len(uris))
	for i, uri := range uris {
		if label, ok := byURI[uri]; ok && label != "" {
			labels[i] = label
			continue
		}
		log.Printf("Warning: no label for skill %s, falling back to URI", uri)
		labels[i] = uri
	}

	success = true
	return labels, nil
}

// GetSkill loads one skill by URI.
func (s *Store) GetSkill(ctx context.Context, uri string) (*taxonomy.Skill, error) {
	stmt, err := s.getPreparedStmt(ctx, `SELECT uri, label, description, skill_type FROM skills WHERE uri = ?`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare skill lookup: %w", err)
	}

	var sk taxonomy.Skill
	var desc, skillType sql.NullString
	err = stmt.QueryRowContext(ctx, uri).Scan(&sk.URI, &sk.Label, &desc, &skillType)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get skill: %w", err)
	}
	sk.Description = desc.String
	sk.SkillType = skillType.String
	return &sk, nil
}

// SearchSkills finds skills whose label or description contains the query
// string, case-insensitively, shortest labels first.
func (s *Store) SearchSkills(ctx context.Context, query string, limit int) ([]taxonomy.Skill, error) {
	done := metrics.TimeOp("search_skills")
	success := false
	defer func() { done(success) }()

	if limit < 1 {
		limit = 10
	}
	stmt, err := s.getPreparedStmt(ctx, `SELECT uri, label, description, skill_type
        FROM skills
        WHERE label LIKE '%' || ? || '%' COLLATE NOCASE
           OR description LIKE '%' || ? || '%' COLLATE NOCASE
        ORDER BY length(label), label
        LIMIT ?`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare skill search: %w", err)
	}

	rows, err := stmt.QueryContext(ctx, query, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search skills: %w", err)
	}
	defer rows.Close()

	var results []taxonomy.Skill
	for rows.Next() {
		var sk taxonomy.Skill
		var desc, skillType sql.NullString
		if err := rows.Scan(&sk.URI, &sk.Label, &desc, &skillType); err != nil {
			log.Printf("Warning: skipping malformed skill row: %v", err)
			continue
		}
		sk.Description = desc.String
		sk.SkillType = skillType.String
		results = append(results, sk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("skill search rows: %w", err)
	}

	success = true
	return results, nil
}
