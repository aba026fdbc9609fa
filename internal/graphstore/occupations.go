package graphstore

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/skillcompass/skillcompass-go/internal/metrics"
	"github.com/skillcompass/skillcompass-go/internal/taxonomy"
)

// ErrOccupationNotFound is returned when a URI resolves to no occupation row.
var ErrOccupationNotFound = fmt.Errorf("occupation not found")

// FetchCandidates loads the occupations with the given URIs, applies the
// hierarchical filters, and enriches each surviving occupation with its
// required skills, group labels, and scheme labels. URIs absent from the
// store or removed by a filter are silently dropped; callers decide whether
// a shrunken result set matters.
func (s *Store) FetchCandidates(ctx context.Context, uris []string, filter FilterSet) (map[string]*taxonomy.Occupation, error) {
	done := metrics.TimeOp("fetch_candidates")
	success := false
	defer func() { done(success) }()

	if len(uris) == 0 {
		success = true
		return map[string]*taxonomy.Occupation{}, nil
	}

	query, args := candidateQuery(uris, filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	byURI := make(map[string]*taxonomy.Occupation, len(uris))
	for rows.Next() {
		var occ taxonomy.Occupation
		var desc, isco sql.NullString
		if err := rows.Scan(&occ.URI, &occ.Label, &desc, &isco); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		occ.Description = desc.String
		occ.ISCOCode = isco.String
		byURI[occ.URI] = &occ
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("candidate rows: %w", err)
	}

	if len(byURI) > 0 {
		if err := s.attachRequiredSkills(ctx, byURI); err != nil {
			return nil, err
		}
		if err := s.attachGroupLabels(ctx, byURI); err != nil {
			return nil, err
		}
		if err := s.attachSchemeLabels(ctx, byURI); err != nil {
			return nil, err
		}
	}

	success = true
	return byURI, nil
}

// attachRequiredSkills loads the requires edges for all fetched occupations
// in one batched query and fills in each occupation's RequiredSkills slice.
func (s *Store) attachRequiredSkills(ctx context.Context, byURI map[string]*taxonomy.Occupation) error {
	uris := mapKeys(byURI)
	query := fmt.Sprintf(`SELECT r.occupation_uri, r.skill_uri, sk.label, r.relation_type, sk.skill_type
        FROM requires r
        JOIN skills sk ON sk.uri = r.skill_uri
        WHERE r.occupation_uri IN (%s)
        ORDER BY r.occupation_uri, sk.label`, placeholders(len(uris)))

	rows, err := s.db.QueryContext(ctx, query, stringArgs(uris)...)
	if err != nil {
		return fmt.Errorf("failed to query required skills: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var occURI string
		var rs taxonomy.RequiredSkill
		var relation, skillType sql.NullString
		if err := rows.Scan(&occURI, &rs.URI, &rs.Label, &relation, &skillType); err != nil {
			return fmt.Errorf("failed to scan required skill: %w", err)
		}
		rs.RelationType = relation.String
		rs.SkillType = skillType.String
		if occ, ok := byURI[occURI]; ok {
			occ.RequiredSkills = append(occ.RequiredSkills, rs)
		}
	}
	return rows.Err()
}

func (s *Store) attachGroupLabels(ctx context.Context, byURI map[string]*taxonomy.Occupation) error {
	uris := mapKeys(byURI)
	query := fmt.Sprintf(`SELECT m.occupation_uri, g.label
        FROM occupation_group_members m
        JOIN occupation_groups g ON g.uri = m.group_uri
        WHERE m.occupation_uri IN (%s)
        ORDER BY m.occupation_uri, g.label`, placeholders(len(uris)))

	rows, err := s.db.QueryContext(ctx, query, stringArgs(uris)...)
	if err != nil {
		return fmt.Errorf("failed to query group labels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var occURI, label string
		if err := rows.Scan(&occURI, &label); err != nil {
			return fmt.Errorf("failed to scan group label: %w", err)
		}
		if occ, ok := byURI[occURI]; ok {
			occ.GroupLabels = append(occ.GroupLabels, label)
		}
	}
	return rows.Err()
}

func (s *Store) attachSchemeLabels(ctx context.Context, byURI map[string]*taxonomy.Occupation) error {
	uris := mapKeys(byURI)
	query := fmt.Sprintf(`SELECT sm.member_uri, cs.label
        FROM scheme_members sm
        JOIN concept_schemes cs ON cs.uri = sm.scheme_uri
        WHERE sm.member_uri IN (%s)
        ORDER BY sm.member_uri, cs.label`, placeholders(len(uris)))

	rows, err := s.db.QueryContext(ctx, query, stringArgs(uris)...)
	if err != nil {
		return fmt.Errorf("failed to query scheme labels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var memberURI, label string
		if err := rows.Scan(&memberURI, &label); err != nil {
			return fmt.Errorf("failed to scan scheme label: %w", err)
		}
		if occ, ok := byURI[memberURI]; ok {
			occ.SchemeLabels = append(occ.SchemeLabels, label)
		}
	}
	return rows.Err()
}

// GetOccupation loads one occupation with its full enrichment.
func (s *Store) GetOccupation(ctx context.Context, uri string) (*taxonomy.Occupation, error) {
	done := metrics.TimeOp("get_occupation")
	success := false
	defer func() { done(success) }()

	byURI, err := s.FetchCandidates(ctx, []string{uri}, FilterSet{})
	if err != nil {
		return nil, err
	}
	occ, ok := byURI[uri]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOccupationNotFound, uri)
	}
	success = true
	return occ, nil
}

// SearchOccupations finds occupations whose label or description contains
// the query string, case-insensitively. Results come back without skill or
// group enrichment; callers wanting the full view follow up per URI.
func (s *Store) SearchOccupations(ctx context.Context, query string, limit int) ([]taxonomy.Occupation, error) {
	done := metrics.TimeOp("search_occupations")
	success := false
	defer func() { done(success) }()

	if limit < 1 {
		limit = 10
	}
	stmt, err := s.getPreparedStmt(ctx, `SELECT uri, label, description, isco_code
        FROM occupations
        WHERE label LIKE '%' || ? || '%' COLLATE NOCASE
           OR description LIKE '%' || ? || '%' COLLATE NOCASE
        ORDER BY length(label), label
        LIMIT ?`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare occupation search: %w", err)
	}

	rows, err := stmt.QueryContext(ctx, query, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search occupations: %w", err)
	}
	defer rows.Close()

	var results []taxonomy.Occupation
	for rows.Next() {
		var occ taxonomy.Occupation
		var desc, isco sql.NullString
		if err := rows.Scan(&occ.URI, &occ.Label, &desc, &isco); err != nil {
			log.Printf("Warning: skipping malformed occupation row: %v", err)
			continue
		}
		occ.Description = desc.String
		occ.ISCOCode = isco.String
		results = append(results, occ)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("occupation search rows: %w", err)
	}

	success = true
	return results, nil
}

func mapKeys(m map[string]*taxonomy.Occupation) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
