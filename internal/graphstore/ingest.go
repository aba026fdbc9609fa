package graphstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/skillcompass/skillcompass-go/internal/metrics"
	"github.com/skillcompass/skillcompass-go/internal/taxonomy"
)

// RequiresEdge links an occupation to a required skill for ingest.
type RequiresEdge struct {
	OccupationURI string
	SkillURI      string
	RelationType  string
}

// MembershipEdge links a member concept to a container (group or scheme).
type MembershipEdge struct {
	MemberURI    string
	ContainerURI string
}

// BroaderEdge links a narrower group to its broader parent.
type BroaderEdge struct {
	NarrowerURI string
	BroaderURI  string
}

// withTx runs fn inside one transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("failed to rollback after %v: %w", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// PutOccupations upserts occupation nodes in one transaction. Existing rows
// are overwritten by URI so the loader is re-runnable.
func (s *Store) PutOccupations(ctx context.Context, occs []taxonomy.Occupation) error {
	done := metrics.TimeOp("put_occupations")
	success := false
	defer func() { done(success) }()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO occupations (uri, label, description, isco_code)
            VALUES (?, ?, ?, ?)
            ON CONFLICT(uri) DO UPDATE SET label = excluded.label,
                description = excluded.description, isco_code = excluded.isco_code`)
		if err != nil {
			return fmt.Errorf("failed to prepare occupation upsert: %w", err)
		}
		defer stmt.Close()

		for _, occ := range occs {
			if occ.URI == "" || occ.Label == "" {
				return fmt.Errorf("occupation requires uri and label, got uri=%q label=%q", occ.URI, occ.Label)
			}
			if _, err := stmt.ExecContext(ctx, occ.URI, occ.Label, occ.Description, occ.ISCOCode); err != nil {
				return fmt.Errorf("failed to upsert occupation %s: %w", occ.URI, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	success = true
	return nil
}

// PutSkills upserts skill nodes in one transaction.
func (s *Store) PutSkills(ctx context.Context, skills []taxonomy.Skill) error {
	done := metrics.TimeOp("put_skills")
	success := false
	defer func() { done(success) }()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO skills (uri, label, description, skill_type)
            VALUES (?, ?, ?, ?)
            ON CONFLICT(uri) DO UPDATE SET label = excluded.label,
                description = excluded.description, skill_type = excluded.skill_type`)
		if err != nil {
			return fmt.Errorf("failed to prepare skill upsert: %w", err)
		}
		defer stmt.Close()

		for _, sk := range skills {
			if sk.URI == "" || sk.Label == "" {
				return fmt.Errorf("skill requires uri and label, got uri=%q label=%q", sk.URI, sk.Label)
			}
			if _, err := stmt.ExecContext(ctx, sk.URI, sk.Label, sk.Description, sk.SkillType); err != nil {
				return fmt.Errorf("failed to upsert skill %s: %w", sk.URI, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	success = true
	return nil
}

// PutOccupationGroups upserts occupation group nodes.
func (s *Store) PutOccupationGroups(ctx context.Context, groups []taxonomy.OccupationGroup) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO occupation_groups (uri, code, label)
            VALUES (?, ?, ?)
            ON CONFLICT(uri) DO UPDATE SET code = excluded.code, label = excluded.label`)
		if err != nil {
			return fmt.Errorf("failed to prepare occupation group upsert: %w", err)
		}
		defer stmt.Close()

		for _, g := range groups {
			if g.URI == "" {
				return fmt.Errorf("occupation group requires uri")
			}
			if _, err := stmt.ExecContext(ctx, g.URI, g.Code, g.Label); err != nil {
				return fmt.Errorf("failed to upsert occupation group %s: %w", g.URI, err)
			}
		}
		return nil
	})
}

// PutSkillGroups upserts skill group nodes.
func (s *Store) PutSkillGroups(ctx context.Context, groups []taxonomy.SkillGroup) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO skill_groups (uri, code, label)
            VALUES (?, ?, ?)
            ON CONFLICT(uri) DO UPDATE SET code = excluded.code, label = excluded.label`)
		if err != nil {
			return fmt.Errorf("failed to prepare skill group upsert: %w", err)
		}
		defer stmt.Close()

		for _, g := range groups {
			if g.URI == "" {
				return fmt.Errorf("skill group requires uri")
			}
			if _, err := stmt.ExecContext(ctx, g.URI, g.Code, g.Label); err != nil {
				return fmt.Errorf("failed to upsert skill group %s: %w", g.URI, err)
			}
		}
		return nil
	})
}

// PutConceptSchemes upserts concept scheme nodes.
func (s *Store) PutConceptSchemes(ctx context.Context, schemes []taxonomy.ConceptScheme) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO concept_schemes (uri, label)
            VALUES (?, ?)
            ON CONFLICT(uri) DO UPDATE SET label = excluded.label`)
		if err != nil {
			return fmt.Errorf("failed to prepare concept scheme upsert: %w", err)
		}
		defer stmt.Close()

		for _, cs := range schemes {
			if cs.URI == "" {
				return fmt.Errorf("concept scheme requires uri")
			}
			if _, err := stmt.ExecContext(ctx, cs.URI, cs.Label); err != nil {
				return fmt.Errorf("failed to upsert concept scheme %s: %w", cs.URI, err)
			}
		}
		return nil
	})
}

// PutRequires upserts requires edges. The UNIQUE(occupation_uri, skill_uri)
// constraint makes re-ingest idempotent; relation_type is refreshed.
func (s *Store) PutRequires(ctx context.Context, edges []RequiresEdge) error {
	done := metrics.TimeOp("put_requires")
	success := false
	defer func() { done(success) }()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO requires (occupation_uri, skill_uri, relation_type)
            VALUES (?, ?, ?)
            ON CONFLICT(occupation_uri, skill_uri) DO UPDATE SET relation_type = excluded.relation_type`)
		if err != nil {
			return fmt.Errorf("failed to prepare requires upsert: %w", err)
		}
		defer stmt.Close()

		for _, e := range edges {
			if e.OccupationURI == "" || e.SkillURI == "" {
				return fmt.Errorf("requires edge needs both endpoints, got %q -> %q", e.OccupationURI, e.SkillURI)
			}
			rel := e.RelationType
			if rel == "" {
				rel = taxonomy.RelationEssential
			}
			if _, err := stmt.ExecContext(ctx, e.OccupationURI, e.SkillURI, rel); err != nil {
				return fmt.Errorf("failed to upsert requires edge %s -> %s: %w", e.OccupationURI, e.SkillURI, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	success = true
	return nil
}

// PutOccupationGroupMembers upserts occupation-to-group membership edges.
func (s *Store) PutOccupationGroupMembers(ctx context.Context, edges []MembershipEdge) error {
	return s.putMemberships(ctx, `INSERT OR IGNORE INTO occupation_group_members (occupation_uri, group_uri) VALUES (?, ?)`, edges)
}

// PutSkillGroupMembers upserts skill-to-group membership edges.
func (s *Store) PutSkillGroupMembers(ctx context.Context, edges []MembershipEdge) error {
	return s.putMemberships(ctx, `INSERT OR IGNORE INTO skill_group_members (skill_uri, group_uri) VALUES (?, ?)`, edges)
}

// PutSchemeMembers upserts concept-to-scheme membership edges.
func (s *Store) PutSchemeMembers(ctx context.Context, edges []MembershipEdge) error {
	return s.putMemberships(ctx, `INSERT OR IGNORE INTO scheme_members (member_uri, scheme_uri) VALUES (?, ?)`, edges)
}

func (s *Store) putMemberships(ctx context.Context, query string, edges []MembershipEdge) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare membership upsert: %w", err)
		}
		defer stmt.Close()

		for _, e := range edges {
			if e.MemberURI == "" || e.ContainerURI == "" {
				return fmt.Errorf("membership edge needs both endpoints, got %q -> %q", e.MemberURI, e.ContainerURI)
			}
			if _, err := stmt.ExecContext(ctx, e.MemberURI, e.ContainerURI); err != nil {
				return fmt.Errorf("failed to upsert membership %s -> %s: %w", e.MemberURI, e.ContainerURI, err)
			}
		}
		return nil
	})
}

// PutBroaderEdges upserts narrower-to-broader hierarchy edges between groups.
func (s *Store) PutBroaderEdges(ctx context.Context, edges []BroaderEdge) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO group_broader (narrower_uri, broader_uri) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare broader upsert: %w", err)
		}
		defer stmt.Close()

		for _, e := range edges {
			if e.NarrowerURI == "" || e.BroaderURI == "" {
				return fmt.Errorf("broader edge needs both endpoints, got %q -> %q", e.NarrowerURI, e.BroaderURI)
			}
			if e.NarrowerURI == e.BroaderURI {
				return fmt.Errorf("broader edge cannot be self-referential: %s", e.NarrowerURI)
			}
			if _, err := stmt.ExecContext(ctx, e.NarrowerURI, e.BroaderURI); err != nil {
				return fmt.Errorf("failed to upsert broader edge %s -> %s: %w", e.NarrowerURI, e.BroaderURI, err)
			}
		}
		return nil
	})
}
