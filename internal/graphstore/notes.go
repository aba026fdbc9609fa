package graphstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/skillcompass/skillcompass-go/internal/metrics"
	"github.com/skillcompass/skillcompass-go/internal/taxonomy"
)

// ErrNoteNotFound reports that an occupation has no note with the given id.
var ErrNoteNotFound = errors.New("note not found")

// MaxNoteTextLen bounds note content.
const MaxNoteTextLen = 5000

// UpsertNote creates or updates a note and links it to the occupation.
// The occupation must already exist. Re-linking an existing note is a no-op;
// updating refreshes text and updated_at.
func (s *Store) UpsertNote(ctx context.Context, occupationURI, noteID, text string) (*taxonomy.Note, error) {
	done := metrics.TimeOp("upsert_note")
	success := false
	defer func() { done(success) }()

	if occupationURI == "" || noteID == "" {
		return nil, fmt.Errorf("note requires occupation uri and note id, got occupation=%q id=%q", occupationURI, noteID)
	}
	if text == "" || len(text) > MaxNoteTextLen {
		return nil, fmt.Errorf("note text must be 1-%d characters, got %d", MaxNoteTextLen, len(text))
	}

	var note taxonomy.Note
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var label string
		err := tx.QueryRowContext(ctx, `SELECT label FROM occupations WHERE uri = ?`, occupationURI).Scan(&label)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: %s", ErrOccupationNotFound, occupationURI)
		}
		if err != nil {
			return fmt.Errorf("failed to look up occupation %s: %w", occupationURI, err)
		}

		_, err = tx.ExecContext(ctx, `INSERT INTO notes (id, text) VALUES (?, ?)
            ON CONFLICT(id) DO UPDATE SET text = excluded.text, updated_at = CURRENT_TIMESTAMP`,
			noteID, text)
		if err != nil {
			return fmt.Errorf("failed to upsert note %s: %w", noteID, err)
		}
		_, err = tx.ExecContext(ctx, `INSERT OR IGNORE INTO occupation_notes (occupation_uri, note_id) VALUES (?, ?)`,
			occupationURI, noteID)
		if err != nil {
			return fmt.Errorf("failed to link note %s to %s: %w", noteID, occupationURI, err)
		}

		var updatedAt sql.NullString
		err = tx.QueryRowContext(ctx, `SELECT created_at, updated_at FROM notes WHERE id = ?`, noteID).
			Scan(&note.CreatedAt, &updatedAt)
		if err != nil {
			return fmt.Errorf("failed to read back note %s: %w", noteID, err)
		}
		note.OccupationURI = occupationURI
		note.OccupationLabel = label
		note.NoteID = noteID
		note.Text = text
		note.UpdatedAt = updatedAt.String
		return nil
	})
	if err != nil {
		return nil, err
	}
	success = true
	return &note, nil
}

// DeleteNote removes the link between an occupation and a note. The note row
// itself is deleted once no other occupation references it.
func (s *Store) DeleteNote(ctx context.Context, occupationURI, noteID string) error {
	done := metrics.TimeOp("delete_note")
	success := false
	defer func() { done(success) }()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM occupation_notes WHERE occupation_uri = ? AND note_id = ?`,
			occupationURI, noteID)
		if err != nil {
			return fmt.Errorf("failed to unlink note %s from %s: %w", noteID, occupationURI, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check unlink result: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s on %s", ErrNoteNotFound, noteID, occupationURI)
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM notes WHERE id = ?
            AND NOT EXISTS (SELECT 1 FROM occupation_notes WHERE note_id = ?)`,
			noteID, noteID)
		if err != nil {
			return fmt.Errorf("failed to collect orphaned note %s: %w", noteID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	success = true
	return nil
}

// SearchNotes pages through notes ordered by most recently touched first,
// optionally restricted to one occupation. Total counts all matching links,
// not just the returned page.
func (s *Store) SearchNotes(ctx context.Context, occupationURI string, limit, skip int) (*taxonomy.NotePage, error) {
	done := metrics.TimeOp("search_notes")
	success := false
	defer func() { done(success) }()

	where := ""
	args := []interface{}{}
	if occupationURI != "" {
		where = " WHERE onl.occupation_uri = ?"
		args = append(args, occupationURI)
	}

	countStmt, err := s.getPreparedStmt(ctx,
		`SELECT COUNT(*) FROM occupation_notes onl`+where)
	if err != nil {
		return nil, err
	}
	page := &taxonomy.NotePage{Notes: []taxonomy.Note{}}
	if err := countStmt.QueryRowContext(ctx, args...).Scan(&page.Total); err != nil {
		return nil, fmt.Errorf("failed to count notes: %w", err)
	}

	stmt, err := s.getPreparedStmt(ctx, `SELECT onl.occupation_uri, o.label, n.id, n.text, n.created_at, n.updated_at
        FROM occupation_notes onl
        JOIN occupations o ON o.uri = onl.occupation_uri
        JOIN notes n ON n.id = onl.note_id`+where+`
        ORDER BY COALESCE(n.updated_at, n.created_at) DESC, n.id
        LIMIT ? OFFSET ?`)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, append(args, limit, skip)...)
	if err != nil {
		return nil, fmt.Errorf("failed to search notes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var note taxonomy.Note
		var updatedAt sql.NullString
		if err := rows.Scan(&note.OccupationURI, &note.OccupationLabel, &note.NoteID, &note.Text, &note.CreatedAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan note row: %w", err)
		}
		note.UpdatedAt = updatedAt.String
		page.Notes = append(page.Notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate note rows: %w", err)
	}
	success = true
	return page, nil
}
