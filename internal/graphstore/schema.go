package graphstore

// schema is the taxonomy DDL. All statements are idempotent so the store
// can be opened against a fresh or an already-loaded database.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS occupations (
        uri TEXT PRIMARY KEY,
        label TEXT NOT NULL,
        description TEXT,
        isco_code TEXT,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    )`,

	`CREATE TABLE IF NOT EXISTS skills (
        uri TEXT PRIMARY KEY,
        label TEXT NOT NULL,
        description TEXT,
        skill_type TEXT,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    )`,

	`CREATE TABLE IF NOT EXISTS occupation_groups (
        uri TEXT PRIMARY KEY,
        code TEXT,
        label TEXT
    )`,

	`CREATE TABLE IF NOT EXISTS skill_groups (
        uri TEXT PRIMARY KEY,
        code TEXT,
        label TEXT
    )`,

	`CREATE TABLE IF NOT EXISTS concept_schemes (
        uri TEXT PRIMARY KEY,
        label TEXT
    )`,

	// requires edges carry the essential/optional relation type
	`CREATE TABLE IF NOT EXISTS requires (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        occupation_uri TEXT NOT NULL,
        skill_uri TEXT NOT NULL,
        relation_type TEXT NOT NULL,
        UNIQUE (occupation_uri, skill_uri),
        FOREIGN KEY (occupation_uri) REFERENCES occupations(uri),
        FOREIGN KEY (skill_uri) REFERENCES skills(uri)
    )`,

	`CREATE TABLE IF NOT EXISTS occupation_group_members (
        occupation_uri TEXT NOT NULL,
        group_uri TEXT NOT NULL,
        UNIQUE (occupation_uri, group_uri),
        FOREIGN KEY (occupation_uri) REFERENCES occupations(uri),
        FOREIGN KEY (group_uri) REFERENCES occupation_groups(uri)
    )`,

	`CREATE TABLE IF NOT EXISTS skill_group_members (
        skill_uri TEXT NOT NULL,
        group_uri TEXT NOT NULL,
        UNIQUE (skill_uri, group_uri),
        FOREIGN KEY (skill_uri) REFERENCES skills(uri),
        FOREIGN KEY (group_uri) REFERENCES skill_groups(uri)
    )`,

	// scheme membership is shared by occupations and skills; URIs are
	// globally unique across the taxonomy
	`CREATE TABLE IF NOT EXISTS scheme_members (
        member_uri TEXT NOT NULL,
        scheme_uri TEXT NOT NULL,
        UNIQUE (member_uri, scheme_uri),
        FOREIGN KEY (scheme_uri) REFERENCES concept_schemes(uri)
    )`,

	// editorial notes; a note can be linked to several occupations and is
	// removed once its last link is deleted
	`CREATE TABLE IF NOT EXISTS notes (
        id TEXT PRIMARY KEY,
        text TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME
    )`,

	`CREATE TABLE IF NOT EXISTS occupation_notes (
        occupation_uri TEXT NOT NULL,
        note_id TEXT NOT NULL,
        UNIQUE (occupation_uri, note_id),
        FOREIGN KEY (occupation_uri) REFERENCES occupations(uri),
        FOREIGN KEY (note_id) REFERENCES notes(id)
    )`,

	// broader edges between classification groups (narrower -> broader)
	`CREATE TABLE IF NOT EXISTS group_broader (
        narrower_uri TEXT NOT NULL,
        broader_uri TEXT NOT NULL,
        UNIQUE (narrower_uri, broader_uri)
    )`,

	`CREATE INDEX IF NOT EXISTS idx_occupations_label ON occupations(label)`,
	`CREATE INDEX IF NOT EXISTS idx_occupations_isco ON occupations(isco_code)`,
	`CREATE INDEX IF NOT EXISTS idx_skills_label ON skills(label)`,
	`CREATE INDEX IF NOT EXISTS idx_skills_type ON skills(skill_type)`,
	`CREATE INDEX IF NOT EXISTS idx_requires_occupation ON requires(occupation_uri)`,
	`CREATE INDEX IF NOT EXISTS idx_requires_skill ON requires(skill_uri)`,
	`CREATE INDEX IF NOT EXISTS idx_ogm_occupation ON occupation_group_members(occupation_uri)`,
	`CREATE INDEX IF NOT EXISTS idx_ogm_group ON occupation_group_members(group_uri)`,
	`CREATE INDEX IF NOT EXISTS idx_sgm_skill ON skill_group_members(skill_uri)`,
	`CREATE INDEX IF NOT EXISTS idx_scheme_member ON scheme_members(member_uri)`,
	`CREATE INDEX IF NOT EXISTS idx_scheme_scheme ON scheme_members(scheme_uri)`,
	`CREATE INDEX IF NOT EXISTS idx_broader_narrower ON group_broader(narrower_uri)`,
	`CREATE INDEX IF NOT EXISTS idx_broader_broader ON group_broader(broader_uri)`,
	`CREATE INDEX IF NOT EXISTS idx_groups_code ON occupation_groups(code)`,
	`CREATE INDEX IF NOT EXISTS idx_notes_occupation ON occupation_notes(occupation_uri)`,
	`CREATE INDEX IF NOT EXISTS idx_notes_note ON occupation_notes(note_id)`,
}
