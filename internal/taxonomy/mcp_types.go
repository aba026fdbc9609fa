package taxonomy

// RecommendArgs represents the arguments for the recommend_occupations tool
type RecommendArgs struct {
	Skills           []string `json:"skills" jsonschema:"Skill URIs the user already possesses."`
	OccupationGroups []string `json:"occupationGroups,omitempty" jsonschema:"Optional occupation group URIs to filter candidates by (direct, transitive or code-prefix membership)."`
	Schemes          []string `json:"schemes,omitempty" jsonschema:"Optional concept scheme URIs to filter candidates by."`
	Limit            int      `json:"limit,omitempty" jsonschema:"Maximum number of recommendations to return (default 20, max 100)."`
}

// RecommendResult is the structured output of the recommend_occupations tool
type RecommendResult struct {
	Count   int                    `json:"count"`
	Skills  []string               `json:"skills"`
	Results []RecommendationResult `json:"results"`
}

// SkillGapArgs represents the arguments for the skill_gap tool
type SkillGapArgs struct {
	OccupationURI string   `json:"occupationUri" jsonschema:"URI of the target occupation."`
	Skills        []string `json:"skills,omitempty" jsonschema:"Skill URIs the user already possesses."`
	EssentialOnly bool     `json:"essentialOnly,omitempty" jsonschema:"When true, restrict the view to essential skills."`
}

// SearchSkillsArgs represents the arguments for the search_skills tool
type SearchSkillsArgs struct {
	Query     string `json:"query,omitempty" jsonschema:"Substring to match against skill labels."`
	SkillType string `json:"skillType,omitempty" jsonschema:"Optional skill type filter (e.g. knowledge, skill/competence)."`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 20)."`
}

// SkillList is the structured output of the search_skills tool
type SkillList struct {
	Count  int     `json:"count"`
	Skills []Skill `json:"skills"`
}

// SearchOccupationsArgs represents the arguments for the search_occupations tool
type SearchOccupationsArgs struct {
	Query  string   `json:"query,omitempty" jsonschema:"Substring to match against occupation labels."`
	Groups []string `json:"occupationGroups,omitempty" jsonschema:"Optional occupation group URIs to filter by."`
	Limit  int      `json:"limit,omitempty" jsonschema:"Maximum number of results (default 20)."`
}

// OccupationList is the structured output of the search_occupations tool
type OccupationList struct {
	Count       int          `json:"count"`
	Occupations []Occupation `json:"occupations"`
}

// SearchNotesArgs represents the arguments for the search_notes tool
type SearchNotesArgs struct {
	OccupationURI string `json:"occupationUri,omitempty" jsonschema:"Optional occupation URI to restrict the search to."`
	Limit         int    `json:"limit,omitempty" jsonschema:"Maximum number of notes to return (default 20)."`
	Skip          int    `json:"skip,omitempty" jsonschema:"Number of notes to skip for pagination."`
}

// UpsertNoteArgs represents the arguments for the upsert_note tool
type UpsertNoteArgs struct {
	OccupationURI string `json:"occupationUri" jsonschema:"URI of the occupation the note is attached to."`
	NoteID        string `json:"noteId" jsonschema:"Stable note identifier; reusing an id updates the note."`
	Text          string `json:"text" jsonschema:"Note content (1-5000 characters)."`
}

// DeleteNoteArgs represents the arguments for the delete_note tool
type DeleteNoteArgs struct {
	OccupationURI string `json:"occupationUri" jsonschema:"URI of the occupation the note is attached to."`
	NoteID        string `json:"noteId" jsonschema:"Identifier of the note to remove."`
}

// DeleteNoteResult is the structured output of the delete_note tool
type DeleteNoteResult struct {
	OccupationURI string `json:"occupationUri"`
	NoteID        string `json:"noteId"`
	Deleted       bool   `json:"deleted"`
}

// StatsArgs represents the arguments for the taxonomy_stats tool
type StatsArgs struct{}

// StatsResult is the structured output of the taxonomy_stats tool
type StatsResult struct {
	Nodes []NodeCount `json:"nodes"`
	Edges []RelCount  `json:"edges"`
}
