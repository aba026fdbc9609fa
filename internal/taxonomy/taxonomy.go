package taxonomy

// Relation types carried on requires edges.
const (
	RelationEssential = "essential"
	RelationOptional  = "optional"
)

// Skill is a skill concept identified by a stable URI.
type Skill struct {
	URI         string `json:"uri"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	SkillType   string `json:"skillType,omitempty"`
}

// RequiredSkill is a skill attached to an occupation via a requires edge.
// RelationType classifies how necessary the skill is (essential or optional).
type RequiredSkill struct {
	URI          string `json:"uri"`
	Label        string `json:"label"`
	RelationType string `json:"relationType"`
	SkillType    string `json:"skillType,omitempty"`
}

// Occupation is an occupation concept with its structured relationships.
type Occupation struct {
	URI            string          `json:"uri"`
	Label          string          `json:"label"`
	Description    string          `json:"description,omitempty"`
	ISCOCode       string          `json:"iscoCode,omitempty"`
	RequiredSkills []RequiredSkill `json:"requiredSkills,omitempty"`
	GroupLabels    []string        `json:"groups,omitempty"`
	SchemeLabels   []string        `json:"schemes,omitempty"`
}

// OccupationGroup is a classification node in the ISCO-style hierarchy.
type OccupationGroup struct {
	URI   string `json:"uri"`
	Code  string `json:"code,omitempty"`
	Label string `json:"label"`
}

// SkillGroup is a classification node for skills.
type SkillGroup struct {
	URI   string `json:"uri"`
	Code  string `json:"code,omitempty"`
	Label string `json:"label"`
}

// ConceptScheme is a named collection occupations and skills belong to.
type ConceptScheme struct {
	URI   string `json:"uri"`
	Label string `json:"label"`
}

// SkillGap partitions an occupation's required skills against a user's
// skill set. Matched and Missing always cover the required set exactly.
type SkillGap struct {
	Matched         []RequiredSkill `json:"matchedSkills"`
	Missing         []RequiredSkill `json:"missingSkills"`
	MatchPercentage float64         `json:"matchPercentage"`
}

// RecommendationRequest carries one recommendation query.
type RecommendationRequest struct {
	SkillURIs  []string `json:"skills" validate:"required,min=1,dive,required"`
	GroupURIs  []string `json:"occupationGroups,omitempty"`
	SchemeURIs []string `json:"schemes,omitempty"`
	Limit      int      `json:"limit" validate:"min=1,max=100"`
}

// HasFilters reports whether any group or scheme filter is set.
func (r RecommendationRequest) HasFilters() bool {
	return len(r.GroupURIs) > 0 || len(r.SchemeURIs) > 0
}

// RecommendationResult is one ranked candidate with its skill-gap data.
type RecommendationResult struct {
	Occupation      Occupation      `json:"occupation"`
	SimilarityScore float64         `json:"similarityScore"`
	Matched         []RequiredSkill `json:"matchedSkills"`
	Missing         []RequiredSkill `json:"missingSkills"`
	MatchPercentage float64         `json:"matchPercentage"`
}

// OccupationSkillGap is the skill-gap view for one target occupation,
// split by relation type for presentation.
type OccupationSkillGap struct {
	OccupationURI   string          `json:"occupationUri"`
	OccupationLabel string          `json:"occupationLabel"`
	ISCOCode        string          `json:"iscoCode,omitempty"`
	EssentialSkills []GapSkill      `json:"essentialSkills"`
	OptionalSkills  []GapSkill      `json:"optionalSkills"`
	MatchPercentage float64         `json:"matchPercentage"`
}

// GapSkill is one required skill annotated with possession.
type GapSkill struct {
	URI       string `json:"uri"`
	Label     string `json:"label"`
	SkillType string `json:"skillType,omitempty"`
	Matched   bool   `json:"matched"`
}

// Note is an editorial annotation attached to one or more occupations.
// Timestamps are the store's DATETIME text representation.
type Note struct {
	OccupationURI   string `json:"occupationUri"`
	OccupationLabel string `json:"occupationLabel,omitempty"`
	NoteID          string `json:"noteId"`
	Text            string `json:"text"`
	CreatedAt       string `json:"createdAt,omitempty"`
	UpdatedAt       string `json:"updatedAt,omitempty"`
}

// NotePage is one page of note search results with the unpaginated total.
type NotePage struct {
	Total int    `json:"total"`
	Notes []Note `json:"notes"`
}

// NodeCount is a diagnostics row: entity count by kind.
type NodeCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// RelCount is a diagnostics row: edge count by relation type.
type RelCount struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}
