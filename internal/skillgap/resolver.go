// Package skillgap partitions an occupation's required skills against a
// user's skill set. The comparison is purely set-based over URIs; semantic
// closeness between distinct skills is the ranking layer's concern.
package skillgap

import (
	"github.com/skillcompass/skillcompass-go/internal/taxonomy"
)

// Resolve splits required into matched and missing against the user's
// skill URIs. Every required skill lands in exactly one of the two slices,
// in its original order. MatchPercentage is matched over required in
// percent; an occupation with no required skills scores 0.0, not 100.
func Resolve(userSkillURIs []string, required []taxonomy.RequiredSkill) taxonomy.SkillGap {
	owned := make(map[string]struct{}, len(userSkillURIs))
	for _, uri := range userSkillURIs {
		owned[uri] = struct{}{}
	}

	gap := taxonomy.SkillGap{
		Matched: make([]taxonomy.RequiredSkill, 0, len(required)),
		Missing: make([]taxonomy.RequiredSkill, 0, len(required)),
	}
	for _, rs := range required {
		if _, ok := owned[rs.URI]; ok {
			gap.Matched = append(gap.Matched, rs)
		} else {
			gap.Missing = append(gap.Missing, rs)
		}
	}

	if len(required) > 0 {
		gap.MatchPercentage = float64(len(gap.Matched)) / float64(len(required)) * 100.0
	}
	return gap
}

// ForOccupation builds the per-occupation gap view split by relation type.
func ForOccupation(occ *taxonomy.Occupation, userSkillURIs []string) taxonomy.OccupationSkillGap {
	owned := make(map[string]struct{}, len(userSkillURIs))
	for _, uri := range userSkillURIs {
		owned[uri] = struct{}{}
	}

	view := taxonomy.OccupationSkillGap{
		OccupationURI:   occ.URI,
		OccupationLabel: occ.Label,
		ISCOCode:        occ.ISCOCode,
		EssentialSkills: []taxonomy.GapSkill{},
		OptionalSkills:  []taxonomy.GapSkill{},
	}

	matched := 0
	for _, rs := range occ.RequiredSkills {
		_, ok := owned[rs.URI]
		if ok {
			matched++
		}
		gs := taxonomy.GapSkill{URI: rs.URI, Label: rs.Label, SkillType: rs.SkillType, Matched: ok}
		if rs.RelationType == taxonomy.RelationOptional {
			view.OptionalSkills = append(view.OptionalSkills, gs)
		} else {
			view.EssentialSkills = append(view.EssentialSkills, gs)
		}
	}

	if len(occ.RequiredSkills) > 0 {
		view.MatchPercentage = float64(matched) / float64(len(occ.RequiredSkills)) * 100.0
	}
	return view
}
