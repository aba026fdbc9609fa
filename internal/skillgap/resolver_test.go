package skillgap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillcompass/skillcompass-go/internal/taxonomy"
)

func TestResolvePartialMatch(t *testing.T) {
	required := []taxonomy.RequiredSkill{
		{URI: "skill:python", Label: "python", RelationType: taxonomy.RelationEssential},
		{URI: "skill:sql", Label: "SQL", RelationType: taxonomy.RelationEssential},
		{URI: "skill:docker", Label: "docker", RelationType: taxonomy.RelationOptional},
		{URI: "skill:k8s", Label: "kubernetes", RelationType: taxonomy.RelationOptional},
	}

	gap := Resolve([]string{"skill:python", "skill:sql", "skill:go"}, required)

	require.Len(t, gap.Matched, 2)
	require.Len(t, gap.Missing, 2)
	assert.Equal(t, "skill:python", gap.Matched[0].URI)
	assert.Equal(t, "skill:sql", gap.Matched[1].URI)
	assert.Equal(t, "skill:docker", gap.Missing[0].URI)
	assert.Equal(t, "skill:k8s", gap.Missing[1].URI)
	assert.InDelta(t, 50.0, gap.MatchPercentage, 1e-9)
}

func TestResolveNoRequiredSkills(t *testing.T) {
	gap := Resolve([]string{"skill:python"}, nil)

	assert.Empty(t, gap.Matched)
	assert.Empty(t, gap.Missing)
	assert.Equal(t, 0.0, gap.MatchPercentage, "no requirements means zero, not a hundred")
}

func TestResolveCoversRequiredExactly(t *testing.T) {
	required := []taxonomy.RequiredSkill{
		{URI: "skill:a", Label: "a"},
		{URI: "skill:b", Label: "b"},
		{URI: "skill:c", Label: "c"},
	}

	gap := Resolve([]string{"skill:b"}, required)

	// Union of matched and missing must be exactly the required set.
	seen := make(map[string]bool)
	for _, rs := range append(gap.Matched, gap.Missing...) {
		seen[rs.URI] = true
	}
	assert.Len(t, seen, len(required))
	for _, rs := range required {
		assert.True(t, seen[rs.URI])
	}
}

func TestResolveFullMatch(t *testing.T) {
	required := []taxonomy.RequiredSkill{
		{URI: "skill:a", Label: "a"},
		{URI: "skill:b", Label: "b"},
	}

	gap := Resolve([]string{"skill:a", "skill:b", "skill:extra"}, required)

	assert.Len(t, gap.Matched, 2)
	assert.Empty(t, gap.Missing)
	assert.InDelta(t, 100.0, gap.MatchPercentage, 1e-9)
}

func TestForOccupationSplitsByRelation(t *testing.T) {
	occ := &taxonomy.Occupation{
		URI:      "occ:dev",
		Label:    "software developer",
		ISCOCode: "2512",
		RequiredSkills: []taxonomy.RequiredSkill{
			{URI: "skill:python", Label: "python", RelationType: taxonomy.RelationEssential},
			{URI: "skill:sql", Label: "SQL", RelationType: taxonomy.RelationEssential},
			{URI: "skill:docker", Label: "docker", RelationType: taxonomy.RelationOptional},
		},
	}

	view := ForOccupation(occ, []string{"skill:python", "skill:docker"})

	assert.Equal(t, "occ:dev", view.OccupationURI)
	require.Len(t, view.EssentialSkills, 2)
	require.Len(t, view.OptionalSkills, 1)
	assert.True(t, view.EssentialSkills[0].Matched)
	assert.False(t, view.EssentialSkills[1].Matched)
	assert.True(t, view.OptionalSkills[0].Matched)
	assert.InDelta(t, 200.0/3.0, view.MatchPercentage, 1e-9)
}

func TestForOccupationEmptyRequirements(t *testing.T) {
	occ := &taxonomy.Occupation{URI: "occ:x", Label: "x"}

	view := ForOccupation(occ, []string{"skill:a"})

	assert.Empty(t, view.EssentialSkills)
	assert.Empty(t, view.OptionalSkills)
	assert.Equal(t, 0.0, view.MatchPercentage)
}
