package graphstore

import (
	"fmt"
	"strings"
)

// maxBroaderDepth bounds transitive traversal over broader edges. Five hops
// covers the deepest ISCO-style hierarchy in the source data.
const maxBroaderDepth = 5

// FilterSet holds the optional hierarchical filters of one query.
type FilterSet struct {
	GroupURIs  []string
	SchemeURIs []string
}

// Empty reports whether no filter is set.
func (f FilterSet) Empty() bool {
	return len(f.GroupURIs) == 0 && len(f.SchemeURIs) == 0
}

// groupStrategy enumerates the redundant ways an occupation can be matched
// to a filter group. The source data represents hierarchy inconsistently:
// some branches only have broader edges, others only agree on numeric code
// prefixes, so all three strategies are evaluated with a logical OR. This
// is a data-quality compensation, not a canonical hierarchy model.
type groupStrategy int

const (
	groupDirect groupStrategy = iota
	groupTransitive
	groupCodePrefix
)

var allGroupStrategies = []groupStrategy{groupDirect, groupTransitive, groupCodePrefix}

// predicate is one composable WHERE fragment with its bound parameters.
// Filters are always parameterized; URIs never end up concatenated into SQL.
type predicate struct {
	sql  string
	args []interface{}
}

// groupPredicate builds the fragment for one match strategy against the
// occupation aliased as "o".
func groupPredicate(strategy groupStrategy, groupURIs []string) predicate {
	ph := placeholders(len(groupURIs))
	switch strategy {
	case groupDirect:
		return predicate{
			sql: fmt.Sprintf(`EXISTS (
                SELECT 1 FROM occupation_group_members m
                WHERE m.occupation_uri = o.uri AND m.group_uri IN (%s)
            )`, ph),
			args: stringArgs(groupURIs),
		}
	case groupTransitive:
		// group_reach is the bounded-depth closure CTE emitted by
		// candidateQuery; depth >= 1 keeps this fragment disjoint from
		// the direct-membership strategy.
		return predicate{
			sql: `EXISTS (
                SELECT 1 FROM occupation_group_members m
                WHERE m.occupation_uri = o.uri
                AND m.group_uri IN (SELECT uri FROM group_reach WHERE depth >= 1)
            )`,
		}
	case groupCodePrefix:
		// A filter group's code matching as a prefix of the membership
		// group's code (e.g. C21 covers C214). Codes are resolved from
		// the groups table, never parsed out of URIs.
		return predicate{
			sql: fmt.Sprintf(`EXISTS (
                SELECT 1 FROM occupation_group_members m
                JOIN occupation_groups g ON g.uri = m.group_uri
                JOIN occupation_groups f ON f.uri IN (%s)
                WHERE m.occupation_uri = o.uri
                AND f.code IS NOT NULL AND f.code != ''
                AND g.code LIKE f.code || '%%'
            )`, ph),
			args: stringArgs(groupURIs),
		}
	}
	return predicate{sql: "0"}
}

// schemePredicate builds the scheme membership fragment.
func schemePredicate(schemeURIs []string) predicate {
	return predicate{
		sql: fmt.Sprintf(`EXISTS (
            SELECT 1 FROM scheme_members sm
            WHERE sm.member_uri = o.uri AND sm.scheme_uri IN (%s)
        )`, placeholders(len(schemeURIs))),
		args: stringArgs(schemeURIs),
	}
}

// reachCTE emits the recursive closure of the filter groups downwards: all
// groups that reach a filter group via broader edges within the bounded
// depth, seeded with the filter groups themselves at depth 0.
func reachCTE(groupURIs []string) predicate {
	return predicate{
		sql: fmt.Sprintf(`WITH RECURSIVE group_reach(uri, depth) AS (
            SELECT uri, 0 FROM occupation_groups WHERE uri IN (%s)
            UNION ALL
            SELECT gb.narrower_uri, gr.depth + 1
            FROM group_broader gb
            JOIN group_reach gr ON gb.broader_uri = gr.uri
            WHERE gr.depth < %d
        )`, placeholders(len(groupURIs)), maxBroaderDepth),
		args: stringArgs(groupURIs),
	}
}

// candidateQuery composes the bulk candidate fetch for the given URIs and
// filters into one parameterized statement.
func candidateQuery(uris []string, filter FilterSet) (string, []interface{}) {
	var sb strings.Builder
	var args []interface{}

	if len(filter.GroupURIs) > 0 {
		cte := reachCTE(filter.GroupURIs)
		sb.WriteString(cte.sql)
		sb.WriteString("\n")
		args = append(args, cte.args...)
	}

	sb.WriteString("SELECT o.uri, o.label, o.description, o.isco_code FROM occupations o\n")
	sb.WriteString(fmt.Sprintf("WHERE o.uri IN (%s)\n", placeholders(len(uris))))
	args = append(args, stringArgs(uris)...)

	if len(filter.GroupURIs) > 0 {
		parts := make([]string, 0, len(allGroupStrategies))
		for _, strategy := range allGroupStrategies {
			p := groupPredicate(strategy, filter.GroupURIs)
			parts = append(parts, p.sql)
			args = append(args, p.args...)
		}
		sb.WriteString("AND (")
		sb.WriteString(strings.Join(parts, " OR "))
		sb.WriteString(")\n")
	}

	if len(filter.SchemeURIs) > 0 {
		p := schemePredicate(filter.SchemeURIs)
		sb.WriteString("AND ")
		sb.WriteString(p.sql)
		sb.WriteString("\n")
		args = append(args, p.args...)
	}

	return sb.String(), args
}
