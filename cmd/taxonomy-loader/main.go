// Command taxonomy-loader ingests ESCO-style CSV exports into the taxonomy
// store and optionally builds the occupation vector index artifact.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/skillcompass/skillcompass-go/internal/embeddings"
	"github.com/skillcompass/skillcompass-go/internal/graphstore"
	"github.com/skillcompass/skillcompass-go/internal/taxonomy"
	"github.com/skillcompass/skillcompass-go/internal/vectorindex"
)

var (
	dataDir     = flag.String("data-dir", "./data", "Directory holding the taxonomy CSV exports")
	libsqlURL   = flag.String("libsql-url", "", "libSQL database URL (default: file:./taxonomy.db)")
	authToken   = flag.String("auth-token", "", "Authentication token for remote databases")
	buildIndex  = flag.Bool("build-index", false, "Embed occupations and write the vector index artifact")
	vectorPath  = flag.String("vector-path", "./index/occupations.scvx", "Output path for the vector file")
	mappingPath = flag.String("mapping-path", "./index/occupations.csv", "Output path for the row mapping file")
	embedBatch  = flag.Int("embed-batch", 64, "Occupations to embed per provider call")
)

// csvFile describes one expected export: file name and header columns.
type csvFile struct {
	name    string
	columns []string
}

var (
	occupationsFile = csvFile{"occupations.csv", []string{"conceptUri", "preferredLabel", "description", "iscoGroup"}}
	skillsFile      = csvFile{"skills.csv", []string{"conceptUri", "preferredLabel", "description", "skillType"}}
	relationsFile   = csvFile{"occupation_skill_relations.csv", []string{"occupationUri", "relationType", "skillUri"}}
	occGroupsFile   = csvFile{"occupation_groups.csv", []string{"conceptUri", "code", "preferredLabel"}}
	skillGroupsFile = csvFile{"skill_groups.csv", []string{"conceptUri", "code", "preferredLabel"}}
	schemesFile     = csvFile{"concept_schemes.csv", []string{"conceptUri", "preferredLabel"}}
	broaderFile     = csvFile{"broader_relations.csv", []string{"narrowerUri", "broaderUri"}}
	membershipFile  = csvFile{"group_memberships.csv", []string{"memberUri", "groupUri"}}
	schemeMembFile  = csvFile{"scheme_members.csv", []string{"memberUri", "schemeUri"}}
)

// readCSV streams rows of the given export, validating the header. Missing
// optional files return (nil, nil) so partial exports still load.
func readCSV(dir string, f csvFile, required bool) ([][]string, error) {
	path := filepath.Join(dir, f.name)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", f.name, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(f.columns)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s header: %w", f.name, err)
	}
	for i, col := range f.columns {
		if !strings.EqualFold(strings.TrimSpace(header[i]), col) {
			return nil, fmt.Errorf("%s: expected column %d to be %q, got %q", f.name, i, col, header[i])
		}
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.name, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func loadTaxonomy(ctx context.Context, logger zerolog.Logger, store *graphstore.Store, dir string) error {
	occRows, err := readCSV(dir, occupationsFile, true)
	if err != nil {
		return err
	}
	occupations := make([]taxonomy.Occupation, 0, len(occRows))
	for _, row := range occRows {
		occupations = append(occupations, taxonomy.Occupation{
			URI:         row[0],
			Label:       row[1],
			Description: row[2],
			ISCOCode:    row[3],
		})
	}
	if err := store.PutOccupations(ctx, occupations); err != nil {
		return err
	}
	logger.Info().Int("count", len(occupations)).Msg("occupations loaded")

	skillRows, err := readCSV(dir, skillsFile, true)
	if err != nil {
		return err
	}
	skills := make([]taxonomy.Skill, 0, len(skillRows))
	for _, row := range skillRows {
		skills = append(skills, taxonomy.Skill{
			URI:         row[0],
			Label:       row[1],
			Description: row[2],
			SkillType:   row[3],
		})
	}
	if err := store.PutSkills(ctx, skills); err != nil {
		return err
	}
	logger.Info().Int("count", len(skills)).Msg("skills loaded")

	relRows, err := readCSV(dir, relationsFile, true)
	if err != nil {
		return err
	}
	requires := make([]graphstore.RequiresEdge, 0, len(relRows))
	for _, row := range relRows {
		requires = append(requires, graphstore.RequiresEdge{
			OccupationURI: row[0],
			RelationType:  row[1],
			SkillURI:      row[2],
		})
	}
	if err := store.PutRequires(ctx, requires); err != nil {
		return err
	}
	logger.Info().Int("count", len(requires)).Msg("skill requirements loaded")

	groupRows, err := readCSV(dir, occGroupsFile, false)
	if err != nil {
		return err
	}
	if len(groupRows) > 0 {
		groups := make([]taxonomy.OccupationGroup, 0, len(groupRows))
		for _, row := range groupRows {
			groups = append(groups, taxonomy.OccupationGroup{URI: row[0], Code: row[1], Label: row[2]})
		}
		if err := store.PutOccupationGroups(ctx, groups); err != nil {
			return err
		}
		logger.Info().Int("count", len(groups)).Msg("occupation groups loaded")
	}

	sgRows, err := readCSV(dir, skillGroupsFile, false)
	if err != nil {
		return err
	}
	if len(sgRows) > 0 {
		groups := make([]taxonomy.SkillGroup, 0, len(sgRows))
		for _, row := range sgRows {
			groups = append(groups, taxonomy.SkillGroup{URI: row[0], Code: row[1], Label: row[2]})
		}
		if err := store.PutSkillGroups(ctx, groups); err != nil {
			return err
		}
		logger.Info().Int("count", len(groups)).Msg("skill groups loaded")
	}

	schemeRows, err := readCSV(dir, schemesFile, false)
	if err != nil {
		return err
	}
	if len(schemeRows) > 0 {
		schemes := make([]taxonomy.ConceptScheme, 0, len(schemeRows))
		for _, row := range schemeRows {
			schemes = append(schemes, taxonomy.ConceptScheme{URI: row[0], Label: row[1]})
		}
		if err := store.PutConceptSchemes(ctx, schemes); err != nil {
			return err
		}
		logger.Info().Int("count", len(schemes)).Msg("concept schemes loaded")
	}

	broaderRows, err := readCSV(dir, broaderFile, false)
	if err != nil {
		return err
	}
	if len(broaderRows) > 0 {
		edges := make([]graphstore.BroaderEdge, 0, len(broaderRows))
		for _, row := range broaderRows {
			edges = append(edges, graphstore.BroaderEdge{NarrowerURI: row[0], BroaderURI: row[1]})
		}
		if err := store.PutBroaderEdges(ctx, edges); err != nil {
			return err
		}
		logger.Info().Int("count", len(edges)).Msg("broader relations loaded")
	}

	membRows, err := readCSV(dir, membershipFile, false)
	if err != nil {
		return err
	}
	if len(membRows) > 0 {
		edges := make([]graphstore.MembershipEdge, 0, len(membRows))
		for _, row := range membRows {
			edges = append(edges, graphstore.MembershipEdge{MemberURI: row[0], ContainerURI: row[1]})
		}
		if err := store.PutOccupationGroupMembers(ctx, edges); err != nil {
			return err
		}
		logger.Info().Int("count", len(edges)).Msg("group memberships loaded")
	}

	smRows, err := readCSV(dir, schemeMembFile, false)
	if err != nil {
		return err
	}
	if len(smRows) > 0 {
		edges := make([]graphstore.MembershipEdge, 0, len(smRows))
		for _, row := range smRows {
			edges = append(edges, graphstore.MembershipEdge{MemberURI: row[0], ContainerURI: row[1]})
		}
		if err := store.PutSchemeMembers(ctx, edges); err != nil {
			return err
		}
		logger.Info().Int("count", len(edges)).Msg("scheme members loaded")
	}

	return nil
}

// occupationText builds the embedding text for one occupation: its label
// plus the labels of its required skills, so the vector lives in the same
// space as user skill profiles.
func occupationText(occ *taxonomy.Occupation) string {
	parts := make([]string, 0, len(occ.RequiredSkills)+1)
	parts = append(parts, occ.Label)
	for _, rs := range occ.RequiredSkills {
		parts = append(parts, rs.Label)
	}
	return strings.Join(parts, ". ")
}

func buildIndexArtifact(ctx context.Context, logger zerolog.Logger, store *graphstore.Store, provider embeddings.Provider, batchSize int) error {
	occRows, err := readCSV(*dataDir, occupationsFile, true)
	if err != nil {
		return err
	}
	uris := make([]string, 0, len(occRows))
	for _, row := range occRows {
		uris = append(uris, row[0])
	}
	byURI, err := store.FetchCandidates(ctx, uris, graphstore.FilterSet{})
	if err != nil {
		return err
	}

	entries := make([]vectorindex.Entry, 0, len(byURI))
	batch := make([]*taxonomy.Occupation, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		texts := make([]string, len(batch))
		for i, occ := range batch {
			texts[i] = occupationText(occ)
		}
		vecs, err := provider.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed occupation batch: %w", err)
		}
		if len(vecs) != len(batch) {
			return fmt.Errorf("provider returned %d vectors for %d occupations", len(vecs), len(batch))
		}
		for i, occ := range batch {
			entries = append(entries, vectorindex.Entry{
				URI:    occ.URI,
				Label:  occ.Label,
				Vector: embeddings.L2Normalize(vecs[i]),
			})
		}
		batch = batch[:0]
		return nil
	}

	for _, uri := range uris {
		occ, ok := byURI[uri]
		if !ok {
			continue
		}
		batch = append(batch, occ)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
			logger.Info().Int("embedded", len(entries)).Msg("index build progress")
		}
	}
	if err := flush(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(*vectorPath), 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}
	if err := vectorindex.WriteArtifact(*vectorPath, *mappingPath, entries); err != nil {
		return err
	}
	logger.Info().
		Int("vectors", len(entries)).
		Str("vector_path", *vectorPath).
		Str("mapping_path", *mappingPath).
		Msg("index artifact written")
	return nil
}

func main() {
	flag.Parse()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg := graphstore.NewConfig()
	if *libsqlURL != "" {
		cfg.URL = *libsqlURL
	}
	if *authToken != "" {
		cfg.AuthToken = *authToken
	}

	store, err := graphstore.NewStore(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open taxonomy store")
	}
	defer store.Close()

	ctx := context.Background()
	if err := loadTaxonomy(ctx, logger, store, *dataDir); err != nil {
		logger.Fatal().Err(err).Msg("taxonomy load failed")
	}

	if *buildIndex {
		provider := embeddings.NewFromEnv()
		if provider == nil {
			logger.Fatal().Msg("index build requires an embedding provider (set EMBEDDINGS_PROVIDER)")
		}
		if err := buildIndexArtifact(ctx, logger, store, provider, *embedBatch); err != nil {
			logger.Fatal().Err(err).Msg("index build failed")
		}
	}

	logger.Info().Msg("done")
}
