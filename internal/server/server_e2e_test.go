package server

import (
	"context"
	"fmt"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/skillcompass/skillcompass-go/internal/graphstore"
	"github.com/skillcompass/skillcompass-go/internal/recommend"
	"github.com/skillcompass/skillcompass-go/internal/taxonomy"
	"github.com/skillcompass/skillcompass-go/internal/vectorindex"
)

// pickFreePort tries to get a free TCP port on 127.0.0.1
func pickFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

type fixedProvider struct{}

func (fixedProvider) Name() string    { return "fixed" }
func (fixedProvider) Model() string   { return "fixed-model" }
func (fixedProvider) Dimensions() int { return 4 }

func (fixedProvider) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = []float32{1, 0, 0, 0}
	}
	return out, nil
}

func newE2EServer(t *testing.T) *MCPServer {
	t.Helper()

	cfg := graphstore.NewConfig()
	cfg.URL = "file:test-e2e?mode=memory&cache=shared"
	store, err := graphstore.NewStore(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, store.PutOccupations(ctx, []taxonomy.Occupation{
		{URI: "occ:dev", Label: "software developer"},
	}))
	require.NoError(t, store.PutSkills(ctx, []taxonomy.Skill{
		{URI: "skill:python", Label: "python"},
	}))
	require.NoError(t, store.PutRequires(ctx, []graphstore.RequiresEdge{
		{OccupationURI: "occ:dev", SkillURI: "skill:python", RelationType: taxonomy.RelationEssential},
	}))

	dir := t.TempDir()
	vectorPath := filepath.Join(dir, "index.scvx")
	mappingPath := filepath.Join(dir, "mapping.csv")
	require.NoError(t, vectorindex.WriteArtifact(vectorPath, mappingPath, []vectorindex.Entry{
		{URI: "occ:dev", Label: "software developer", Vector: []float32{1, 0, 0, 0}},
	}))
	ix, err := vectorindex.Load(vectorPath, mappingPath)
	require.NoError(t, err)

	engine := recommend.NewEngine(&recommend.Resources{
		Store:    store,
		Index:    ix,
		Provider: fixedProvider{},
	})
	return NewMCPServer(engine, store)
}

func TestSSEServer_ListTools(t *testing.T) {
	srv := newE2EServer(t)

	port, err := pickFreePort()
	require.NoError(t, err)
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	endpoint := "/sse"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// start SSE server
	go func() { _ = srv.RunSSE(ctx, addr, endpoint) }()

	// wait briefly for server to bind
	time.Sleep(150 * time.Millisecond)

	// connect with MCP SSE client
	client := mcp.NewClient(&mcp.Implementation{Name: "e2e-client", Version: "test"}, nil)
	transport := mcp.NewSSEClientTransport("http://"+addr+endpoint, nil)

	// retry connect a few times to avoid flakes
	var session *mcp.ClientSession
	for i := 0; i < 5; i++ {
		session, err = client.Connect(ctx, transport)
		if err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)
	require.Len(t, tools.Tools, 8)
}
