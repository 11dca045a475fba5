package graph

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddEntity_DeduplicatesByNormalizedLabel(t *testing.T) {
	g := New("test-session")

	first := g.AddEntity("Paris", "city")
	second := g.AddEntity(" PARIS ", "country")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, g.NodeCount())

	node, ok := g.Node(first)
	require.True(t, ok)
	assert.Equal(t, "Paris", node.Label)
	assert.Equal(t, "city", node.EntityType())
}

func TestAddEntityWithStatus(t *testing.T) {
	g := New("test-session")

	id, status := g.AddEntityWithStatus("Go", "language")
	assert.Equal(t, StatusCreated, status)

	again, status := g.AddEntityWithStatus("go", "language")
	assert.Equal(t, StatusDeduplicated, status)
	assert.Equal(t, id, again)

	found, ok := g.EntityByLabel("  GO")
	require.True(t, ok)
	assert.Equal(t, id, found)
}

func TestAddPage(t *testing.T) {
	g := New("test-session")
	visited := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	id := g.AddPage("https://example.com", "Example Domain", visited)

	node, ok := g.Node(id)
	require.True(t, ok)
	assert.Equal(t, NodeTypePage, node.Type)
	assert.Equal(t, "Example Domain", node.Label)
	assert.Equal(t, "https://example.com", node.URL())
	assert.True(t, node.Timestamp.Equal(visited))

	indexed, ok := g.PageByURL("https://example.com")
	require.True(t, ok)
	assert.Equal(t, id, indexed)
}

func TestAddPage_EmptyTitleFallsBackToURL(t *testing.T) {
	g := New("test-session")

	id := g.AddPage("https://example.com/a", "", time.Time{})

	node, _ := g.Node(id)
	assert.Equal(t, "https://example.com/a", node.Label)
	assert.False(t, node.Timestamp.IsZero())
}

func TestAddPage_SameURLOrphansEarlierNode(t *testing.T) {
	g := New("test-session")

	first := g.AddPage("https://example.com", "v1", time.Now())
	second := g.AddPage("https://example.com", "v2", time.Now())

	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, g.NodeCount())

	indexed, ok := g.PageByURL("https://example.com")
	require.True(t, ok)
	assert.Equal(t, second, indexed)

	_, ok = g.Node(first)
	assert.True(t, ok, "earlier page node stays in storage")
}

func TestAddSnippet_Truncation(t *testing.T) {
	tests := []struct {
		name      string
		length    int
		truncated bool
	}{
		{name: "short", length: 10, truncated: false},
		{name: "exactly limit", length: 120, truncated: false},
		{name: "one over limit", length: 121, truncated: true},
		{name: "long", length: 500, truncated: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New("test-session")
			text := strings.Repeat("x", tt.length)

			id := g.AddSnippet(text, "page-1")
			node, ok := g.Node(id)
			require.True(t, ok)

			meta, ok := node.Metadata.(SnippetMeta)
			require.True(t, ok)
			assert.Equal(t, text, meta.FullText)
			assert.Equal(t, "page-1", meta.SourcePageID)

			if tt.truncated {
				assert.Equal(t, strings.Repeat("x", 120)+Ellipsis, node.Label)
			} else {
				assert.Equal(t, text, node.Label)
			}
		})
	}
}

func TestAddSnippet_TruncatesByCharacter(t *testing.T) {
	g := New("test-session")
	text := strings.Repeat("é", 130)

	id := g.AddSnippet(text, "")
	node, _ := g.Node(id)

	assert.Equal(t, strings.Repeat("é", 120)+Ellipsis, node.Label)
}

func TestAddEdge_DropsDanglingEdge(t *testing.T) {
	g := New("test-session")
	page := g.AddPage("https://example.com", "Example", time.Now())

	g.AddEdge("missing-a", "missing-b", "X")
	assert.Equal(t, 0, g.EdgeCount())

	assert.Equal(t, StatusDroppedMissingEndpoint, g.AddEdgeWithStatus(page, "missing", EdgeMentions))
	assert.Equal(t, StatusDroppedMissingEndpoint, g.AddEdgeWithStatus("missing", page, EdgeMentions))
	assert.Equal(t, 0, g.EdgeCount())
}

func TestAddEdge_KeepsDuplicates(t *testing.T) {
	g := New("test-session")
	page := g.AddPage("https://example.com", "Example", time.Now())
	entity := g.AddEntity("Go", "language")

	g.AddEdge(page, entity, EdgeMentions)
	g.AddEdge(page, entity, EdgeMentions)

	assert.Equal(t, 2, g.EdgeCount())
	topics := g.MainTopics(1)
	require.Len(t, topics, 1)
	assert.Equal(t, 2, topics[0].Degree)
}

func TestLinkRelatedEntities_PairwiseCompleteness(t *testing.T) {
	g := New("test-session")
	page := g.AddPage("https://example.com", "Example", time.Now())
	a := g.AddEntity("A", "concept")
	b := g.AddEntity("B", "concept")
	c := g.AddEntity("C", "concept")
	g.AddEdge(page, a, EdgeMentions)
	g.AddEdge(page, b, EdgeMentions)
	g.AddEdge(page, c, EdgeMentions)

	added := g.LinkRelatedEntities()
	assert.Equal(t, 6, added)

	var related []Edge
	for _, e := range g.Edges() {
		if e.Type == EdgeRelatedTo {
			related = append(related, e)
		}
	}
	assert.ElementsMatch(t, []Edge{
		{Source: a, Target: b, Type: EdgeRelatedTo},
		{Source: b, Target: a, Type: EdgeRelatedTo},
		{Source: a, Target: c, Type: EdgeRelatedTo},
		{Source: c, Target: a, Type: EdgeRelatedTo},
		{Source: b, Target: c, Type: EdgeRelatedTo},
		{Source: c, Target: b, Type: EdgeRelatedTo},
	}, related)
}

func TestLinkRelatedEntities_RunTwiceDoublesEdges(t *testing.T) {
	g := New("test-session")
	page := g.AddPage("https://example.com", "Example", time.Now())
	for _, label := range []string{"A", "B", "C"} {
		g.AddEdge(page, g.AddEntity(label, "concept"), EdgeMentions)
	}

	first := g.LinkRelatedEntities()
	second := g.LinkRelatedEntities()

	assert.Equal(t, 6, first)
	assert.Equal(t, 6, second)
	assert.Equal(t, 3+12, g.EdgeCount())
}

func TestLinkRelatedEntities_IgnoresNonPageSourcesAndSingleEntityPages(t *testing.T) {
	g := New("test-session")
	page := g.AddPage("https://example.com", "Example", time.Now())
	snippet := g.AddSnippet("some text", page)
	a := g.AddEntity("A", "concept")
	b := g.AddEntity("B", "concept")

	g.AddEdge(page, a, EdgeMentions)
	g.AddEdge(page, a, EdgeMentions)
	g.AddEdge(snippet, b, EdgeMentions)
	g.AddEdge(page, b, EdgeContains)

	assert.Equal(t, 0, g.LinkRelatedEntities())
}

func TestLinkRelatedEntities_SeparatePages(t *testing.T) {
	g := New("test-session")
	p1 := g.AddPage("https://example.com/1", "One", time.Now())
	p2 := g.AddPage("https://example.com/2", "Two", time.Now())
	a := g.AddEntity("A", "concept")
	b := g.AddEntity("B", "concept")
	c := g.AddEntity("C", "concept")

	g.AddEdge(p1, a, EdgeMentions)
	g.AddEdge(p1, b, EdgeMentions)
	g.AddEdge(p2, b, EdgeMentions)
	g.AddEdge(p2, c, EdgeMentions)

	assert.Equal(t, 4, g.LinkRelatedEntities())
}

func TestLinkPageEntities_OnlyThatPage(t *testing.T) {
	g := New("test-session")
	p1 := g.AddPage("https://example.com/1", "One", time.Now())
	a := g.AddEntity("A", "concept")
	b := g.AddEntity("B", "concept")
	g.AddEdge(p1, a, EdgeMentions)
	g.AddEdge(p1, b, EdgeMentions)
	assert.Equal(t, 2, g.LinkPageEntities(p1))

	p2 := g.AddPage("https://example.com/2", "Two", time.Now())
	c := g.AddEntity("C", "concept")
	g.AddEdge(p2, b, EdgeMentions)
	g.AddEdge(p2, c, EdgeMentions)
	assert.Equal(t, 2, g.LinkPageEntities(p2))

	assert.Equal(t, 0, g.LinkPageEntities("unknown"))
	assert.Equal(t, 4+4, g.EdgeCount())
}

func TestMainTopics_DegreeRankingIsDeterministic(t *testing.T) {
	g := New("test-session")
	page := g.AddPage("https://example.com", "Example", time.Now())
	b := g.AddEntity("B", "concept")
	c := g.AddEntity("C", "concept")
	a := g.AddEntity("A", "concept")

	for i := 0; i < 3; i++ {
		g.AddEdge(page, b, EdgeMentions)
	}
	for i := 0; i < 3; i++ {
		g.AddEdge(page, c, EdgeMentions)
	}
	for i := 0; i < 5; i++ {
		g.AddEdge(page, a, EdgeMentions)
	}

	top := g.MainTopics(2)
	require.Len(t, top, 2)
	assert.Equal(t, a, top[0].ID)
	assert.Equal(t, 5, top[0].Degree)
	assert.Equal(t, b, top[1].ID)
	assert.Equal(t, 3, top[1].Degree)

	all := g.MainTopics(10)
	require.Len(t, all, 3)
	assert.Equal(t, c, all[2].ID)
	assert.Equal(t, "concept", all[2].EntityType)
}

func TestMainTopics_SelfLoopCountsTwice(t *testing.T) {
	g := New("test-session")
	a := g.AddEntity("A", "concept")

	g.AddEdge(a, a, EdgeRelatedTo)

	top := g.MainTopics(DefaultTopN)
	require.Len(t, top, 1)
	assert.Equal(t, 2, top[0].Degree)
}

func TestMainTopics_NonPositiveLimitReturnsNothing(t *testing.T) {
	g := New("test-session")
	page := g.AddPage("https://example.com", "Example", time.Now())
	for _, label := range []string{"A", "B", "C"} {
		g.AddEdge(page, g.AddEntity(label, "concept"), EdgeMentions)
	}
	g.LinkRelatedEntities()

	for _, n := range []int{0, -1} {
		top := g.MainTopics(n)
		assert.NotNil(t, top)
		assert.Empty(t, top)
	}
}

func TestMainTopics_OnlyConnectedEntities(t *testing.T) {
	g := New("test-session")
	g.AddEntity("Lonely", "concept")
	page := g.AddPage("https://example.com", "Example", time.Now())
	g.AddEdge(page, g.AddEntity("Linked", "concept"), EdgeMentions)

	top := g.MainTopics(5)
	require.Len(t, top, 1)
	assert.Equal(t, "Linked", top[0].Label)
}

func TestSummary(t *testing.T) {
	g := New("test-session")
	page := g.AddPage("https://example.com", "Example", time.Now())
	g.AddPage("https://example.org", "Other", time.Now())
	for i := 0; i < 12; i++ {
		entity := g.AddEntity(strings.Repeat("e", i+1), "concept")
		g.AddEdge(page, entity, EdgeMentions)
	}
	g.AddSnippet("text", page)

	summary := g.Summary()
	assert.Equal(t, 2, summary.PageCount)
	assert.Equal(t, 12, summary.EntityCount)
	assert.Len(t, summary.TopEntities, SummaryTopN)
}

func TestSearch_OrderingAndTruncation(t *testing.T) {
	g := New("test-session")
	banana := g.AddEntity("Banana", "fruit")
	g.AddPage("https://apple.example", "apple", time.Now())
	apple := g.AddEntity("Apple", "company")

	results := g.Search("a", 2)
	require.Len(t, results, 2)
	assert.Equal(t, apple, results[0].ID)
	assert.Equal(t, NodeTypeEntity, results[0].Type)
	assert.Equal(t, banana, results[1].ID)
}

func TestSearch_LabelsOnly(t *testing.T) {
	g := New("test-session")
	g.AddSnippet(strings.Repeat("x", 130)+"needle", "page")
	g.AddPage("https://needle.example", "Haystack", time.Now())

	assert.Empty(t, g.Search("needle", 10))
	assert.Len(t, g.Search("HAYSTACK", 10), 1)
}

func TestSearch_EmptyQueryMatchesAll(t *testing.T) {
	g := New("test-session")
	g.AddEntity("A", "concept")
	g.AddPage("https://example.com", "Example", time.Now())
	g.AddSnippet("text", "")

	assert.Len(t, g.Search("", DefaultMaxResults), 3)
	assert.Len(t, g.Search("", 1), 1)
}

func TestSearch_NonPositiveLimitReturnsNothing(t *testing.T) {
	g := New("test-session")
	g.AddEntity("A", "concept")
	g.AddPage("https://example.com", "Example", time.Now())

	for _, n := range []int{0, -3} {
		results := g.Search("", n)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	}
}

func TestExportForVisualization_StatsConsistency(t *testing.T) {
	g := New("test-session")
	page := g.AddPage("https://example.com", "Example", time.Now())
	for _, label := range []string{"A", "B", "C"} {
		g.AddEdge(page, g.AddEntity(label, "concept"), EdgeMentions)
	}
	snippet := g.AddSnippet("text", page)
	g.AddEdge(page, snippet, EdgeContains)
	g.LinkRelatedEntities()
	g.AddEdge("missing", page, EdgeMentions)

	export := g.ExportForVisualization()
	assert.Equal(t, g.NodeCount(), export.Stats.Nodes)
	assert.Equal(t, g.EdgeCount(), export.Stats.Edges)
	assert.Equal(t, 5, export.Stats.Nodes)
	assert.Equal(t, 3+1+6, export.Stats.Edges)
	assert.Equal(t, 1, export.Stats.Pages)
	assert.Equal(t, 3, export.Stats.Entities)
	assert.Len(t, export.Nodes, 5)
	assert.Len(t, export.Edges, 10)
}

func TestExportForVisualization_JSONShape(t *testing.T) {
	g := New("test-session")
	page := g.AddPage("https://example.com", "Example", time.Now())
	g.AddSnippet("text", page)

	data, err := json.Marshal(g.ExportForVisualization())
	require.NoError(t, err)

	var decoded struct {
		Nodes []map[string]interface{} `json:"nodes"`
		Stats map[string]int           `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Nodes, 2)

	pageMeta := decoded.Nodes[0]["metadata"].(map[string]interface{})
	assert.Equal(t, "https://example.com", pageMeta["url"])
	snippetMeta := decoded.Nodes[1]["metadata"].(map[string]interface{})
	assert.Equal(t, page, snippetMeta["source_page_id"])
	assert.Equal(t, 2, decoded.Stats["nodes"])

	var export Export
	require.NoError(t, json.Unmarshal(data, &export))
	assert.Equal(t, PageMeta{URL: "https://example.com"}, export.Nodes[0].Metadata)
}
