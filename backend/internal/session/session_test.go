package session

import (
	"strings"
	"sync"
	"testing"
	"time"

	"continuum/backend/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreStartAndGet(t *testing.T) {
	s := NewStore()

	sess := s.Start("", "write report")
	assert.True(t, strings.HasPrefix(sess.ID, "session_"))
	assert.Equal(t, "default", sess.UserID)

	got, ok := s.Get(sess.ID)
	require.True(t, ok)
	assert.Same(t, sess, got)

	info := got.Info()
	assert.Equal(t, "write report", info.CurrentTask)
	assert.Nil(t, info.EndTime)
	assert.Equal(t, graph.Stats{}, info.Stats)
}

func TestStoreSessionsHaveIndependentGraphs(t *testing.T) {
	s := NewStore()
	a := s.Start("alice", "")
	b := s.Start("bob", "")

	a.Do(func(g *graph.KnowledgeGraph) {
		g.AddEntity("Paris", "city")
	})

	assert.Equal(t, 1, a.Info().Stats.Nodes)
	assert.Equal(t, 0, b.Info().Stats.Nodes)
}

func TestSessionUpdate(t *testing.T) {
	s := NewStore()
	sess := s.Start("alice", "first")

	sess.Update(nil, []string{"read docs"})
	task := "second"
	sess.Update(&task, []string{"wrote code"})

	info := sess.Info()
	assert.Equal(t, "second", info.CurrentTask)
	assert.Equal(t, []string{"read docs", "wrote code"}, info.Activities)
}

func TestSessionConversation(t *testing.T) {
	s := NewStore()
	sess := s.Start("alice", "")

	sess.AppendConversation(Message{Type: "user", Text: "hi"}, Message{Type: "ai", Text: "hello"})
	sess.AppendConversation(Message{Type: "user", Text: "what next?"})

	recent := sess.RecentConversation(2)
	assert.Equal(t, []Message{{Type: "ai", Text: "hello"}, {Type: "user", Text: "what next?"}}, recent)
	assert.True(t, recent[1].IsUser())
	assert.False(t, recent[0].IsUser())
	assert.Len(t, sess.RecentConversation(10), 3)

	sess.SetConversation([]Message{{Type: "user", Text: "reset"}})
	assert.Equal(t, []Message{{Type: "user", Text: "reset"}}, sess.Info().ConversationHistory)
}

func TestStoreEnd(t *testing.T) {
	s := NewStore()
	sess := s.Start("alice", "")

	ended, ok := s.End(sess.ID)
	require.True(t, ok)
	assert.NotNil(t, ended.Info().EndTime)
	assert.Equal(t, 0, s.Len())

	_, ok = s.Get(sess.ID)
	assert.False(t, ok)

	_, ok = s.End(sess.ID)
	assert.False(t, ok)
}

func TestStoreList(t *testing.T) {
	s := NewStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first := s.Start("a", "")
	second := s.Start("b", "")

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}

func TestStoreSweep(t *testing.T) {
	s := NewStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	idle := s.Start("a", "")
	active := s.Start("b", "")

	now = now.Add(time.Hour)
	active.Do(func(g *graph.KnowledgeGraph) {})

	expired := s.Sweep(30 * time.Minute)
	require.Len(t, expired, 1)
	assert.Equal(t, idle.ID, expired[0].ID)

	_, ok := s.Get(active.ID)
	assert.True(t, ok)
	assert.Nil(t, s.Sweep(0))
}

func TestJanitorRunOnce(t *testing.T) {
	s := NewStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	sess := s.Start("a", "")
	now = now.Add(time.Hour)

	var expired []string
	j, err := NewJanitor(s, "@every 1m", time.Minute, func(ended *Session) {
		expired = append(expired, ended.ID)
	})
	require.NoError(t, err)

	j.RunOnce()
	assert.Equal(t, []string{sess.ID}, expired)
	assert.Equal(t, 0, s.Len())
}

func TestJanitorInvalidSchedule(t *testing.T) {
	_, err := NewJanitor(NewStore(), "not a schedule", time.Minute, nil)
	assert.Error(t, err)
}

func TestSessionConcurrentAccess(t *testing.T) {
	s := NewStore()
	sess := s.Start("a", "")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess.Do(func(g *graph.KnowledgeGraph) {
				page := g.AddPage("https://example.com", "Example", time.Time{})
				g.AddEdge(page, g.AddEntity("Go", "language"), graph.EdgeMentions)
			})
		}()
	}
	wg.Wait()

	var stats graph.Stats
	sess.View(func(g *graph.KnowledgeGraph) {
		stats = g.Stats()
	})
	assert.Equal(t, 21, stats.Nodes)
	assert.Equal(t, 20, stats.Edges)
}
