package overlay

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu        sync.Mutex
	snapshots [][]string
}

func (r *recorder) notify(components []*Component) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, names(components))
}

func (r *recorder) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}

func names(components []*Component) []string {
	out := make([]string, 0, len(components))
	for _, c := range components {
		out = append(out, c.Name())
	}
	return out
}

func mustNew(t *testing.T, typ Type, name string) *Component {
	t.Helper()
	c, err := New(typ, name)
	require.NoError(t, err)
	return c
}

func textComponent(t *testing.T, name, text string) *Component {
	t.Helper()
	c := mustNew(t, TypeText, name)
	v, ok := c.Value("Text")
	require.True(t, ok)
	require.NoError(t, v.Set(text))
	return c
}

func TestState_AddThenRemoveRestoresEmptyList(t *testing.T) {
	rec := &recorder{}
	s := NewState(rec.notify)

	require.NoError(t, s.Add(mustNew(t, TypeText, "A")))
	require.NoError(t, s.Remove("A"))

	assert.Empty(t, s.List())
	assert.Equal(t, [][]string{{"A"}, {}}, rec.snapshots)
}

func TestState_AddPreservesInsertionOrder(t *testing.T) {
	s := NewState(nil)

	require.NoError(t, s.Add(textComponent(t, "First", "hello")))
	require.NoError(t, s.Add(textComponent(t, "Second", "world")))

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, []string{"First", "Second"}, names(list))

	first, _ := list[0].Value("Text")
	second, _ := list[1].Value("Text")
	assert.Equal(t, "hello", first.Text())
	assert.Equal(t, "world", second.Text())
}

func TestState_RemoveNonexistentLeavesListUntouched(t *testing.T) {
	rec := &recorder{}
	s := NewState(rec.notify)
	require.NoError(t, s.Add(mustNew(t, TypeText, "A")))
	require.NoError(t, s.Add(mustNew(t, TypeImage, "B")))

	err := s.Remove("missing")

	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []string{"A", "B"}, names(s.List()))
	assert.Equal(t, 2, rec.calls())
}

func TestState_RemoveIsCaseInsensitive(t *testing.T) {
	s := NewState(nil)
	require.NoError(t, s.Add(mustNew(t, TypeHTML, "Banner")))

	require.NoError(t, s.Remove("bAnNeR"))
	assert.Empty(t, s.List())
}

func TestState_ClearEmptiesRegardlessOfSize(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		rec := &recorder{}
		s := NewState(rec.notify)
		for range n {
			require.NoError(t, s.Add(mustNew(t, TypeText, s.NextName(TypeText))))
		}

		s.Clear()

		assert.Empty(t, s.List())
		assert.Equal(t, n+1, rec.calls())
	}
}

func TestState_AddRejectsDuplicateName(t *testing.T) {
	s := NewState(nil)
	require.NoError(t, s.Add(mustNew(t, TypeText, "Clock")))

	err := s.Add(mustNew(t, TypeFrame, "clock"))

	require.ErrorIs(t, err, ErrDuplicate)
	assert.Len(t, s.List(), 1)
}

func TestState_UpdateNotifiesWithoutMutating(t *testing.T) {
	rec := &recorder{}
	s := NewState(rec.notify)
	require.NoError(t, s.Add(mustNew(t, TypeText, "A")))

	s.Update()

	assert.Equal(t, [][]string{{"A"}, {"A"}}, rec.snapshots)
}

func TestState_ConcurrentChangesNotifyLatestList(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	rec := &recorder{}

	s := NewState(func(components []*Component) {
		once.Do(func() {
			close(entered)
			<-release
		})
		rec.notify(components)
	})

	a, b := mustNew(t, TypeText, "A"), mustNew(t, TypeText, "B")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, s.Add(a))
	}()
	<-entered

	go func() {
		defer wg.Done()
		assert.NoError(t, s.Add(b))
	}()
	require.Eventually(t, func() bool { return len(s.List()) == 2 }, time.Second, time.Millisecond)

	close(release)
	wg.Wait()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.NotEmpty(t, rec.snapshots)
	assert.Equal(t, []string{"A", "B"}, rec.snapshots[len(rec.snapshots)-1])
}

func TestState_NextName(t *testing.T) {
	s := NewState(nil)

	assert.Equal(t, "Text", s.NextName(TypeText))
	require.NoError(t, s.Add(mustNew(t, TypeText, "Text")))
	assert.Equal(t, "Text 2", s.NextName(TypeText))
	require.NoError(t, s.Add(mustNew(t, TypeText, "Text 2")))
	assert.Equal(t, "Text 3", s.NextName(TypeText))
	assert.Equal(t, "HTML", s.NextName(TypeHTML))
}

func TestState_ReplaceKeepsUserComponents(t *testing.T) {
	s := NewState(nil)
	require.NoError(t, s.Add(mustNew(t, TypeText, "Old Theme").FromTheme()))
	require.NoError(t, s.Add(mustNew(t, TypeImage, "Mine")))
	require.NoError(t, s.Add(mustNew(t, TypeText, "Watermark")))

	s.Replace([]*Component{
		mustNew(t, TypeText, "Watermark").FromTheme(),
		mustNew(t, TypeFrame, "Radar").FromTheme(),
	})

	assert.Equal(t, []string{"Watermark", "Radar", "Mine"}, names(s.List()))
}

func TestState_GetAndRestore(t *testing.T) {
	rec := &recorder{}
	s := NewState(rec.notify)

	s.Restore([]*Component{mustNew(t, TypeText, "Saved")})

	c, ok := s.Get("saved")
	require.True(t, ok)
	assert.Equal(t, "Saved", c.Name())
	assert.Zero(t, rec.calls())
}

func TestParseType(t *testing.T) {
	typ, err := ParseType("Frame")
	require.NoError(t, err)
	assert.Equal(t, TypeFrame, typ)

	_, err = ParseType("video")
	require.ErrorIs(t, err, ErrUnknownType)
}
