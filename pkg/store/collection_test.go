package store

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/postscope/pkg/domain"
)

func testPosts() []domain.Post {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	return []domain.Post{
		{Permalink: "https://x/old", Text: "Old news about Go", Timestamp: domain.Timestamp{Time: base},
			Author: domain.Author{Name: "Jane Doe", Title: "Engineer"}},
		{Text: "Fresh post", Media: []string{"m1", "m2"}, Timestamp: domain.Timestamp{Time: base.Add(48 * time.Hour)},
			Author: domain.Author{Name: "John Smith", Title: "Gopher at Acme"}},
		{Permalink: "https://x/mid", Text: "Привет", Media: []string{"m3"}, Timestamp: domain.Timestamp{Time: base.Add(time.Hour)},
			Author: domain.Author{Name: "Jane Doe"}},
		{Permalink: "https://x/none", Text: "no time", Author: domain.Author{Name: "Jane Doe"}},
	}
}

func TestCollection_Replace(t *testing.T) {
	c := NewCollection()
	assert.Equal(t, 0, c.Len())
	assert.True(t, c.Updated().IsZero())

	input := testPosts()
	c.Replace(input)
	assert.Equal(t, 4, c.Len())
	assert.False(t, c.Updated().IsZero())

	all := c.All()
	assert.Equal(t, "Fresh post", all[0].Text)
	assert.Equal(t, "https://x/mid", all[1].Permalink)
	assert.Equal(t, "https://x/old", all[2].Permalink)
	assert.Equal(t, "https://x/none", all[3].Permalink)
	assert.Equal(t, "https://x/old", input[0].Permalink, "input is not reordered")
}

func TestCollection_Get(t *testing.T) {
	c := NewCollection()
	c.Replace(testPosts())

	tests := []struct {
		key     string
		wantKey string
		wantErr bool
	}{
		{key: "0", wantKey: "0"},
		{key: "3", wantKey: "3"},
		{key: "https://x/old", wantKey: "2"},
		{key: testPosts()[1].ID(), wantKey: "0"},
		{key: "4", wantErr: true},
		{key: "-1", wantErr: true},
		{key: "01", wantErr: true},
		{key: "https://x/unknown", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			e, err := c.Get(tt.key)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, e.Key)
		})
	}
}

func TestCollection_Search(t *testing.T) {
	c := NewCollection()
	c.Replace(testPosts())

	res := c.Search("JANE", 0)
	require.Len(t, res, 3)
	assert.Equal(t, "1", res[0].Key)
	assert.Equal(t, "2", res[1].Key)

	res = c.Search("jane", 2)
	assert.Len(t, res, 2)

	res = c.Search("gopher", 50)
	require.Len(t, res, 1)
	assert.Equal(t, "0", res[0].Key, "matches author title")

	res = c.Search("go", 50)
	assert.Len(t, res, 2)

	assert.Empty(t, c.Search("nothing like this", 50))
}

func TestCollection_Stats(t *testing.T) {
	c := NewCollection()
	assert.Equal(t, Stats{}, c.Stats())

	c.Replace(testPosts())
	st := c.Stats()
	assert.Equal(t, 4, st.TotalPosts)
	assert.Equal(t, 3, st.TotalMedia)
	assert.Equal(t, 2, st.PostsWithMedia)
	assert.Equal(t, 17+10+6+7, st.TotalCharacters, "characters, not bytes")
	assert.Equal(t, 10, st.AverageLength)
	require.NotNil(t, st.DateRange)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), st.DateRange.Earliest)
	assert.Equal(t, time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), st.DateRange.Latest)
}

func TestCollection_ConcurrentReplace(t *testing.T) {
	c := NewCollection()
	small := testPosts()[:1]
	large := testPosts()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				n := len(c.All())
				assert.Contains(t, []int{0, 1, 4}, n, "partial snapshot observed")
			}
		}()
	}
	for j := 0; j < 100; j++ {
		if j%2 == 0 {
			c.Replace(small)
			continue
		}
		c.Replace(large)
	}
	wg.Wait()
}

func TestCollection_Publish(t *testing.T) {
	t.Run("persist gets sorted posts before the swap", func(t *testing.T) {
		c := NewCollection()
		var persisted []domain.Post
		err := c.Publish(testPosts(), func(sorted []domain.Post) error {
			assert.Equal(t, 0, c.Len(), "not swapped before persist")
			persisted = sorted
			return nil
		})
		require.NoError(t, err)
		require.Len(t, persisted, 4)
		assert.Equal(t, "Fresh post", persisted[0].Text)
		assert.Equal(t, persisted, c.All())
	})

	t.Run("failed persist keeps collection", func(t *testing.T) {
		c := NewCollection()
		c.Replace(testPosts()[:1])
		err := c.Publish(testPosts(), func([]domain.Post) error { return errors.New("disk full") })
		require.EqualError(t, err, "disk full")
		assert.Equal(t, 1, c.Len())
	})

	t.Run("nil persist", func(t *testing.T) {
		c := NewCollection()
		require.NoError(t, c.Publish(testPosts(), nil))
		assert.Equal(t, 4, c.Len())
	})
}

func TestCollection_PublishSerialized(t *testing.T) {
	c := NewCollection()
	var order []string // written only under the publish lock
	firstIn := make(chan struct{})
	release := make(chan struct{})
	var secondPersisted atomic.Bool

	done := make(chan struct{})
	go func() {
		defer close(done)
		err := c.Publish(testPosts()[:1], func([]domain.Post) error {
			close(firstIn)
			<-release
			order = append(order, "first")
			return nil
		})
		assert.NoError(t, err)
	}()
	<-firstIn

	secondDone := make(chan struct{})
	go func() {
		defer close(secondDone)
		err := c.Publish(testPosts(), func([]domain.Post) error {
			secondPersisted.Store(true)
			order = append(order, "second")
			return nil
		})
		assert.NoError(t, err)
	}()

	// a load must wait as well
	loadDone := make(chan struct{})
	go func() {
		defer close(loadDone)
		<-secondDone
		_, err := c.Load(func() ([]domain.Post, error) { return nil, errors.New("broken file") })
		assert.Error(t, err)
	}()

	time.Sleep(50 * time.Millisecond)
	assert.False(t, secondPersisted.Load(), "second publisher waits for the first")
	close(release)
	<-done
	<-secondDone
	<-loadDone

	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, 4, c.Len(), "last publisher wins, failed load keeps it")
}

func TestCollection_Load(t *testing.T) {
	c := NewCollection()
	n, err := c.Load(func() ([]domain.Post, error) { return testPosts(), nil })
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "Fresh post", c.All()[0].Text)
}
