package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/postscope/pkg/domain"
	"github.com/umputun/postscope/pkg/repository"
	"github.com/umputun/postscope/pkg/scheduler"
	"github.com/umputun/postscope/pkg/store"
	"github.com/umputun/postscope/server/mocks"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func testPosts() []domain.Post {
	return []domain.Post{
		{
			Permalink: "https://www.linkedin.com/feed/update/urn:li:activity:1",
			Text:      "Go generics in practice",
			Media:     []string{"https://media.licdn.com/dms/image/a.jpg"},
			Timestamp: domain.Timestamp{Time: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), Source: domain.SourceAbsolute},
			Author:    domain.Author{Name: "Jane Doe", Title: "Engineer at Example"},
		},
		{
			Permalink: "https://www.linkedin.com/feed/update/urn:li:activity:2",
			Text:      "Weekend hike",
			Timestamp: domain.Timestamp{Time: time.Date(2024, 5, 3, 10, 0, 0, 0, time.UTC), Source: domain.SourceRelative},
			Author:    domain.Author{Name: "Jane Doe", Title: "Engineer at Example"},
		},
		{
			Text:      "Hiring Go engineers",
			Timestamp: domain.Timestamp{Time: time.Date(2024, 4, 20, 10, 0, 0, 0, time.UTC), Source: domain.SourceAsset},
			Author:    domain.Author{Name: "Jane Doe"},
		},
	}
}

type testEnv struct {
	srv       *Server
	posts     *store.Collection
	postsFile string
	uploads   string
}

func newTestEnv(t *testing.T, archive Archive, jobs Jobs) *testEnv {
	t.Helper()
	dir := t.TempDir()
	posts := store.NewCollection()
	posts.Replace(testPosts())
	env := &testEnv{
		posts:     posts,
		postsFile: filepath.Join(dir, "posts.json"),
		uploads:   filepath.Join(dir, "uploads"),
	}
	env.srv = New(Config{Listen: ":0", BaseURL: "http://localhost:8080", PostsFile: env.postsFile,
		UploadsDir: env.uploads, Version: "test"}, posts, archive, jobs)
	env.srv.now = func() time.Time { return testNow }
	return env
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	e.srv.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, httptest.NewRequest(http.MethodGet, target, http.NoBody))
}

func TestServer_Posts(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	w := env.get(t, "/api/v1/posts")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp struct {
		Posts       map[string]store.Record `json:"posts"`
		Total       int                     `json:"total"`
		LastUpdated time.Time               `json:"last_updated"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Total)
	require.Len(t, resp.Posts, 3)
	assert.Equal(t, "Weekend hike", resp.Posts["0"].Text)
	assert.Equal(t, "Go generics in practice", resp.Posts["1"].Text)
	assert.Equal(t, "Hiring Go engineers", resp.Posts["2"].Text)
	assert.Equal(t, "2024-05-03T10:00:00.000Z", resp.Posts["0"].Timestamp)
	assert.False(t, resp.LastUpdated.IsZero())

	// keys are written in numeric order
	body := w.Body.String()
	assert.Less(t, strings.Index(body, `"0":`), strings.Index(body, `"1":`))
	assert.Less(t, strings.Index(body, `"1":`), strings.Index(body, `"2":`))
}

func TestServer_Post(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	hashID := testPosts()[2].ID()

	tests := []struct {
		name     string
		key      string
		wantCode int
		wantKey  string
		wantText string
	}{
		{name: "dense key", key: "1", wantCode: http.StatusOK, wantKey: "1", wantText: "Go generics in practice"},
		{name: "stable id", key: hashID, wantCode: http.StatusOK, wantKey: "2", wantText: "Hiring Go engineers"},
		{name: "out of range", key: "99", wantCode: http.StatusNotFound},
		{name: "not canonical", key: "01", wantCode: http.StatusNotFound},
		{name: "unknown id", key: "nope", wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.get(t, "/api/v1/posts/"+tt.key)
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantCode != http.StatusOK {
				assert.Contains(t, w.Body.String(), "error")
				return
			}
			var resp struct {
				ID   string       `json:"id"`
				Post store.Record `json:"post"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantKey, resp.ID)
			assert.Equal(t, tt.wantText, resp.Post.Text)
		})
	}
}

func TestServer_Search(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantFound int
		wantLimit int
	}{
		{name: "matches text case-insensitive", query: "?q=GO", wantCode: http.StatusOK, wantFound: 2, wantLimit: 50},
		{name: "matches author title", query: "?q=example", wantCode: http.StatusOK, wantFound: 2, wantLimit: 50},
		{name: "limited", query: "?q=go&limit=1", wantCode: http.StatusOK, wantFound: 1, wantLimit: 1},
		{name: "no match", query: "?q=kubernetes", wantCode: http.StatusOK, wantFound: 0, wantLimit: 50},
		{name: "missing query", query: "", wantCode: http.StatusBadRequest},
		{name: "bad limit", query: "?q=go&limit=abc", wantCode: http.StatusBadRequest},
		{name: "zero limit", query: "?q=go&limit=0", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.get(t, "/api/v1/search"+tt.query)
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantCode != http.StatusOK {
				return
			}
			var resp struct {
				Query      string                  `json:"query"`
				Posts      map[string]store.Record `json:"posts"`
				TotalFound int                     `json:"total_found"`
				LimitedTo  int                     `json:"limited_to"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantFound, resp.TotalFound)
			assert.Len(t, resp.Posts, tt.wantFound)
			assert.Equal(t, tt.wantLimit, resp.LimitedTo)
		})
	}
}

func TestServer_Search_KeysFollowCollection(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	w := env.get(t, "/api/v1/search?q=hiring")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Posts map[string]store.Record `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Contains(t, resp.Posts, "2")
	assert.Equal(t, "Hiring Go engineers", resp.Posts["2"].Text)
}

func TestServer_Stats(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	w := env.get(t, "/api/v1/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var st store.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, 3, st.TotalPosts)
	assert.Equal(t, 1, st.TotalMedia)
	assert.Equal(t, 1, st.PostsWithMedia)
	require.NotNil(t, st.DateRange)
	assert.Equal(t, time.Date(2024, 4, 20, 10, 0, 0, 0, time.UTC), st.DateRange.Earliest.UTC())
	assert.Equal(t, time.Date(2024, 5, 3, 10, 0, 0, 0, time.UTC), st.DateRange.Latest.UTC())
}

func TestServer_Export(t *testing.T) {
	t.Run("with posts", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)
		w := env.get(t, "/api/v1/export")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "attachment; filename=posts_export_20240601_120000.json", w.Header().Get("Content-Disposition"))
		posts, err := store.Decode(w.Body.Bytes())
		require.NoError(t, err)
		require.Len(t, posts, 3)
		assert.Equal(t, "Weekend hike", posts[0].Text)
	})

	t.Run("empty collection", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)
		env.posts.Replace(nil)
		w := env.get(t, "/api/v1/export")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

const uploadPayload = `{
  "a": {"original": "", "text": "older", "media": [], "timestamp": "2024-01-01T00:00:00Z",
        "author": {"name": "Jane Doe", "profile_url": "", "title": ""}},
  "b": {"original": "", "text": "newer", "media": [], "timestamp": "2024-03-01T00:00:00+02:00",
        "author": {"name": "Jane Doe", "profile_url": "", "title": ""}}
}`

func multipartRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/posts/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestServer_Upload(t *testing.T) {
	t.Run("raw body", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/posts/upload", strings.NewReader(uploadPayload))
		req.Header.Set("Content-Type", "application/json")
		w := env.do(t, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp struct {
			TotalPosts int    `json:"total_posts"`
			BackupFile string `json:"backup_file"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.TotalPosts)
		assert.Equal(t, filepath.Join(env.uploads, "posts_backup_20240601_120000.json"), resp.BackupFile)
		assert.FileExists(t, resp.BackupFile)

		// collection replaced and sorted newest first
		require.Equal(t, 2, env.posts.Len())
		assert.Equal(t, "newer", env.posts.All()[0].Text)

		// default file saved with dense keys
		saved, err := store.LoadFile(env.postsFile)
		require.NoError(t, err)
		require.Len(t, saved, 2)
		assert.Equal(t, "newer", saved[0].Text)
		data, err := os.ReadFile(env.postsFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"0": {`)
		assert.NotContains(t, string(data), `"a": {`)
	})

	t.Run("multipart json file", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)
		w := env.do(t, multipartRequest(t, "export.JSON", uploadPayload))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, 2, env.posts.Len())
	})

	tests := []struct {
		name string
		req  func(t *testing.T) *http.Request
	}{
		{name: "not a json file", req: func(t *testing.T) *http.Request { return multipartRequest(t, "posts.txt", uploadPayload) }},
		{name: "array payload", req: func(t *testing.T) *http.Request {
			return httptest.NewRequest(http.MethodPost, "/api/v1/posts/upload", strings.NewReader(`[{"text":"x"}]`))
		}},
		{name: "malformed json", req: func(t *testing.T) *http.Request {
			return httptest.NewRequest(http.MethodPost, "/api/v1/posts/upload", strings.NewReader(`{"0": {"text": `))
		}},
		{name: "record not an object", req: func(t *testing.T) *http.Request {
			return httptest.NewRequest(http.MethodPost, "/api/v1/posts/upload", strings.NewReader(`{"0": "text"}`))
		}},
		{name: "empty body", req: func(t *testing.T) *http.Request {
			return httptest.NewRequest(http.MethodPost, "/api/v1/posts/upload", http.NoBody)
		}},
		{name: "record without text or media", req: func(t *testing.T) *http.Request {
			return httptest.NewRequest(http.MethodPost, "/api/v1/posts/upload",
				strings.NewReader(`{"0": {"original": "x", "text": "", "media": []}, "1": {}}`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil, nil)
			before := env.posts.All()
			w := env.do(t, tt.req(t))
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, before, env.posts.All(), "collection must stay untouched")
			assert.NoFileExists(t, env.postsFile)
			assert.NoDirExists(t, env.uploads)
		})
	}
}

func TestServer_Reload(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	require.NoError(t, store.SaveFile(env.postsFile, testPosts()[:1]))

	w := env.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/posts/reload", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"total_posts":1`)
	require.Equal(t, 1, env.posts.Len())
	assert.Equal(t, "Go generics in practice", env.posts.All()[0].Text)

	// broken file keeps the current collection
	require.NoError(t, os.WriteFile(env.postsFile, []byte("[]"), 0o600))
	w = env.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/posts/reload", http.NoBody))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, env.posts.Len())
}

func TestServer_Sessions(t *testing.T) {
	finished := time.Date(2024, 6, 1, 11, 5, 0, 0, time.UTC)
	archive := &mocks.ArchiveMock{
		ListSessionsFunc: func(ctx context.Context, limit int) ([]domain.Session, error) {
			return []domain.Session{
				{ID: 2, StartedAt: testNow.Add(-time.Hour), Feeds: []string{"https://www.linkedin.com/in/jane-doe"}},
				{ID: 1, StartedAt: testNow.Add(-2 * time.Hour), FinishedAt: &finished, PostCount: 3},
			}, nil
		},
		GetSessionFunc: func(ctx context.Context, id int64) (*domain.Session, error) {
			if id != 1 {
				return nil, fmt.Errorf("session %d: %w", id, repository.ErrNotFound)
			}
			return &domain.Session{ID: 1, StartedAt: testNow.Add(-2 * time.Hour), FinishedAt: &finished, PostCount: 3}, nil
		},
		GetSessionPostsFunc: func(ctx context.Context, sessionID int64) ([]domain.Post, error) {
			return testPosts(), nil
		},
		CountPostsFunc: func(ctx context.Context) (int, error) { return 42, nil },
	}
	env := newTestEnv(t, archive, nil)

	t.Run("list", func(t *testing.T) {
		w := env.get(t, "/api/v1/sessions?limit=5")
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Sessions []sessionView `json:"sessions"`
			Total    int           `json:"total"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Total)
		assert.Equal(t, int64(2), resp.Sessions[0].ID)
		assert.Nil(t, resp.Sessions[0].FinishedAt)
		assert.Equal(t, []string{}, resp.Sessions[1].Feeds)
		calls := archive.ListSessionsCalls()
		require.Len(t, calls, 1)
		assert.Equal(t, 5, calls[0].Limit)
	})

	t.Run("single with posts in scrape order", func(t *testing.T) {
		w := env.get(t, "/api/v1/sessions/1")
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Session sessionView             `json:"session"`
			Posts   map[string]store.Record `json:"posts"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 3, resp.Session.PostCount)
		require.Len(t, resp.Posts, 3)
		assert.Equal(t, "Go generics in practice", resp.Posts["0"].Text)
	})

	t.Run("not found", func(t *testing.T) {
		w := env.get(t, "/api/v1/sessions/7")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		w := env.get(t, "/api/v1/sessions/abc")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("archive failure", func(t *testing.T) {
		failing := &mocks.ArchiveMock{ListSessionsFunc: func(ctx context.Context, limit int) ([]domain.Session, error) {
			return nil, errors.New("database is locked")
		}}
		w := newTestEnv(t, failing, nil).get(t, "/api/v1/sessions")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestServer_NoArchiveNoJobs(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	assert.Equal(t, http.StatusNotFound, env.get(t, "/api/v1/sessions").Code)
	w := env.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/scrape", http.NoBody))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Scrape(t *testing.T) {
	triggered := true
	jobs := &mocks.JobsMock{
		TriggerNowFunc: func() bool { return triggered },
		RunningFunc:    func() bool { return !triggered },
		LastRunFunc: func() (scheduler.Result, bool) {
			return scheduler.Result{SessionID: 3, Posts: 12, Started: testNow, Duration: 90 * time.Second,
				Err: context.DeadlineExceeded}, true
		},
	}
	env := newTestEnv(t, nil, jobs)

	w := env.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/scrape", http.NoBody))
	assert.Equal(t, http.StatusAccepted, w.Code)

	triggered = false
	w = env.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/scrape", http.NoBody))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), scheduler.ErrBusy.Error())
	assert.Len(t, jobs.TriggerNowCalls(), 2)

	w = env.get(t, "/api/v1/scrape")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Running bool    `json:"running"`
		LastRun runView `json:"last_run"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Running)
	assert.Equal(t, int64(3), resp.LastRun.SessionID)
	assert.Equal(t, 12, resp.LastRun.Posts)
	assert.Equal(t, "1m30s", resp.LastRun.Duration)
	assert.Equal(t, context.DeadlineExceeded.Error(), resp.LastRun.Error)
}

func TestServer_RSS(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	w := env.get(t, "/rss")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/rss+xml; charset=utf-8", w.Header().Get("Content-Type"))

	parsed, err := gofeed.NewParser().ParseString(w.Body.String())
	require.NoError(t, err)
	require.Len(t, parsed.Items, 3)
	assert.Contains(t, parsed.Items[0].Title, "Weekend hike")
	assert.Equal(t, "https://www.linkedin.com/feed/update/urn:li:activity:2", parsed.Items[0].Link)
}

func TestServer_PostsFile(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	w := env.get(t, "/posts.json")
	require.Equal(t, http.StatusOK, w.Code)
	posts, err := store.Decode(w.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "Weekend hike", posts[0].Text)
}

func TestServer_Health(t *testing.T) {
	t.Run("collection only", func(t *testing.T) {
		w := newTestEnv(t, nil, nil).get(t, "/health")
		require.Equal(t, http.StatusOK, w.Code)
		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp["status"])
		assert.Equal(t, "2024-06-01T12:00:00Z", resp["timestamp"])
		assert.InDelta(t, 3, resp["total_posts"], 0)
		assert.NotContains(t, resp, "archived_posts")
	})

	t.Run("archive down", func(t *testing.T) {
		archive := &mocks.ArchiveMock{CountPostsFunc: func(ctx context.Context) (int, error) {
			return 0, errors.New("disk I/O error")
		}}
		w := newTestEnv(t, archive, nil).get(t, "/health")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"degraded"`)
	})
}

func TestServer_Run(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	srv := New(Config{Listen: fmt.Sprintf("127.0.0.1:%d", port), Version: "1.0.0"}, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/ping", port))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode == http.StatusOK && string(body) == "pong"
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server didn't stop")
	}
}
