package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/pagescout/pagescout/pkg/api"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(srv.URL)
	c.PollInterval = 5 * time.Millisecond
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body string) {
	t.Helper()
	w.Header().Set(api.HeaderContentType, api.ContentTypeJSON)
	w.WriteHeader(status)
	_, err := w.Write([]byte(body))
	require.NoError(t, err)
}

func TestSubmit(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/scrape", r.URL.Path)

		body := &api.SubmitRequest{}
		require.NoError(t, jsonCodec.NewDecoder(r.Body).Decode(body))
		require.Equal(t, "http://example.com/a", body.URL)

		writeJSON(t, w, http.StatusAccepted, `{"task_id": "abc", "status": "pending"}`)
	}))

	sub, err := c.Submit(context.Background(), "http://example.com/a")
	require.NoError(t, err)
	require.Equal(t, "abc", sub.TaskID)
	require.Equal(t, "pending", sub.Status)
	require.False(t, sub.Cached)
}

func TestSubmitCacheHit(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, `{"task_id": "abc", "status": "completed", "cached": true}`)
	}))

	sub, err := c.Submit(context.Background(), "http://example.com/a")
	require.NoError(t, err)
	require.True(t, sub.Cached)
	require.Equal(t, "completed", sub.Status)
}

func TestSubmitRateLimited(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusTooManyRequests, `{"status": "error", "error": "Rate limit excedido para el dominio"}`)
	}))

	_, err := c.Submit(context.Background(), "http://example.com/a")
	require.ErrorIs(t, err, ErrRateLimited)
	require.Contains(t, err.Error(), "Rate limit excedido para el dominio")
}

func TestSubmitRejectedURL(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusBadRequest, `{"status": "error", "error": "URL inválida"}`)
	}))

	_, err := c.Submit(context.Background(), "nope")
	require.Error(t, err)
	require.Contains(t, err.Error(), "400")
	require.Contains(t, err.Error(), "URL inválida")
}

func TestStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/status/abc", r.URL.Path)
		writeJSON(t, w, http.StatusOK,
			`{"task_id": "abc", "url": "http://example.com/a", "status": "scraping", "created_at": "x", "updated_at": "y"}`)
	}))

	st, err := c.Status(context.Background(), "abc")
	require.NoError(t, err)
	require.Equal(t, "abc", st.TaskID)
	require.Equal(t, "scraping", st.Status)
}

func TestStatusNotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusNotFound, `{"status": "error", "error": "task_id inexistente"}`)
	}))

	_, err := c.Status(context.Background(), "nope")
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestResult(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/result/abc", r.URL.Path)
		writeJSON(t, w, http.StatusOK,
			`{"task_id": "abc", "url": "http://example.com/a", "timestamp": "t", "processing_data": {}, "status": "success"}`)
	}))

	res, err := c.Result(context.Background(), "abc")
	require.NoError(t, err)
	require.Equal(t, "abc", res.TaskID)
	require.Equal(t, "success", res.Status)
}

func TestResultBranches(t *testing.T) {
	t.Run("pending", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(t, w, http.StatusAccepted, `{"status": "pending", "message": "La tarea aún no finalizó"}`)
		}))

		_, err := c.Result(context.Background(), "abc")
		require.ErrorIs(t, err, ErrTaskPending)
	})

	t.Run("not found", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(t, w, http.StatusNotFound, `{"status": "error", "error": "task_id inexistente"}`)
		}))

		_, err := c.Result(context.Background(), "abc")
		require.ErrorIs(t, err, ErrTaskNotFound)
	})

	t.Run("failed", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(t, w, http.StatusInternalServerError, `{"status": "error", "error": "Timeout"}`)
		}))

		_, err := c.Result(context.Background(), "abc")
		require.Error(t, err)
		require.Contains(t, err.Error(), "task failed: Timeout")
	})
}

func TestTasks(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tasks", r.URL.Path)
		writeJSON(t, w, http.StatusOK,
			`{"tasks": [{"task_id": "a"}, {"task_id": "b"}]}`)
	}))

	list, err := c.Tasks(context.Background())
	require.NoError(t, err)
	require.Len(t, list.Tasks, 2)
	require.Equal(t, "a", list.Tasks[0].TaskID)
}

func TestWaitForResult(t *testing.T) {
	polls := atomic.NewInt32(0)

	r := mux.NewRouter()
	r.HandleFunc("/status/abc", func(w http.ResponseWriter, _ *http.Request) {
		if polls.Inc() < 3 {
			writeJSON(t, w, http.StatusOK, `{"task_id": "abc", "status": "processing"}`)
			return
		}
		writeJSON(t, w, http.StatusOK, `{"task_id": "abc", "status": "completed", "result_status": "success"}`)
	})
	r.HandleFunc("/result/abc", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, `{"task_id": "abc", "status": "success", "processing_data": {}}`)
	})
	c := newTestClient(t, r)

	res, err := c.WaitForResult(context.Background(), "abc")
	require.NoError(t, err)
	require.Equal(t, "success", res.Status)
	require.GreaterOrEqual(t, polls.Load(), int32(3))
}

func TestWaitForResultFailedTask(t *testing.T) {
	t.Run("with error message", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(t, w, http.StatusOK, `{"task_id": "abc", "status": "failed", "error": "Timeout"}`)
		}))

		_, err := c.WaitForResult(context.Background(), "abc")
		require.Error(t, err)
		require.Contains(t, err.Error(), "task failed: Timeout")
	})

	t.Run("without error message", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(t, w, http.StatusOK, `{"task_id": "abc", "status": "failed"}`)
		}))

		_, err := c.WaitForResult(context.Background(), "abc")
		require.Error(t, err)
		require.Contains(t, err.Error(), "tarea fallida")
	})
}

func TestWaitForResultHonorsContext(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, `{"task_id": "abc", "status": "pending"}`)
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.WaitForResult(ctx, "abc")
	require.Error(t, err)
}

func TestScrapeAndWaitCached(t *testing.T) {
	statusCalls := atomic.NewInt32(0)

	r := mux.NewRouter()
	r.HandleFunc("/scrape", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, `{"task_id": "abc", "status": "completed", "cached": true}`)
	})
	r.HandleFunc("/status/{taskID}", func(w http.ResponseWriter, _ *http.Request) {
		statusCalls.Inc()
		writeJSON(t, w, http.StatusOK, `{"task_id": "abc", "status": "completed"}`)
	})
	r.HandleFunc("/result/abc", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, `{"task_id": "abc", "status": "success", "processing_data": {}}`)
	})
	c := newTestClient(t, r)

	res, err := c.ScrapeAndWait(context.Background(), "http://example.com/a")
	require.NoError(t, err)
	require.Equal(t, "success", res.Status)
	// a cached submission goes straight to the result
	require.Zero(t, statusCalls.Load())
}

func TestReady(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ready", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))

	require.NoError(t, c.Ready(context.Background()))
}