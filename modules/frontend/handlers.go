package frontend

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-kit/log/level"
	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	yaml "gopkg.in/yaml.v2"

	"github.com/pagescout/pagescout/pkg/api"
	"github.com/pagescout/pagescout/pkg/task"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

func (f *Frontend) handleScrape(w http.ResponseWriter, r *http.Request) {
	target, ok := f.extractURL(w, r)
	if !ok {
		return
	}

	host := hostOf(target)
	if host == "" {
		f.writeError(w, http.StatusBadRequest, "URL inválida")
		return
	}

	if !f.limiter.Allow(host) {
		metricRateLimited.Inc()
		f.writeError(w, http.StatusTooManyRequests, "Rate limit excedido para el dominio")
		return
	}

	created := f.tasks.Create(target)

	if cached, hit := f.store.Get(r.Context(), target); hit {
		metricCacheLookups.WithLabelValues("hit").Inc()
		if err := f.tasks.SetResult(created.ID, cached); err != nil {
			level.Warn(f.logger).Log("msg", "could not attach cached result", "task", created.ID, "err", err)
		}
		f.writeJSON(w, http.StatusOK, &api.SubmitResponse{
			TaskID: created.ID,
			Status: string(task.StatusCompleted),
			Cached: true,
		})
		return
	}
	metricCacheLookups.WithLabelValues("miss").Inc()

	f.scheduler.Schedule(created.ID, target)
	f.writeJSON(w, http.StatusAccepted, &api.SubmitResponse{
		TaskID: created.ID,
		Status: string(created.Status),
	})
}

func (f *Frontend) handleStatus(w http.ResponseWriter, r *http.Request) {
	tk, err := f.tasks.Get(mux.Vars(r)[api.URLParamTaskID])
	if err != nil {
		f.writeError(w, http.StatusNotFound, "task_id inexistente")
		return
	}

	payload := &api.StatusResponse{
		TaskID:    tk.ID,
		URL:       tk.URL,
		Status:    string(tk.Status),
		CreatedAt: tk.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: tk.UpdatedAt.UTC().Format(time.RFC3339Nano),
		Error:     tk.Error,
	}
	if tk.Result != nil {
		payload.ResultStatus = tk.Result.Status
	}
	f.writeJSON(w, http.StatusOK, payload)
}

func (f *Frontend) handleResult(w http.ResponseWriter, r *http.Request) {
	tk, err := f.tasks.Get(mux.Vars(r)[api.URLParamTaskID])
	if err != nil {
		f.writeError(w, http.StatusNotFound, "task_id inexistente")
		return
	}

	if tk.Status != task.StatusCompleted || tk.Result == nil {
		if tk.Status == task.StatusFailed {
			msg := tk.Error
			if msg == "" {
				msg = "Tarea fallida"
			}
			f.writeError(w, http.StatusInternalServerError, msg)
			return
		}
		f.writeJSON(w, http.StatusAccepted, &api.PendingResponse{
			Status:  "pending",
			Message: "La tarea aún no finalizó",
		})
		return
	}

	f.writeJSON(w, http.StatusOK, &api.ResultResponse{Result: *tk.Result, TaskID: tk.ID})
}

func (f *Frontend) handleTasks(w http.ResponseWriter, _ *http.Request) {
	list := f.tasks.List()

	resp := &api.TasksResponse{Tasks: make([]api.TaskSummary, 0, len(list))}
	for _, tk := range list {
		resp.Tasks = append(resp.Tasks, api.TaskSummary{
			TaskID:    tk.ID,
			URL:       tk.URL,
			Status:    string(tk.Status),
			CreatedAt: tk.CreatedAt.UTC().Format(time.RFC3339Nano),
			UpdatedAt: tk.UpdatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	f.writeJSON(w, http.StatusOK, resp)
}

func (f *Frontend) handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready\n"))
}

func (f *Frontend) handleConfig(w http.ResponseWriter, _ *http.Request) {
	out, err := yaml.Marshal(f.runtime)
	if err != nil {
		f.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set(api.HeaderContentType, "text/yaml")
	_, _ = w.Write(out)
}

// extractURL pulls the target URL from the query string on GET or the JSON
// body on POST, writing the 400 itself when there is none.
func (f *Frontend) extractURL(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method == http.MethodGet {
		target := r.URL.Query().Get(api.URLParamURL)
		if target == "" {
			f.writeError(w, http.StatusBadRequest, "Missing url param")
			return "", false
		}
		return target, true
	}

	var payload interface{}
	if err := jsonCodec.NewDecoder(r.Body).Decode(&payload); err != nil {
		f.writeError(w, http.StatusBadRequest, "Body inválido")
		return "", false
	}

	obj, _ := payload.(map[string]interface{})
	target, _ := obj["url"].(string)
	if target == "" {
		f.writeError(w, http.StatusBadRequest, "Missing url param")
		return "", false
	}
	return target, true
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func (f *Frontend) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	buf, err := jsonCodec.Marshal(payload)
	if err != nil {
		level.Error(f.logger).Log("msg", "failed to encode response", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set(api.HeaderContentType, api.ContentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

func (f *Frontend) writeError(w http.ResponseWriter, status int, msg string) {
	f.writeJSON(w, status, &api.ErrorResponse{Status: "error", Error: msg})
}
