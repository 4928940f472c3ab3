// file: jsbridge/pkg/x_api/handlers.go
package x_api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rskv-p/jsbridge/channel"
	"github.com/rskv-p/jsbridge/pkg/x_host"
	"github.com/rskv-p/jsbridge/pkg/x_rtm"
	"github.com/rskv-p/jsbridge/snapshot"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// handleHealth reports that the host loop accepts work.
func handleHealth(a *API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := a.Host.Do(r.Context(), func(x_rtm.Runtime) error { return nil }); err != nil {
			http.Error(w, err.Error(), x_host.StatusOf(err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// handleStats reports bus counters when a source is configured.
func handleStats(a *API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.Stats == nil {
			http.Error(w, "stats not available", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, a.Stats())
	}
}

// handleException returns the last script fault, 204 when there is none.
func handleException(a *API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := a.Host.LastException(r.Context())
		if err != nil {
			http.Error(w, err.Error(), x_host.StatusOf(err))
			return
		}
		if s == "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, s)
	}
}

// handleSend passes the body to the script's recv callback and returns its response.
func handleSend(a *API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := r.Body
		if a.MaxBody > 0 {
			body = http.MaxBytesReader(w, r.Body, a.MaxBody)
		}
		data, err := io.ReadAll(body)
		if err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				http.Error(w, channel.ErrMessageTooLarge.Error(), http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		resp, err := a.Host.Send(r.Context(), data)
		if err != nil {
			code := x_host.StatusOf(err)
			if rec, ok := x_host.FaultOf(err); ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(code)
				_, _ = io.WriteString(w, rec.JSON())
				return
			}
			http.Error(w, err.Error(), code)
			return
		}
		if resp == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(resp)
	}
}

//---------------------
// Snapshots
//---------------------

func storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, snapshot.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, snapshot.ErrInvalidName):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func handleList(a *API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metas, err := a.Store.List(r.Context())
		if err != nil {
			storeError(w, err)
			return
		}
		if metas == nil {
			metas = []snapshot.Meta{}
		}
		writeJSON(w, http.StatusOK, metas)
	}
}

// handleGet returns the raw image bytes.
func handleGet(a *API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := a.Store.Load(r.Context(), chi.URLParam(r, "name"))
		if err != nil {
			storeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(data)
	}
}

// handleCapture snapshots the running isolate into the store.
func handleCapture(a *API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if err := snapshot.ValidateName(name); err != nil {
			storeError(w, err)
			return
		}

		var img *snapshot.Image
		err := a.Host.Do(r.Context(), func(rt x_rtm.Runtime) error {
			var err error
			img, err = rt.Snapshot()
			return err
		})
		if err != nil {
			http.Error(w, err.Error(), x_host.StatusOf(err))
			return
		}
		if err := snapshot.SaveImage(r.Context(), a.Store, name, img); err != nil {
			storeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"name":    name,
			"scripts": len(img.Scripts),
			"blobs":   len(img.Blobs),
		})
	}
}

func handleDelete(a *API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := a.Store.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
			storeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
