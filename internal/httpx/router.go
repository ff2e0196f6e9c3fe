package httpx

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/AngelCh415/marketing-intel/internal/ingest"
	"github.com/AngelCh415/marketing-intel/internal/metrics"
	"github.com/AngelCh415/marketing-intel/internal/models"
	"github.com/AngelCh415/marketing-intel/internal/observability"
	"github.com/AngelCh415/marketing-intel/internal/store"
	"github.com/AngelCh415/marketing-intel/internal/utils"
)

type errorBody struct {
	Error string `json:"error"`
}

type sourcesBody struct {
	Mode    models.DataMode      `json:"mode"`
	Sources []models.SourceState `json:"sources"`
}

func NewRouter(log *slog.Logger, etl *ingest.ETL, st *store.MemoryStore, mSvc *metrics.Service) http.Handler {
	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(log))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ready")) })
	mux.Handle("/metrics", observability.Handler())

	sourcesStatus := func(w http.ResponseWriter, r *http.Request) {
		body := sourcesBody{Mode: models.ModeSample, Sources: st.States()}
		if st.Snapshot().Ready {
			body.Mode = models.ModeUploaded
		}
		render.JSON(w, r, body)
	}

	mux.Route("/sources", func(sr chi.Router) {
		sr.Get("/", sourcesStatus)

		sr.Delete("/", func(w http.ResponseWriter, r *http.Request) {
			st.Reset()
			sourcesStatus(w, r)
		})

		sr.Post("/fetch", func(w http.ResponseWriter, r *http.Request) {
			errs, err := etl.FetchAll(r.Context())
			if err != nil {
				writeError(w, r, http.StatusBadRequest, err)
				return
			}
			failed := map[models.Source]string{}
			for src, e := range errs {
				failed[src] = e.Error()
			}
			render.JSON(w, r, map[string]any{"sources": st.States(), "failed": failed})
		})

		sr.Post("/{source}", func(w http.ResponseWriter, r *http.Request) {
			src, ok := models.ParseSource(chi.URLParam(r, "source"))
			if !ok {
				writeError(w, r, http.StatusNotFound, ingest.ErrUnknownSource)
				return
			}
			filename, body, err := uploadBody(r)
			if err != nil {
				writeError(w, r, http.StatusBadRequest, err)
				return
			}
			defer body.Close()

			state, err := etl.Upload(r.Context(), src, filename, body)
			if err != nil {
				render.Status(r, http.StatusUnprocessableEntity)
				if errors.Is(err, ingest.ErrTooLarge) {
					render.Status(r, http.StatusRequestEntityTooLarge)
				}
			}
			render.JSON(w, r, state)
		})
	})

	mux.Route("/report", func(rr chi.Router) {
		report := func(pick func(models.Report) any) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) {
				q, err := metrics.ParseQuery(r.URL.Query())
				if err != nil {
					writeError(w, r, http.StatusBadRequest, err)
					return
				}
				rep, err := mSvc.Report(q)
				if err != nil {
					writeServiceError(w, r, err)
					return
				}
				render.JSON(w, r, pick(rep))
			}
		}
		rr.Get("/", report(func(rep models.Report) any { return rep }))
		rr.Get("/channels", report(func(rep models.Report) any { return rep.Channels }))
		rr.Get("/kpis", report(func(rep models.Report) any { return rep.KPIs }))
		rr.Get("/attribution", report(func(rep models.Report) any { return rep.Attribution }))
		rr.Get("/scatter", report(func(rep models.Report) any { return rep.Scatter }))
		rr.Get("/benchmarks", report(func(rep models.Report) any { return rep.Benchmarks }))

		rr.Get("/daily", func(w http.ResponseWriter, r *http.Request) {
			q, err := metrics.ParseQuery(r.URL.Query())
			if err != nil {
				writeError(w, r, http.StatusBadRequest, err)
				return
			}
			rows, err := mSvc.Daily(q)
			if err != nil {
				writeServiceError(w, r, err)
				return
			}
			render.JSON(w, r, rows)
		})
	})

	mux.Post("/export/run", func(w http.ResponseWriter, r *http.Request) {
		q, err := metrics.ParseQuery(r.URL.Query())
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err)
			return
		}
		rep, err := mSvc.Report(q)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		n, err := etl.ExportReport(r.Context(), rep)
		if err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, ingest.ErrSinkNotConfigured) {
				status = http.StatusServiceUnavailable
			}
			writeError(w, r, status, err)
			return
		}
		render.JSON(w, r, map[string]any{"exported": n, "dataset_id": rep.DatasetID})
	})

	return mux
}

// uploadBody accepts multipart form uploads (field "file") or a raw body
// named by the filename query parameter.
func uploadBody(r *http.Request) (string, io.ReadCloser, error) {
	if mr, err := r.MultipartReader(); err == nil {
		for {
			part, err := mr.NextPart()
			if err != nil {
				return "", nil, errors.New("multipart upload has no file part")
			}
			if part.FormName() == "file" {
				return part.FileName(), part, nil
			}
			part.Close()
		}
	}
	name := r.URL.Query().Get("filename")
	if name == "" {
		name = "upload.csv"
	}
	return name, r.Body, nil
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, metrics.ErrNotReady) {
		writeError(w, r, http.StatusConflict, err)
		return
	}
	writeError(w, r, http.StatusInternalServerError, err)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	render.Status(r, status)
	render.JSON(w, r, errorBody{Error: err.Error()})
}
