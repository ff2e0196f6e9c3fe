package ingest

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AngelCh415/marketing-intel/internal/config"
	"github.com/AngelCh415/marketing-intel/internal/models"
	"github.com/AngelCh415/marketing-intel/internal/observability"
	"github.com/AngelCh415/marketing-intel/internal/store"
	"github.com/AngelCh415/marketing-intel/internal/utils"
)

// ETL is the acquisition side: it decodes uploads, remote files and local
// directories into the store, one source at a time.
type ETL struct {
	c       HTTPClient
	st      *store.MemoryStore
	log     *slog.Logger
	cfg     config.Config
	backoff utils.Backoff
}

func NewETL(c HTTPClient, st *store.MemoryStore, log *slog.Logger, cfg config.Config) *ETL {
	return &ETL{
		c:       c,
		st:      st,
		log:     log.With(slog.String("component", "etl")),
		cfg:     cfg,
		backoff: utils.NewBackoff(100*time.Millisecond, 2).WithJitter(150 * time.Millisecond),
	}
}

// Upload decodes body as the given source. The source is pending while it
// decodes, then ready with the new rows or failed with its old rows dropped.
func (e *ETL) Upload(ctx context.Context, src models.Source, filename string, body io.Reader) (models.SourceState, error) {
	e.st.Begin(src, filename)
	b, err := readLimited(body, e.cfg.MaxUploadBytes)
	if err != nil {
		return e.fail(src, err)
	}
	return e.load(ctx, src, filename, b)
}

func (e *ETL) load(ctx context.Context, src models.Source, filename string, b []byte) (models.SourceState, error) {
	if err := ctx.Err(); err != nil {
		return e.fail(src, err)
	}
	rows, err := Decode(filename, bytes.NewReader(b))
	if err != nil {
		return e.fail(src, err)
	}
	sum := sha256.Sum256(b)
	changed := e.st.Put(src, filename, hex.EncodeToString(sum[:]), rows)

	observability.Uploads.WithLabelValues(string(src), string(models.StatusReady)).Inc()
	observability.SourceRows.WithLabelValues(string(src)).Set(float64(len(rows)))
	e.log.Info("source ready",
		slog.String("source", string(src)),
		slog.String("file", filename),
		slog.Int("rows", len(rows)),
		slog.Bool("dataset_changed", changed))
	return e.state(src), nil
}

func (e *ETL) fail(src models.Source, err error) (models.SourceState, error) {
	derr := &DecodeError{Source: src, Err: err}
	e.st.Fail(src, derr)
	observability.Uploads.WithLabelValues(string(src), string(models.StatusFailed)).Inc()
	observability.SourceRows.WithLabelValues(string(src)).Set(0)
	e.log.Warn("source failed", slog.String("source", string(src)), slog.String("err", err.Error()))
	return e.state(src), derr
}

func (e *ETL) state(src models.Source) models.SourceState {
	for _, s := range e.st.States() {
		if s.Source == src {
			return s
		}
	}
	return models.SourceState{Source: src, Status: models.StatusNotProvided}
}

// FetchAll pulls every configured source URL concurrently. Each source
// settles on its own; the returned map holds the failures.
func (e *ETL) FetchAll(ctx context.Context) (map[models.Source]error, error) {
	urls := e.cfg.SourceURLs()
	if len(urls) == 0 {
		return nil, ErrNoSources
	}
	var (
		mu   sync.Mutex
		errs = map[models.Source]error{}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(models.Sources))
	for src, u := range urls {
		g.Go(func() error {
			e.st.Begin(src, u)
			var err error
			b, ferr := fetchWithRetry(gctx, e.c, e.backoff, u, e.cfg.MaxUploadBytes)
			if ferr != nil {
				_, err = e.fail(src, ferr)
			} else {
				_, err = e.load(gctx, src, filenameFromURL(u), b)
			}
			if err != nil {
				mu.Lock()
				errs[src] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errs, nil
}

func filenameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return path.Base(u.Path)
}

// LoadDir reads Facebook, Google, TikTok and Business files (.csv or .xlsx,
// any case) from dir. Sources with no file stay not-provided. When one source
// has several candidates, .csv beats .xlsx and then the smallest name wins;
// the others are skipped with a warning.
func (e *ETL) LoadDir(ctx context.Context, dir string) (map[models.Source]error, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	files := map[models.Source]string{}
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		name := ent.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".csv" && ext != ".xlsx" {
			continue
		}
		src, ok := models.ParseSource(strings.TrimSuffix(name, filepath.Ext(name)))
		if !ok {
			continue
		}
		if prev, seen := files[src]; seen {
			keep, skip := prev, name
			if preferFile(name, prev) {
				keep, skip = name, prev
			}
			e.log.Warn("duplicate source file skipped",
				slog.String("source", string(src)),
				slog.String("kept", keep),
				slog.String("skipped", skip))
			files[src] = keep
			continue
		}
		files[src] = name
	}
	for src, name := range files {
		files[src] = filepath.Join(dir, name)
	}

	var (
		mu   sync.Mutex
		errs = map[models.Source]error{}
	)
	g, gctx := errgroup.WithContext(ctx)
	for src, p := range files {
		g.Go(func() error {
			f, err := os.Open(p)
			if err != nil {
				e.st.Begin(src, p)
				_, err = e.fail(src, err)
			} else {
				defer f.Close()
				_, err = e.Upload(gctx, src, filepath.Base(p), f)
			}
			if err != nil {
				mu.Lock()
				errs[src] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errs, nil
}

// preferFile reports whether a should be loaded instead of b.
func preferFile(a, b string) bool {
	ra, rb := fileRank(a), fileRank(b)
	if ra != rb {
		return ra < rb
	}
	return a < b
}

func fileRank(name string) int {
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return 0
	}
	return 1
}

// ExportReport posts the report to the sink signed with HMAC-SHA256 and
// returns the number of daily rows sent.
func (e *ETL) ExportReport(ctx context.Context, report models.Report) (int, error) {
	if e.cfg.SinkURL == "" || e.cfg.SinkSecret == "" {
		return 0, ErrSinkNotConfigured
	}
	b, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("marshal report: %w", err)
	}
	mac := hmac.New(sha256.New, []byte(e.cfg.SinkSecret))
	mac.Write(b)
	sig := hex.EncodeToString(mac.Sum(nil))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.SinkURL, bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature", sig)
	resp, err := e.c.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	e.log.Info("report exported", slog.String("dataset_id", report.DatasetID), slog.Int("days", len(report.Daily)))
	return len(report.Daily), nil
}
