package metrics

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/AngelCh415/marketing-intel/internal/config"
	"github.com/AngelCh415/marketing-intel/internal/fixture"
	"github.com/AngelCh415/marketing-intel/internal/models"
	"github.com/AngelCh415/marketing-intel/internal/observability"
	"github.com/AngelCh415/marketing-intel/internal/pipeline"
	"github.com/AngelCh415/marketing-intel/internal/store"
)

var ErrNotReady = errors.New("uploaded data is not ready: all four sources must be ready")

const maxCached = 32

// Service builds reports for the presentation layer. Results are cached per
// dataset id and query, so a new upload naturally invalidates them.
type Service struct {
	st      *store.MemoryStore
	fixture fixture.Options
	targets pipeline.Targets
	log     *slog.Logger

	mu    sync.Mutex
	cache map[string]models.Report
}

func NewService(st *store.MemoryStore, cfg config.Config, log *slog.Logger) *Service {
	return &Service{
		st:      st,
		fixture: cfg.Fixture(),
		targets: cfg.Targets(),
		log:     log.With(slog.String("component", "metrics")),
		cache:   map[string]models.Report{},
	}
}

type Query struct {
	Channels []string `validate:"dive,oneof=facebook google tiktok"`
	Days     string   `validate:"oneof=all 30 7"`
	Mode     string   `validate:"oneof=auto sample uploaded"`
	Limit    int      `validate:"gte=0,lte=1000"`
	Offset   int      `validate:"gte=0"`
}

// QueryError is a rejected query parameter.
type QueryError struct{ Msg string }

func (e *QueryError) Error() string { return e.Msg }

var validate = validator.New()

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func ParseQuery(v url.Values) (Query, error) {
	q := Query{
		Days:   norm(v.Get("days")),
		Mode:   norm(v.Get("mode")),
		Limit:  atoiDef(v.Get("limit"), 100),
		Offset: atoiDef(v.Get("offset"), 0),
	}
	if q.Days == "" {
		q.Days = "all"
	}
	if q.Mode == "" {
		q.Mode = "auto"
	}
	for _, raw := range v["channel"] {
		for _, p := range strings.Split(raw, ",") {
			if p = norm(p); p != "" {
				q.Channels = append(q.Channels, p)
			}
		}
	}
	sort.Strings(q.Channels)

	if err := validate.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: invalid value %v", strings.ToLower(fe.Field()), fe.Value()))
			}
			return Query{}, &QueryError{Msg: strings.Join(msgs, "; ")}
		}
		return Query{}, err
	}
	return q, nil
}

func (q Query) filter() pipeline.Filter {
	var f pipeline.Filter
	for _, c := range q.Channels {
		if ch, ok := models.ParseChannel(c); ok {
			f.Channels = append(f.Channels, ch)
		}
	}
	if q.Days != "all" {
		f.Days, _ = strconv.Atoi(q.Days)
	}
	return f
}

func (q Query) key(datasetID string) string {
	return datasetID + "|" + q.Days + "|" + strings.Join(q.Channels, ",")
}

// source resolves the query mode to an explicit data source.
func (s *Service) source(mode string) (string, pipeline.DataSource, error) {
	if mode == "sample" {
		return s.sampleID(), pipeline.Sample(s.fixture), nil
	}
	snap := s.st.Snapshot()
	if snap.Ready {
		return snap.ID, pipeline.Uploaded(snap.Rows), nil
	}
	if mode == "uploaded" {
		return "", pipeline.DataSource{}, ErrNotReady
	}
	return s.sampleID(), pipeline.Sample(s.fixture), nil
}

func (s *Service) sampleID() string {
	return fmt.Sprintf("sample-%d-%d-%s", s.fixture.Seed, s.fixture.Days, s.fixture.Start.Format("20060102"))
}

func (s *Service) Report(q Query) (models.Report, error) {
	id, src, err := s.source(q.Mode)
	if err != nil {
		return models.Report{}, err
	}
	key := q.key(id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.cache[key]; ok {
		return r, nil
	}

	start := time.Now()
	out := pipeline.Run(src, q.filter())
	observability.PipelineRuns.WithLabelValues(string(out.Mode)).Inc()
	observability.PipelineDuration.WithLabelValues(string(out.Mode)).Observe(time.Since(start).Seconds())
	observability.DuplicateBusinessDates.Set(float64(len(out.Diagnostics.DuplicateBusinessDates)))
	for src, n := range out.Diagnostics.Rejected {
		observability.RowsRejected.WithLabelValues(string(src)).Add(float64(n))
	}
	if len(out.Diagnostics.DuplicateBusinessDates) > 0 {
		s.log.Warn("duplicate business dates, first record kept",
			slog.String("dataset_id", id),
			slog.Any("dates", out.Diagnostics.DuplicateBusinessDates))
	}
	s.log.Debug("pipeline pass",
		slog.String("dataset_id", id),
		slog.String("mode", string(out.Mode)),
		slog.Int("days", len(out.Daily)),
		slog.Duration("took", time.Since(start)))

	r := models.Report{
		DatasetID:   id,
		Attribution: pipeline.Attribute(out.KPIs, out.Channels),
		Scatter:     pipeline.Scatter(out.Daily),
		Benchmarks:  pipeline.Compare(out.KPIs, s.targets),
		Output:      out,
	}
	if len(s.cache) >= maxCached {
		s.cache = map[string]models.Report{}
	}
	s.cache[key] = r
	return r, nil
}

// Daily returns the paginated joined series.
func (s *Service) Daily(q Query) ([]models.JoinedDay, error) {
	r, err := s.Report(q)
	if err != nil {
		return nil, err
	}
	limit, offset := clampLimitOffset(q.Limit, q.Offset, len(r.Daily))
	return paginate(r.Daily, limit, offset), nil
}

func paginate[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

func atoiDef(s string, d int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}

func clampLimitOffset(limit, offset, n int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = n
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset > n {
		offset = n
	}
	return limit, offset
}
