package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AngelCh415/marketing-intel/internal/models"
)

// MemoryStore tracks the upload state of each source and the rows of the
// ones that are ready. Every content change mints a new dataset id.
type MemoryStore struct {
	mu      sync.RWMutex
	states  map[models.Source]models.SourceState
	rows    map[models.Source][]models.RawRow
	digests map[models.Source]string // content hash per ready source
	id      string
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{now: time.Now}
	s.reset()
	return s
}

func (s *MemoryStore) reset() {
	s.states = make(map[models.Source]models.SourceState, len(models.Sources))
	for _, src := range models.Sources {
		s.states[src] = models.SourceState{Source: src, Status: models.StatusNotProvided}
	}
	s.rows = make(map[models.Source][]models.RawRow)
	s.digests = make(map[models.Source]string)
	s.id = uuid.NewString()
}

// Begin marks a source as pending. Its previous rows stay in place until
// Put or Fail settles the upload.
func (s *MemoryStore) Begin(src models.Source, filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.states[src]
	st.Status = models.StatusPending
	st.Filename = filename
	st.Error = ""
	st.UpdatedAt = s.now()
	s.states[src] = st
}

// Put replaces a source's rows and marks it ready. Re-putting identical
// content (same digest) keeps the dataset id. Reports whether the id changed.
func (s *MemoryStore) Put(src models.Source, filename, digest string, rows []models.RawRow) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.digests[src]
	changed := !had || prev != digest || digest == ""
	s.rows[src] = rows
	s.digests[src] = digest
	s.states[src] = models.SourceState{
		Source:    src,
		Status:    models.StatusReady,
		Rows:      len(rows),
		Filename:  filename,
		UpdatedAt: s.now(),
	}
	if changed {
		s.id = uuid.NewString()
	}
	return changed
}

// Fail marks a source failed and discards whatever it held before.
func (s *MemoryStore) Fail(src models.Source, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.states[src]
	_, hadRows := s.rows[src]
	st.Status = models.StatusFailed
	st.Rows = 0
	st.Error = err.Error()
	st.UpdatedAt = s.now()
	s.states[src] = st
	delete(s.rows, src)
	delete(s.digests, src)
	if hadRows {
		s.id = uuid.NewString()
	}
}

func (s *MemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *MemoryStore) States() []models.SourceState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SourceState, 0, len(models.Sources))
	for _, src := range models.Sources {
		out = append(out, s.states[src])
	}
	return out
}

// Snapshot is an immutable view of the store at one instant.
type Snapshot struct {
	ID    string
	Rows  models.RawSet
	Ready bool
}

func (s *MemoryStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{ID: s.id, Rows: make(models.RawSet, len(s.rows)), Ready: true}
	for _, src := range models.Sources {
		if s.states[src].Status != models.StatusReady {
			snap.Ready = false
		}
	}
	for src, rows := range s.rows {
		snap.Rows[src] = rows
	}
	return snap
}
