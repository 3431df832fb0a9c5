package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"tableadmin/internal/domain"
	"tableadmin/internal/domain/models"
	"tableadmin/internal/listing"
	"tableadmin/internal/utils"
)

// MemoryStore is a Gateway over an in-process record set, optionally
// persisted as a {"data": [...]} JSON snapshot.
type MemoryStore struct {
	mu      sync.Mutex
	records []models.Record
	nextID  int64
	path    string

	// Now stamps lastUpdate on every write.
	Now func() time.Time
	// FailOn, when set, is consulted before every mutation; a non-nil error
	// aborts that operation untouched.
	FailOn func(op string, id int64) error
}

type snapshot struct {
	Data []models.Record `json:"data"`
}

func NewMemoryStore(records ...models.Record) *MemoryStore {
	s := &MemoryStore{Now: utils.NowUTC}
	for _, r := range records {
		s.records = append(s.records, r.Clone())
		if r.ID >= s.nextID {
			s.nextID = r.ID + 1
		}
	}
	if s.nextID == 0 {
		s.nextID = 1
	}
	return s
}

// OpenMemoryStore loads the snapshot at path. A missing file starts empty
// and is created on the first write.
func OpenMemoryStore(path string) (*MemoryStore, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		s := NewMemoryStore()
		s.path = path
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var snap snapshot
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	s := NewMemoryStore(snap.Data...)
	s.path = path
	return s, nil
}

func (s *MemoryStore) ListRecords(_ context.Context, q domain.ListQuery) (domain.ListResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return listing.Query(s.records, q), nil
}

func (s *MemoryStore) CreateRecord(_ context.Context, r models.Record) (models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("create", 0); err != nil {
		return models.Record{}, err
	}
	if err := checkAmount(r); err != nil {
		return models.Record{}, err
	}
	out := r.Clone()
	out.ID = s.nextID
	out.LastUpdate = s.Now()
	if out.Status == "" {
		out.Status = models.StatusActive
	}
	next := append(s.snapshotRecords(), out)
	if err := s.commit(next); err != nil {
		return models.Record{}, err
	}
	s.nextID++
	return out.Clone(), nil
}

func (s *MemoryStore) UpdateRecord(_ context.Context, id int64, r models.Record) (models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("update", id); err != nil {
		return models.Record{}, err
	}
	idx := s.indexOf(id)
	if idx < 0 {
		return models.Record{}, domain.NotFoundError{Resource: "record", ID: id}
	}
	if err := checkAmount(r); err != nil {
		return models.Record{}, err
	}
	out := r.Clone()
	out.ID = id
	out.LastUpdate = s.Now()
	if out.Status == "" {
		out.Status = s.records[idx].Status
	}
	next := s.snapshotRecords()
	next[idx] = out
	if err := s.commit(next); err != nil {
		return models.Record{}, err
	}
	return out.Clone(), nil
}

func (s *MemoryStore) DeleteRecord(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("delete", id); err != nil {
		return err
	}
	idx := s.indexOf(id)
	if idx < 0 {
		return domain.NotFoundError{Resource: "record", ID: id}
	}
	next := make([]models.Record, 0, len(s.records)-1)
	next = append(next, s.records[:idx]...)
	next = append(next, s.records[idx+1:]...)
	return s.commit(next)
}

// BulkUpdateStatus is all-or-nothing: an unknown id leaves every record as it was.
func (s *MemoryStore) BulkUpdateStatus(_ context.Context, ids []int64, status models.Status) error {
	if !status.Valid() {
		return domain.ValidationError{Field: "status", Msg: "unknown status " + string(status)}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("bulk_status", 0); err != nil {
		return err
	}
	idxs := make([]int, 0, len(ids))
	for _, id := range ids {
		idx := s.indexOf(id)
		if idx < 0 {
			return domain.NotFoundError{Resource: "record", ID: id}
		}
		idxs = append(idxs, idx)
	}
	now := s.Now()
	next := s.snapshotRecords()
	for _, idx := range idxs {
		next[idx].Status = status
		next[idx].LastUpdate = now
	}
	return s.commit(next)
}

func (s *MemoryStore) GetSummary(context.Context) (domain.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return listing.Summarize(s.records), nil
}

// Len is the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Get returns a copy of one stored record.
func (s *MemoryStore) Get(id int64) (models.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return models.Record{}, false
	}
	return s.records[idx].Clone(), true
}

func (s *MemoryStore) indexOf(id int64) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) fail(op string, id int64) error {
	if s.FailOn == nil {
		return nil
	}
	return s.FailOn(op, id)
}

// snapshotRecords copies the record slice so a write can be staged without
// touching the live set. Caller holds mu.
func (s *MemoryStore) snapshotRecords() []models.Record {
	out := make([]models.Record, len(s.records), len(s.records)+1)
	copy(out, s.records)
	return out
}

// commit saves next and only then makes it the live record set, so a failed
// snapshot write leaves the store as it was. Caller holds mu.
func (s *MemoryStore) commit(next []models.Record) error {
	if err := s.persist(next); err != nil {
		return err
	}
	s.records = next
	return nil
}

func checkAmount(r models.Record) error {
	_, err := utils.ParseRecordAmount(r.Amount)
	return err
}

// persist writes the snapshot through a temp file so a crash never leaves a
// half-written data file.
func (s *MemoryStore) persist(records []models.Record) error {
	if s.path == "" {
		return nil
	}
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return domain.TransportError{Op: "save snapshot", Err: err}
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot{Data: records}); err != nil {
		f.Close()
		os.Remove(tmp)
		return domain.TransportError{Op: "save snapshot", Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return domain.TransportError{Op: "save snapshot", Err: err}
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return domain.TransportError{Op: "save snapshot", Err: err}
	}
	return nil
}
