// Package state holds one console's list view: criteria, sort, page, the
// rows of that page, the summary and the selection. It never filters
// locally; every change is a query to the gateway.
package state

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"tableadmin/internal/domain"
	"tableadmin/internal/domain/models"
	"tableadmin/internal/gateway"
	"tableadmin/internal/listing"
	"tableadmin/internal/selection"
	"tableadmin/internal/utils"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ErrBusy rejects a user-triggered load while another load is in flight.
var ErrBusy = errors.New("a load is already in progress")

type Store struct {
	gw       gateway.Gateway
	pageSize int

	// loadMu serialises fetches; user loads TryLock it, refreshes wait.
	loadMu  sync.Mutex
	loading atomic.Bool

	mu         sync.RWMutex
	criteria   domain.Criteria
	sort       domain.Sort
	page       int
	total      int
	totalPages int
	records    []models.Record
	summary    domain.Summary
	loaded     bool
	sel        *selection.Tracker
}

func New(gw gateway.Gateway, pageSize int) *Store {
	if pageSize <= 0 {
		pageSize = domain.DefaultPageSize
	}
	return &Store{
		gw:       gw,
		pageSize: pageSize,
		sort:     domain.DefaultSort(),
		page:     1,
		sel:      selection.New(),
	}
}

// Gateway exposes the backend the store queries.
func (s *Store) Gateway() gateway.Gateway { return s.gw }

// Load fetches the current query; used for the first render and the
// refresh button.
func (s *Store) Load(ctx context.Context) error {
	q := s.query()
	return s.userLoad(ctx, "load", q)
}

// ApplyFilter replaces the criteria and returns to page 1.
func (s *Store) ApplyFilter(ctx context.Context, c domain.Criteria) error {
	if err := c.Validate(); err != nil {
		return err
	}
	q := s.query()
	q.Criteria = c
	q.Page = 1
	return s.userLoad(ctx, "apply_filter", q)
}

func (s *Store) ResetFilter(ctx context.Context) error {
	return s.ApplyFilter(ctx, domain.Criteria{})
}

// SetSort orders by an explicit field and direction and returns to page 1.
func (s *Store) SetSort(ctx context.Context, sort domain.Sort) error {
	norm, err := sort.Normalize()
	if err != nil {
		return err
	}
	q := s.query()
	q.Sort = norm
	q.Page = 1
	return s.userLoad(ctx, "set_sort", q)
}

// ToggleSort is the column header click: the same field flips direction,
// a new field starts ascending.
func (s *Store) ToggleSort(ctx context.Context, field string) error {
	s.mu.RLock()
	cur := s.sort
	s.mu.RUnlock()
	next := domain.Sort{Field: field, Order: domain.OrderAsc}
	if cur.Field == field && !cur.Desc() {
		next.Order = domain.OrderDesc
	}
	return s.SetSort(ctx, next)
}

// GoToPage requests page n, clamped to the known page range.
func (s *Store) GoToPage(ctx context.Context, n int) error {
	q := s.query()
	s.mu.RLock()
	pages := s.totalPages
	s.mu.RUnlock()
	q.Page = listing.ClampPage(n, pages)
	return s.userLoad(ctx, "go_to_page", q)
}

func (s *Store) Next(ctx context.Context) error {
	s.mu.RLock()
	p := s.page
	s.mu.RUnlock()
	return s.GoToPage(ctx, p+1)
}

func (s *Store) Prev(ctx context.Context) error {
	s.mu.RLock()
	p := s.page
	s.mu.RUnlock()
	return s.GoToPage(ctx, p-1)
}

// Refresh refetches the current page and the summary after a mutation. It
// waits for any load in flight instead of failing with ErrBusy, and keeps
// the selection of rows that are still on the page.
func (s *Store) Refresh(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	q := s.query()
	res, sum, err := s.fetch(ctx, q)
	if err != nil {
		utils.LogError(utils.RequestIDFrom(ctx), "state", "refresh", err)
		return err
	}
	s.publish(q, res, sum, true)
	return nil
}

func (s *Store) userLoad(ctx context.Context, action string, q domain.ListQuery) error {
	if !s.loadMu.TryLock() {
		return ErrBusy
	}
	defer s.loadMu.Unlock()
	res, sum, err := s.fetch(ctx, q)
	if err != nil {
		utils.LogError(utils.RequestIDFrom(ctx), "state", action, err)
		return err
	}
	s.publish(q, res, sum, false)
	return nil
}

// fetch runs the page and summary queries side by side. A page beyond the
// last one is re-requested at the last page.
func (s *Store) fetch(ctx context.Context, q domain.ListQuery) (domain.ListResult, domain.Summary, error) {
	s.loading.Store(true)
	defer s.loading.Store(false)

	var (
		res domain.ListResult
		sum domain.Summary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		res, err = s.gw.ListRecords(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		sum, err = s.gw.GetSummary(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.ListResult{}, domain.Summary{}, err
	}

	if clamped := listing.ClampPage(q.Page, res.TotalPages); clamped != q.Page && res.Page != clamped {
		q.Page = clamped
		again, err := s.gw.ListRecords(ctx, q)
		if err != nil {
			return domain.ListResult{}, domain.Summary{}, err
		}
		res = again
	}
	return res, sum, nil
}

func (s *Store) publish(q domain.ListQuery, res domain.ListResult, sum domain.Summary, keepSelection bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keep []int64
	if keepSelection {
		keep = s.sel.IDs()
	}
	s.criteria = q.Criteria
	s.sort = q.Sort
	s.total = res.TotalCount
	s.totalPages = res.TotalPages
	if s.totalPages == 0 {
		s.totalPages = listing.TotalPages(res.TotalCount, s.pageSize)
	}
	s.page = res.Page
	if s.page == 0 {
		s.page = q.Page
	}
	s.page = listing.ClampPage(s.page, s.totalPages)
	s.records = res.Records
	s.summary = sum
	s.loaded = true
	s.sel.SetVisible(res.Records)
	for _, id := range keep {
		if !s.sel.IsSelected(id) {
			_, _ = s.sel.Toggle(id)
		}
	}
}

func (s *Store) query() domain.ListQuery {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.ListQuery{Criteria: s.criteria, Sort: s.sort, Page: s.page, PageSize: s.pageSize}
}

// Toggle flips the checkbox of a row on the current page.
func (s *Store) Toggle(id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.Toggle(id)
}

func (s *Store) SelectAll(checked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.SetAll(checked)
}

func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.Clear()
}

// Selection is a consistent copy of the selection and what it implies.
type Selection struct {
	IDs         []int64             `json:"ids"`
	Records     []models.Record     `json:"-"`
	Count       int                 `json:"count"`
	AllSelected bool                `json:"allSelected"`
	Aggregate   selection.Aggregate `json:"aggregate"`
	Action      selection.Action    `json:"action"`
	Total       decimal.Decimal     `json:"-"`
	TotalText   string              `json:"total"`
}

func (s *Store) Selection() Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectionLocked()
}

func (s *Store) selectionLocked() Selection {
	total := s.sel.Total()
	return Selection{
		IDs:         s.sel.IDs(),
		Records:     s.sel.Selected(),
		Count:       s.sel.Count(),
		AllSelected: s.sel.AllSelected(),
		Aggregate:   s.sel.Aggregate(),
		Action:      s.sel.ToggleAction(),
		Total:       total,
		TotalText:   utils.FormatAmount(total),
	}
}

// Find returns a row of the current page.
func (s *Store) Find(id int64) (models.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.ID == id {
			return r.Clone(), true
		}
	}
	return models.Record{}, false
}

// View is an immutable snapshot for rendering.
type View struct {
	Criteria   domain.Criteria   `json:"criteria"`
	Sort       domain.Sort       `json:"sort"`
	Pagination domain.Pagination `json:"pagination"`
	Records    []models.Record   `json:"records"`
	Summary    domain.Summary    `json:"summary"`
	Selection  Selection         `json:"selection"`
	StatusLine string            `json:"statusLine"`
	Loaded     bool              `json:"loaded"`
	Loading    bool              `json:"loading"`
}

func (s *Store) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]models.Record, len(s.records))
	for i, r := range s.records {
		records[i] = r.Clone()
	}
	return View{
		Criteria: s.criteria,
		Sort:     s.sort,
		Pagination: domain.Pagination{
			Page:       s.page,
			PageSize:   s.pageSize,
			Total:      s.total,
			TotalPages: s.totalPages,
		},
		Records:    records,
		Summary:    s.summary,
		Selection:  s.selectionLocked(),
		StatusLine: listing.StatusLine(s.total, s.summary.TotalCount),
		Loaded:     s.loaded,
		Loading:    s.loading.Load(),
	}
}
