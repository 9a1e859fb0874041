// Package record implements the central consolidation engine: it
// merges the outputs of the detection stages, OCR passes, and user
// edits into one authoritative JSON record per order, keyed by page and
// line number, with field-level idempotent updates and a checked/locked
// state per line.
//
// The per-order record is the unit of locking. All writes for one order
// are serialized through that order's mutex; writes to different orders
// never block each other. Readers are lock-free: each write publishes a
// fresh deep copy through an atomic pointer, so a reader can never
// observe a half-merged record.
package record

import (
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// RibValidator checks the rib letters of a shape_rib_values write
// against the catalog shape they belong to. A nil validator accepts
// everything.
type RibValidator func(catalogNumber string, ribLetters []string) error

// Store is the order record store.
type Store struct {
	dir          string
	log          *slog.Logger
	validateRibs RibValidator

	mu     sync.Mutex // guards the orders map, not the records
	orders map[string]*orderEntry
}

// orderEntry pairs an order's write lock with its current snapshot.
type orderEntry struct {
	mu  sync.Mutex
	rec atomic.Pointer[OrderRecord]
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the structured logger used for storage events.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithRibValidator installs a validator for shape rib letters.
func WithRibValidator(v RibValidator) Option {
	return func(s *Store) { s.validateRibs = v }
}

// Open opens the store rooted at dir, loading any persisted order
// documents.
func Open(dir string, opts ...Option) (*Store, error) {
	s := &Store{
		dir:    dir,
		log:    slog.Default(),
		orders: make(map[string]*orderEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.loadAll(); err != nil {
		return nil, err
	}
	return s, nil
}

// entry returns the entry for an order, optionally creating it. The
// created record is persisted before becoming visible.
func (s *Store) entry(orderID string, create bool) (*orderEntry, error) {
	if err := validateOrderID(orderID); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.orders[orderID]; ok {
		return e, nil
	}
	if !create {
		return nil, &ValidationError{Field: "order_id", Reason: "unknown order " + orderID + " and creation not requested"}
	}
	rec := NewOrderRecord(orderID)
	if err := s.persist(rec); err != nil {
		return nil, err
	}
	e := &orderEntry{}
	e.rec.Store(rec)
	s.orders[orderID] = e
	s.log.Debug("order record created", "order_id", orderID)
	return e, nil
}

// CreateOrder creates an empty record for the order. Creating an order
// that already exists is a no-op.
func (s *Store) CreateOrder(orderID string) error {
	_, err := s.entry(orderID, true)
	return err
}

// GetOrder returns a deep-copy snapshot of the consolidated record, or
// a NotFoundError.
func (s *Store) GetOrder(orderID string) (*OrderRecord, error) {
	if err := validateOrderID(orderID); err != nil {
		return nil, err
	}
	s.mu.Lock()
	e, ok := s.orders[orderID]
	s.mu.Unlock()
	if !ok {
		return nil, &NotFoundError{Resource: "order", Key: orderID}
	}
	return e.rec.Load().Clone(), nil
}

// Orders returns the known order IDs.
func (s *Store) Orders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.orders))
	for id := range s.orders {
		out = append(out, id)
	}
	return out
}

// UpsertHeaderFields merges header keys individually into the order
// record; keys absent from the write stay untouched. When create is
// false and the order is unknown, the write fails with a
// ValidationError.
func (s *Store) UpsertHeaderFields(orderID string, fields map[string]string, create bool) error {
	e, err := s.entry(orderID, create)
	if err != nil {
		return err
	}
	return s.mutate(e, func(rec *OrderRecord) (bool, error) {
		changed := false
		for k, v := range fields {
			if k == "" {
				return changed, &ValidationError{Field: "header_fields", Reason: "empty field name"}
			}
			if rec.HeaderFields[k] != v {
				rec.HeaderFields[k] = v
				changed = true
			}
		}
		return changed, nil
	})
}

// UpsertLineItem merges the given fields into the line item at
// (page, line), creating the page and line as needed. The merge is
// field-level: fields not present in the write are never erased. A
// write touching anything besides the checked flag fails with a
// LineLockedError while the line is checked.
func (s *Store) UpsertLineItem(orderID string, page, line int, fields map[string]any) error {
	if page <= 0 {
		return &ValidationError{Field: "page", Reason: "page number must be positive"}
	}
	if line <= 0 {
		return &ValidationError{Field: "line", Reason: "line number must be positive"}
	}
	e, err := s.entry(orderID, false)
	if err != nil {
		return err
	}
	return s.mutate(e, func(rec *OrderRecord) (bool, error) {
		pl, ok := rec.Pages[page]
		if !ok {
			pl = &PageLines{Lines: make(map[int]*LineItem)}
			rec.Pages[page] = pl
		}
		item, ok := pl.Lines[line]
		if !ok {
			item = &LineItem{}
			pl.Lines[line] = item
		}
		if item.Checked && touchesLockedFields(fields) {
			return false, &LineLockedError{OrderID: orderID, Page: page, Line: line}
		}
		if err := s.checkRibs(item, fields); err != nil {
			return false, err
		}
		changed, err := applyLineFields(item, fields)
		if err != nil {
			return changed, err
		}
		if changed || !ok {
			return true, nil
		}
		return false, nil
	})
}

// SetChecked transitions the line's review state. Setting true locks
// the line against any further field writes; setting false unlocks it.
// The transition itself is always allowed.
func (s *Store) SetChecked(orderID string, page, line int, checked bool) error {
	if page <= 0 || line <= 0 {
		return &ValidationError{Field: "page/line", Reason: "page and line numbers must be positive"}
	}
	e, err := s.entry(orderID, false)
	if err != nil {
		return err
	}
	return s.mutate(e, func(rec *OrderRecord) (bool, error) {
		pl, ok := rec.Pages[page]
		if !ok {
			pl = &PageLines{Lines: make(map[int]*LineItem)}
			rec.Pages[page] = pl
		}
		item, ok := pl.Lines[line]
		if !ok {
			item = &LineItem{}
			pl.Lines[line] = item
		}
		if item.Checked == checked && ok {
			return false, nil
		}
		item.Checked = checked
		return true, nil
	})
}

// SaveUserSection stores a user-drawn override rectangle for the given
// section type, replacing any prior value for that (order, section)
// pair. The rectangle is atomic: last write wins, sub-fields never
// merge. The order record is created when absent, since manual regions
// are exactly the fallback for pages where detection found nothing.
func (s *Store) SaveUserSection(orderID string, section SectionType, rect UserSection) error {
	if !ValidSectionType(section) {
		return &ValidationError{Field: "section_type", Reason: "unknown section type " + string(section)}
	}
	if rect.Width <= 0 || rect.Height <= 0 {
		return &ValidationError{Field: "rectangle", Reason: "non-positive dimensions"}
	}
	if rect.CanvasWidth <= 0 || rect.CanvasHeight <= 0 {
		return &ValidationError{Field: "rectangle", Reason: "missing canvas dimensions"}
	}
	e, err := s.entry(orderID, true)
	if err != nil {
		return err
	}
	return s.mutate(e, func(rec *OrderRecord) (bool, error) {
		if rec.UserSections == nil {
			rec.UserSections = make(map[SectionType]UserSection)
		}
		if rec.UserSections[section] == rect {
			return false, nil
		}
		rec.UserSections[section] = rect
		return true, nil
	})
}

// UserSection returns the stored override for a section, ok=false when
// absent.
func (s *Store) UserSection(orderID string, section SectionType) (UserSection, bool) {
	rec, err := s.GetOrder(orderID)
	if err != nil {
		return UserSection{}, false
	}
	sec, ok := rec.UserSections[section]
	return sec, ok
}

// mutate runs a merge function against a private clone of the order
// record under the order's write lock, persists the result, and only
// then publishes it. A failed persist leaves both the in-memory and
// on-disk state untouched, which is what makes retries safe. Merges
// that change nothing skip the write entirely, so re-applying an
// identical upsert is a no-op.
func (s *Store) mutate(e *orderEntry, apply func(*OrderRecord) (bool, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	clone := e.rec.Load().Clone()
	changed, err := apply(clone)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	clone.UpdatedAt = time.Now().UTC()
	if err := s.persist(clone); err != nil {
		return err
	}
	e.rec.Store(clone)
	return nil
}

// checkRibs validates rib letters in a write against the catalog shape
// the line refers to, using the catalog number from the same write when
// present or the stored one otherwise.
func (s *Store) checkRibs(item *LineItem, fields map[string]any) error {
	if s.validateRibs == nil {
		return nil
	}
	raw, ok := fields[FieldShapeRibValues]
	if !ok {
		return nil
	}
	ribs, err := asRibValues(raw)
	if err != nil {
		return err
	}
	catalog := item.CatalogNumber
	if c, ok := fields[FieldCatalogNumber].(string); ok {
		catalog = c
	}
	return s.validateRibs(catalog, ribKeys(ribs))
}

func validateOrderID(orderID string) error {
	if orderID == "" {
		return &ValidationError{Field: "order_id", Reason: "empty order id"}
	}
	if strings.ContainsAny(orderID, "/\\") {
		return &ValidationError{Field: "order_id", Reason: "order id must not contain path separators"}
	}
	return nil
}
