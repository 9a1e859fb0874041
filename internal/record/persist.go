package record

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const ordersSubdir = "orders"

// path returns the on-disk location of an order document.
func (s *Store) path(orderID string) string {
	return filepath.Join(s.dir, ordersSubdir, orderID+".json")
}

// persist writes the record to its JSON document atomically: the
// marshaled content goes to a temp file in the same directory and is
// renamed over the previous version, so readers of the file never see a
// torn write and a failed write leaves the old document intact.
func (s *Store) persist(rec *OrderRecord) error {
	dir := filepath.Join(s.dir, ordersSubdir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return &IOError{Op: "mkdir", Path: dir, Err: err}
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return &IOError{Op: "marshal", Path: s.path(rec.OrderID), Err: err}
	}
	tmp := s.path(rec.OrderID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return &IOError{Op: "write", Path: tmp, Err: err}
	}
	if err := os.Rename(tmp, s.path(rec.OrderID)); err != nil {
		_ = os.Remove(tmp)
		return &IOError{Op: "rename", Path: s.path(rec.OrderID), Err: err}
	}
	return nil
}

// loadAll reads every persisted order document into memory.
func (s *Store) loadAll() error {
	dir := filepath.Join(s.dir, ordersSubdir)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return &IOError{Op: "readdir", Path: dir, Err: err}
	}
	for _, de := range entries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path) //nolint:gosec // G304: store-owned directory
		if err != nil {
			return &IOError{Op: "read", Path: path, Err: err}
		}
		var rec OrderRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return &IOError{Op: "unmarshal", Path: path, Err: fmt.Errorf("corrupt order document: %w", err)}
		}
		if rec.OrderID == "" {
			rec.OrderID = strings.TrimSuffix(name, ".json")
		}
		if rec.HeaderFields == nil {
			rec.HeaderFields = make(map[string]string)
		}
		if rec.Pages == nil {
			rec.Pages = make(map[int]*PageLines)
		}
		e := &orderEntry{}
		r := rec
		e.rec.Store(&r)
		s.orders[rec.OrderID] = e
		s.log.Debug("order record loaded", "order_id", rec.OrderID)
	}
	return nil
}
