package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

// stores returns every backend that can run without external services.
func stores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	result := map[string]Store{"memory": NewMemoryStore()}

	bolt, err := OpenBolt(filepath.Join(dir, "ledger.db"))
	if err != nil {
		t.Fatalf("OpenBolt() error = %v", err)
	}
	result["bolt"] = bolt

	// go-sqlite3 needs cgo; without it the driver fails at open time
	if lite, err := OpenSQL(DriverSQLite, filepath.Join(dir, "ledger.sqlite")); err == nil {
		result["sqlite"] = lite
	} else {
		t.Logf("sqlite backend skipped: %v", err)
	}

	t.Cleanup(func() {
		for _, s := range result {
			s.Close()
		}
	})
	return result
}

var errAbort = errors.New("abort")

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			err := store.Update(ctx, func(tx Tx) error {
				for _, k := range []string{"b", "c", "a"} {
					if err := tx.Put(ctx, CollectionBudgets, k, []byte(k)); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				t.Fatalf("Update() error = %v", err)
			}

			err = store.View(ctx, func(tx Tx) error {
				got, err := tx.Get(ctx, CollectionBudgets, "b")
				if err != nil || string(got) != "b" {
					t.Errorf("Get(b) = %q, %v", got, err)
				}
				if _, err := tx.Get(ctx, CollectionBudgets, "missing"); !errors.Is(err, ErrNotFound) {
					t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
				}
				list, err := tx.List(ctx, CollectionBudgets)
				if err != nil {
					return err
				}
				if len(list) != 3 || string(list[0]) != "a" || string(list[2]) != "c" {
					t.Errorf("List() = %q, want ordered by key", list)
				}
				if err := tx.Put(ctx, CollectionBudgets, "d", []byte("d")); !errors.Is(err, ErrReadOnly) {
					t.Errorf("Put in View error = %v, want ErrReadOnly", err)
				}
				return nil
			})
			if err != nil {
				t.Fatalf("View() error = %v", err)
			}
		})
	}
}

func TestStoreRollback(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Update(ctx, func(tx Tx) error {
				return tx.Put(ctx, CollectionAccounts, "keep", []byte("v1"))
			}); err != nil {
				t.Fatalf("Update() error = %v", err)
			}

			err := store.Update(ctx, func(tx Tx) error {
				if err := tx.Put(ctx, CollectionAccounts, "keep", []byte("v2")); err != nil {
					return err
				}
				if err := tx.Put(ctx, CollectionAccounts, "new", []byte("x")); err != nil {
					return err
				}
				// writes are visible inside the unit of work
				if got, err := tx.Get(ctx, CollectionAccounts, "keep"); err != nil || string(got) != "v2" {
					t.Errorf("Get inside Update = %q, %v", got, err)
				}
				if err := tx.Delete(ctx, CollectionAccounts, "keep"); err != nil {
					return err
				}
				if _, err := tx.Get(ctx, CollectionAccounts, "keep"); !errors.Is(err, ErrNotFound) {
					t.Errorf("Get after Delete error = %v", err)
				}
				return errAbort
			})
			if !errors.Is(err, errAbort) {
				t.Fatalf("Update() error = %v, want errAbort", err)
			}

			store.View(ctx, func(tx Tx) error {
				if got, err := tx.Get(ctx, CollectionAccounts, "keep"); err != nil || string(got) != "v1" {
					t.Errorf("after rollback Get(keep) = %q, %v", got, err)
				}
				if _, err := tx.Get(ctx, CollectionAccounts, "new"); !errors.Is(err, ErrNotFound) {
					t.Errorf("after rollback Get(new) error = %v, want ErrNotFound", err)
				}
				return nil
			})
		})
	}
}

func TestOpenUnknownKind(t *testing.T) {
	if _, err := Open("etcd", ""); err == nil {
		t.Error("Open(etcd) error = nil")
	}
}

func TestBind(t *testing.T) {
	q := `SELECT payload FROM ledger_records WHERE collection = ? AND record_key = ?`
	if got := bind(DriverSQLite, q); got != q {
		t.Errorf("bind(sqlite) = %q", got)
	}
	want := `SELECT payload FROM ledger_records WHERE collection = $1 AND record_key = $2`
	if got := bind(DriverPostgres, q); got != want {
		t.Errorf("bind(postgres) = %q, want %q", got, want)
	}
}
