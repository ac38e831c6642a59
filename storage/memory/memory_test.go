package memory

import (
	"errors"
	"testing"

	"github.com/riskpad/riskpad/storage"
)

func TestRepository_PutGet(t *testing.T) {
	r := NewRepository()
	if err := r.Put("cookies", "csrf_access_token", []byte("tok")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := r.Get("cookies", "csrf_access_token")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "tok" {
		t.Errorf("got %q, want %q", got, "tok")
	}
}

func TestRepository_GetMissing(t *testing.T) {
	r := NewRepository()
	if _, err := r.Get("cookies", "nope"); !errors.Is(err, storage.ErrBucketNotFound) {
		t.Errorf("expected ErrBucketNotFound, got %v", err)
	}
	r.Put("cookies", "other", []byte("x"))
	if _, err := r.Get("cookies", "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRepository_Delete(t *testing.T) {
	r := NewRepository()
	r.Put("cookies", "a", []byte("1"))
	if err := r.Delete("cookies", "a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := r.Get("cookies", "a"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := r.Delete("cookies", "a"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestRepository_List(t *testing.T) {
	r := NewRepository()
	ids, err := r.List("empty")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected empty list, got %v", ids)
	}

	r.Put("cookies", "a", []byte("1"))
	r.Put("cookies", "b", []byte("2"))
	ids, err = r.List("cookies")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("expected 2 ids, got %v", ids)
	}
}

func TestRepository_GetReturnsCopy(t *testing.T) {
	r := NewRepository()
	r.Put("cookies", "a", []byte("abc"))
	got, _ := r.Get("cookies", "a")
	got[0] = 'z'
	again, _ := r.Get("cookies", "a")
	if string(again) != "abc" {
		t.Errorf("stored value mutated through returned slice: %q", again)
	}
}
