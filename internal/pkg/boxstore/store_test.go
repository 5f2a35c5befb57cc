package boxstore

import (
	"os"
	"testing"
)

func TestAllocateLowestFreeID(t *testing.T) {
	base := t.TempDir()
	s := New(base)

	id1, err := s.Allocate()
	if err != nil {
		t.Fatal(err)
	}
	if id1 != 1 {
		t.Fatalf("expected first id to be 1, got %d", id1)
	}

	id2, err := s.Allocate()
	if err != nil {
		t.Fatal(err)
	}
	if id2 != 2 {
		t.Fatalf("expected second id to be 2, got %d", id2)
	}

	if err := s.Delete(id1); err != nil {
		t.Fatal(err)
	}
	if s.Exists(id1) {
		t.Fatal("expected box 1 to no longer exist after Delete")
	}

	id3, err := s.Allocate()
	if err != nil {
		t.Fatal(err)
	}
	if id3 != 1 {
		t.Fatalf("expected freed id 1 to be reused, got %d", id3)
	}
}

func TestAllocateCreatesFreshFileRoot(t *testing.T) {
	base := t.TempDir()
	s := New(base)

	id, err := s.Allocate()
	if err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(s.FileRoot(id))
	if err != nil {
		t.Fatal(err)
	}
	if !fi.IsDir() {
		t.Fatal("file_root should be a directory")
	}
	entries, err := os.ReadDir(s.FileRoot(id))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatal("file_root should be empty after create")
	}
}

func TestAcquireRunLockExclusive(t *testing.T) {
	base := t.TempDir()
	s := New(base)
	id, err := s.Allocate()
	if err != nil {
		t.Fatal(err)
	}

	lock1, err := s.Acquire(id)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Acquire(id); err == nil {
		t.Fatal("expected second Acquire to fail while first is held")
	}
	if err := lock1.Release(); err != nil {
		t.Fatal(err)
	}

	lock2, err := s.Acquire(id)
	if err != nil {
		t.Fatalf("expected Acquire to succeed after Release: %v", err)
	}
	lock2.Release()
}

func TestSaveLoadRoundtrip(t *testing.T) {
	base := t.TempDir()
	s := New(base)
	id, err := s.Allocate()
	if err != nil {
		t.Fatal(err)
	}

	p := &Persisted{
		ID:            id,
		Backend:       "unix",
		BasePath:      base,
		MemoryLimit:   8 * 1024 * 1024,
		WallTimeLimit: 500_000,
		Stdout:        "out",
		Mounts: []MountSpec{
			{Inner: "/ro", Outer: "/usr/bin", RW: false},
		},
	}
	if err := s.Save(p); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load(id)
	if err != nil {
		t.Fatal(err)
	}
	if got.MemoryLimit != p.MemoryLimit || got.Stdout != p.Stdout || len(got.Mounts) != 1 {
		t.Fatalf("roundtrip mismatch: got %+v want %+v", got, p)
	}
}
