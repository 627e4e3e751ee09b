package filestore

import (
	"errors"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	s, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := s.Write("key1", []byte("value1"), false); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := s.Read("key1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "value1" {
		t.Fatalf("expected value1, got %s", got)
	}
}

func TestWriteRejectsExistingKeyWithoutReplace(t *testing.T) {
	s, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := s.Write("key1", []byte("v1"), false); err != nil {
		t.Fatalf("write: %v", err)
	}
	err = s.Write("key1", []byte("v2"), false)
	if !errors.Is(err, ErrKeyExists) {
		t.Fatalf("expected ErrKeyExists, got %v", err)
	}
}

func TestWriteReplaceOverwrites(t *testing.T) {
	s, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := s.Write("key1", []byte("v1"), false); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Write("key1", []byte("v2"), true); err != nil {
		t.Fatalf("write with replace: %v", err)
	}
	got, err := s.Read("key1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "v2" {
		t.Fatalf("expected v2, got %s", got)
	}
}

func TestListAndOccupiedSpace(t *testing.T) {
	s, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := s.Write("a", []byte("12345"), false); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if err := s.Write("b", []byte("67"), false); err != nil {
		t.Fatalf("write b: %v", err)
	}
	keys, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
	occupied, err := s.GetOccupiedSpace()
	if err != nil {
		t.Fatalf("occupied space: %v", err)
	}
	if occupied != 7 {
		t.Fatalf("expected 7 occupied bytes, got %d", occupied)
	}
}

func TestGetUsableSpaceIsPositive(t *testing.T) {
	s, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	usable, err := s.GetUsableSpace()
	if err != nil {
		t.Fatalf("usable space: %v", err)
	}
	if usable == 0 {
		t.Fatal("expected nonzero usable space on a real filesystem")
	}
}
