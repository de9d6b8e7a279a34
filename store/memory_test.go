package store

import (
	"bytes"
	"context"
	"testing"

	"github.com/carfin/carreco/core"
)

func TestMemoryStoreGetSet(t *testing.T) {
	m := NewMemoryStore()
	defer m.Close()
	ctx := context.Background()

	if _, err := m.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
		t.Errorf("missing key error = %v, want store NOT_FOUND", err)
	}

	if err := m.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := m.Get(ctx, "k")
	if err != nil || !bytes.Equal(got, []byte("v")) {
		t.Errorf("get = %q, %v", got, err)
	}

	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.Get(ctx, "k"); !core.IsStoreNotFound(err) {
		t.Errorf("deleted key error = %v", err)
	}
}

func TestMemoryStoreBatch(t *testing.T) {
	m := NewMemoryStore()
	defer m.Close()
	ctx := context.Background()

	kvs := map[string][]byte{"a": []byte("1"), "b": []byte("2")}
	if err := m.BatchSet(ctx, kvs); err != nil {
		t.Fatalf("batch set: %v", err)
	}
	got, err := m.BatchGet(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("batch get: %v", err)
	}
	if len(got) != 2 || string(got["a"]) != "1" || string(got["b"]) != "2" {
		t.Errorf("batch get = %v", got)
	}
}

func TestMemoryStoreSortedSet(t *testing.T) {
	m := NewMemoryStore()
	defer m.Close()
	ctx := context.Background()

	_ = m.ZAdd(ctx, "board", 3, "v1")
	_ = m.ZAdd(ctx, "board", 9, "v2")
	_ = m.ZAdd(ctx, "board", 6, "v3")

	members, err := m.ZRange(ctx, "board", 0, -1)
	if err != nil {
		t.Fatalf("zrange: %v", err)
	}
	want := []string{"v2", "v3", "v1"}
	if len(members) != len(want) {
		t.Fatalf("members = %v", members)
	}
	for i := range want {
		if members[i] != want[i] {
			t.Fatalf("members = %v, want %v", members, want)
		}
	}

	top, err := m.ZRange(ctx, "board", 0, 1)
	if err != nil || len(top) != 2 || top[0] != "v2" {
		t.Errorf("top 2 = %v, %v", top, err)
	}

	score, err := m.ZScore(ctx, "board", "v3")
	if err != nil || score != 6 {
		t.Errorf("zscore = %v, %v", score, err)
	}
	if _, err := m.ZScore(ctx, "board", "nope"); !core.IsStoreNotFound(err) {
		t.Errorf("missing member error = %v", err)
	}
}

func TestMemoryStoreListSemantics(t *testing.T) {
	m := NewMemoryStore()
	defer m.Close()
	ctx := context.Background()

	// head insert: latest first, like Redis LPUSH
	_ = m.LPush(ctx, "log", []byte("a"))
	_ = m.LPush(ctx, "log", []byte("b"), []byte("c"))

	vals, err := m.LRange(ctx, "log", 0, -1)
	if err != nil {
		t.Fatalf("lrange: %v", err)
	}
	want := []string{"c", "b", "a"}
	if len(vals) != len(want) {
		t.Fatalf("list = %q", vals)
	}
	for i := range want {
		if string(vals[i]) != want[i] {
			t.Fatalf("list = %q, want %v", vals, want)
		}
	}
}

func TestMemoryStoreListTrimCapped(t *testing.T) {
	m := NewMemoryStore()
	defer m.Close()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_ = m.LPush(ctx, "log", []byte{byte('0' + i)})
	}
	if err := m.LTrim(ctx, "log", 0, 4); err != nil {
		t.Fatalf("ltrim: %v", err)
	}

	n, err := m.LLen(ctx, "log")
	if err != nil || n != 5 {
		t.Fatalf("llen = %d, %v", n, err)
	}

	vals, _ := m.LRange(ctx, "log", 0, -1)
	// newest entries survive the trim
	if string(vals[0]) != "9" || string(vals[4]) != "5" {
		t.Errorf("kept = %q", vals)
	}
}
