package cache

import (
	"testing"
	"time"
)

func TestKeyDistinguishesParts(t *testing.T) {
	a := Key([]byte("query"), []byte("weights"))
	b := Key([]byte("query"), []byte("weights"))
	if a != b {
		t.Error("same parts produced different keys")
	}

	c := Key([]byte("query"), []byte("other"))
	if a == c {
		t.Error("different parts produced the same key")
	}

	// Part boundaries matter: "ab"+"c" is not "a"+"bc".
	if Key([]byte("ab"), []byte("c")) == Key([]byte("a"), []byte("bc")) {
		t.Error("part boundary collision")
	}
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	key := Key([]byte("k"))
	if _, found := c.Get(key); found {
		t.Fatal("empty cache reported a hit")
	}

	if err := c.Set(key, []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, found := c.Get(key)
	if !found || string(got) != "v" {
		t.Fatalf("Get = %q, %v; want \"v\", true", got, found)
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, found := c.Get(key); found {
		t.Error("hit after Clear")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	key := Key([]byte("short"))
	if err := c.Set(key, []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, found := c.Get(key); found {
		t.Error("hit after TTL expired")
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	key := Key([]byte("eval:70-30"))
	if err := c.Set(key, []byte("payload"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, found := c.Get(key)
	if !found || string(got) != "payload" {
		t.Fatalf("Get = %q, %v; want \"payload\", true", got, found)
	}

	if err := c.Delete(key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found := c.Get(key); found {
		t.Error("hit after Delete")
	}
}

func TestDiskCacheExpiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)
	key := Key([]byte("expiring"))
	if err := c.Set(key, []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, found := c.Get(key); found {
		t.Error("hit after TTL expired")
	}
}

func TestLayeredCachePromotion(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Minute)

	key := Key([]byte("layered"))
	if err := c.Set(key, []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// Fresh layered cache over the same directory: the memory layer is
	// cold, the value must come back from disk and get promoted.
	c2 := NewLayeredCache(time.Minute, dir, time.Minute)
	got, found := c2.Get(key)
	if !found || string(got) != "v" {
		t.Fatalf("disk fallback Get = %q, %v; want \"v\", true", got, found)
	}
	if _, found := c2.memory.Get(key); !found {
		t.Error("disk hit was not promoted to memory")
	}
}
