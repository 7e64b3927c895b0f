package cache

import (
	"strings"
	"testing"
	"time"
)

func TestKey_StableAndPrefixed(t *testing.T) {
	url := "https://www.fisheries.noaa.gov/species/white-abalone"

	first := Key(url)
	second := Key(url)

	if first != second {
		t.Errorf("Expected stable key, got %q and %q", first, second)
	}
	if !strings.HasPrefix(first, "ocean:v1:") {
		t.Errorf("Expected ocean:v1: prefix, got %q", first)
	}
	if Key("https://www.fisheries.noaa.gov/species/black-abalone") == first {
		t.Error("Expected distinct keys for distinct URLs")
	}
}

func TestDiskCache_RoundTrip(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	key := Key("https://example.com/page")

	if _, found := c.Get(key); found {
		t.Error("Expected miss before Set")
	}

	if err := c.Set(key, []byte("<html>body</html>"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, found := c.Get(key)
	if !found {
		t.Fatal("Expected hit after Set")
	}
	if string(val) != "<html>body</html>" {
		t.Errorf("Expected cached body, got %q", val)
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	key := Key("https://example.com/stale")

	if err := c.Set(key, []byte("old"), -time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, found := c.Get(key); found {
		t.Error("Expected expired entry to miss")
	}
}

func TestLayeredCache_PromotesFromDisk(t *testing.T) {
	dir := t.TempDir()
	key := Key("https://example.com/promote")

	disk := NewDiskCache(dir, time.Hour)
	if err := disk.Set(key, []byte("page"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	layered := NewPageCache(dir)
	val, found := layered.Get(key)
	if !found {
		t.Fatal("Expected disk entry via layered cache")
	}
	if string(val) != "page" {
		t.Errorf("Expected %q, got %q", "page", val)
	}

	// Now served from memory even if the disk entry disappears.
	if err := disk.Delete(key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found := layered.Get(key); !found {
		t.Error("Expected promoted entry in memory layer")
	}
}

func TestMemoryCache_DeleteAndClear(t *testing.T) {
	c := NewMemoryCache(time.Hour, time.Hour)

	c.Set("a", []byte("1"), 0)
	c.Set("b", []byte("2"), 0)

	c.Delete("a")
	if _, found := c.Get("a"); found {
		t.Error("Expected miss after Delete")
	}

	c.Clear()
	if _, found := c.Get("b"); found {
		t.Error("Expected miss after Clear")
	}
}
