package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/voyagen/livecatalog/internal/models"
	"github.com/voyagen/livecatalog/internal/store"
)

type fakeCounter struct {
	counts map[string]int
	err    error
	calls  []bool // force flag per call
}

func (f *fakeCounter) CountChannels(ctx context.Context, src models.Source, force bool) (int, error) {
	f.calls = append(f.calls, force)
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[src.URL], nil
}

func seedOf(sources ...models.Source) SeedLoader {
	return SeedFunc(func() ([]models.Source, error) { return sources, nil })
}

func strPtr(s string) *string { return &s }

func TestList_ImportsSeedOnce(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seed, err := ParseSeed([]byte(`{"live_sources": {"cctv1": {"name": "CCTV-1", "url": "https://x/list.m3u8"}}}`))
	if err != nil {
		t.Fatal(err)
	}
	loads := 0
	c := New(st, SeedFunc(func() ([]models.Source, error) {
		loads++
		return seed, nil
	}), nil)

	sources, err := c.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sources) != 1 {
		t.Fatalf("expected 1 source, got %d", len(sources))
	}
	got := sources[0]
	want := models.Source{Key: "cctv1", Name: "CCTV-1", URL: "https://x/list.m3u8", From: models.OriginConfig}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}

	if _, err := c.List(ctx); err != nil {
		t.Fatal(err)
	}
	if loads != 1 {
		t.Errorf("seed loaded %d times, want 1", loads)
	}
	persisted, _ := st.GetSourceCatalog(ctx)
	if len(persisted) != 1 {
		t.Errorf("seed not persisted: %+v", persisted)
	}
}

func TestList_SeedFailureYieldsEmpty(t *testing.T) {
	c := New(store.NewMemory(), SeedFunc(func() ([]models.Source, error) {
		return nil, errors.New("no such file")
	}), nil)
	sources, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if sources == nil || len(sources) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", sources)
	}
}

func TestListEnabled_SortsAndFilters(t *testing.T) {
	c := New(store.NewMemory(), seedOf(
		models.Source{Key: "a", Order: 2, From: models.OriginConfig},
		models.Source{Key: "b", Order: 0, From: models.OriginConfig, Disabled: true},
		models.Source{Key: "c", Order: 1, From: models.OriginConfig},
	), nil)
	enabled, err := c.ListEnabled(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(enabled) != 2 || enabled[0].Key != "c" || enabled[1].Key != "a" {
		t.Errorf("unexpected enabled list: %+v", enabled)
	}
}

func TestAdd(t *testing.T) {
	ctx := context.Background()
	counter := &fakeCounter{counts: map[string]int{"http://x.example.com/a.m3u": 12}}
	c := New(store.NewMemory(), seedOf(models.Source{Key: "cfg", Name: "Cfg", URL: "http://cfg/list.m3u", From: models.OriginConfig}), counter)

	src, err := c.Add(ctx, NewSource{Key: "mine", Name: "Mine", URL: "http://x.example.com/a.m3u", UserAgent: "VLC"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if src.From != models.OriginCustom || src.Order != 1 || src.ChannelCount != 12 || src.UserAgent != "VLC" {
		t.Errorf("unexpected source: %+v", src)
	}

	all, _ := c.List(ctx)
	if len(all) != 2 || all[1].Key != "mine" {
		t.Errorf("source not appended: %+v", all)
	}
}

func TestAdd_Validation(t *testing.T) {
	ctx := context.Background()
	c := New(store.NewMemory(), nil, nil)
	if _, err := c.Add(ctx, NewSource{Key: "dup", Name: "Dup", URL: "http://x/a.m3u"}); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name string
		in   NewSource
	}{
		{"missing key", NewSource{Name: "N", URL: "http://x/a.m3u"}},
		{"missing name", NewSource{Key: "k", URL: "http://x/a.m3u"}},
		{"missing url", NewSource{Key: "k", Name: "N"}},
		{"bad extension", NewSource{Key: "k", Name: "N", URL: "http://x/a.txt"}},
		{"bad scheme", NewSource{Key: "k", Name: "N", URL: "ftp://x/a.m3u"}},
		{"duplicate key", NewSource{Key: "dup", Name: "Other", URL: "http://y/b.m3u8"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before, _ := c.List(ctx)
			_, err := c.Add(ctx, tc.in)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
			after, _ := c.List(ctx)
			if len(before) != len(after) {
				t.Errorf("catalog changed: %d -> %d sources", len(before), len(after))
			}
		})
	}
}

func TestAdd_CountFailureIsSwallowed(t *testing.T) {
	counter := &fakeCounter{err: errors.New("HTTP 500")}
	c := New(store.NewMemory(), nil, counter)
	src, err := c.Add(context.Background(), NewSource{Key: "k", Name: "N", URL: "http://x/a.m3u"})
	if err != nil {
		t.Fatalf("Add should succeed when counting fails: %v", err)
	}
	if src.ChannelCount != 0 {
		t.Errorf("expected count 0, got %d", src.ChannelCount)
	}
}

func TestEdit(t *testing.T) {
	ctx := context.Background()
	counter := &fakeCounter{counts: map[string]int{"http://x/a.m3u": 3, "http://x/b.m3u": 8}}
	c := New(store.NewMemory(), nil, counter)
	if _, err := c.Add(ctx, NewSource{Key: "k", Name: "N", URL: "http://x/a.m3u", EPGURL: "http://epg"}); err != nil {
		t.Fatal(err)
	}

	src, err := c.Edit(ctx, "k", SourceUpdate{Name: strPtr("Renamed")})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if src.Name != "Renamed" || src.URL != "http://x/a.m3u" || src.EPGURL != "http://epg" || src.ChannelCount != 3 {
		t.Errorf("unexpected source after rename: %+v", src)
	}
	if len(counter.calls) != 1 {
		t.Errorf("rename should not recount, got %d calls", len(counter.calls))
	}

	src, err = c.Edit(ctx, "k", SourceUpdate{Name: strPtr(""), URL: strPtr("http://x/b.m3u")})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if src.Name != "Renamed" {
		t.Errorf("empty name should be ignored, got %q", src.Name)
	}
	if src.ChannelCount != 8 {
		t.Errorf("url change should recount, got %d", src.ChannelCount)
	}
	if len(counter.calls) != 2 || !counter.calls[1] {
		t.Errorf("url change should force a recount, calls=%v", counter.calls)
	}

	if _, err := c.Edit(ctx, "k", SourceUpdate{URL: strPtr("http://x/c.mp4")}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if _, err := c.Edit(ctx, "missing", SourceUpdate{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestConfigSourcesAreImmutable(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	c := New(st, seedOf(models.Source{Key: "cfg", Name: "Cfg", URL: "http://cfg/list.m3u", From: models.OriginConfig}), nil)

	if _, err := c.Edit(ctx, "cfg", SourceUpdate{Name: strPtr("X")}); !errors.Is(err, ErrImmutableOrigin) {
		t.Errorf("edit: expected ErrImmutableOrigin, got %v", err)
	}
	if err := c.Delete(ctx, "cfg"); !errors.Is(err, ErrImmutableOrigin) {
		t.Errorf("delete: expected ErrImmutableOrigin, got %v", err)
	}

	src, err := c.Toggle(ctx, "cfg")
	if err != nil {
		t.Fatalf("toggle config source: %v", err)
	}
	if !src.Disabled {
		t.Error("toggle should disable the source")
	}
	src, _ = c.Toggle(ctx, "cfg")
	if src.Disabled {
		t.Error("second toggle should enable the source")
	}
	if src.Name != "Cfg" || src.URL != "http://cfg/list.m3u" {
		t.Errorf("config fields changed: %+v", src)
	}
}

func TestDelete_EvictsCache(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	c := New(st, nil, nil)
	if _, err := c.Add(ctx, NewSource{Key: "k", Name: "N", URL: "http://x/a.m3u"}); err != nil {
		t.Fatal(err)
	}
	if err := st.SetCachedChannels(ctx, "k", models.ChannelCache{SourceKey: "k"}); err != nil {
		t.Fatal(err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if entry, _ := st.GetCachedChannels(ctx, "k"); entry != nil {
		t.Error("cache entry should be evicted")
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := c.Delete(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestReorder(t *testing.T) {
	ctx := context.Background()
	c := New(store.NewMemory(), seedOf(
		models.Source{Key: "a", From: models.OriginConfig, Order: 0},
		models.Source{Key: "b", From: models.OriginConfig, Order: 1},
		models.Source{Key: "c", From: models.OriginConfig, Order: 2},
	), nil)

	got, err := c.Reorder(ctx, []string{"c", "a", "ghost", "c"})
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected unlisted source to be dropped, got %+v", got)
	}
	if got[0].Key != "c" || got[0].Order != 0 || got[1].Key != "a" || got[1].Order != 1 {
		t.Errorf("unexpected order: %+v", got)
	}

	all, _ := c.List(ctx)
	if len(all) != 2 {
		t.Errorf("reorder not persisted: %+v", all)
	}

	if _, err := c.Reorder(ctx, nil); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for nil keys, got %v", err)
	}
}

func TestEdit_FailedRecountEvictsOldChannels(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	counter := &fakeCounter{counts: map[string]int{"http://x/old.m3u": 1}}
	c := New(st, nil, counter)
	if _, err := c.Add(ctx, NewSource{Key: "k", Name: "N", URL: "http://x/old.m3u"}); err != nil {
		t.Fatal(err)
	}
	old := models.ChannelCache{
		SourceKey: "k",
		Channels:  []models.Channel{{Name: "OLD", URL: "http://stream/old"}},
		FetchedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := st.SetCachedChannels(ctx, "k", old); err != nil {
		t.Fatal(err)
	}

	counter.err = errors.New("HTTP 502")
	src, err := c.Edit(ctx, "k", SourceUpdate{URL: strPtr("http://x/new.m3u")})
	if err != nil {
		t.Fatalf("Edit should succeed when recounting fails: %v", err)
	}
	if src.URL != "http://x/new.m3u" || src.ChannelCount != 1 {
		t.Errorf("unexpected source: %+v", src)
	}
	if entry, _ := st.GetCachedChannels(ctx, "k"); entry != nil {
		t.Errorf("channels of the old url still cached: %+v", entry.Channels)
	}
}

func TestEdit_SameURLKeepsCache(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	c := New(st, nil, &fakeCounter{err: errors.New("down")})
	if _, err := c.Add(ctx, NewSource{Key: "k", Name: "N", URL: "http://x/a.m3u"}); err != nil {
		t.Fatal(err)
	}
	if err := st.SetCachedChannels(ctx, "k", models.ChannelCache{SourceKey: "k"}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Edit(ctx, "k", SourceUpdate{URL: strPtr("http://x/a.m3u"), Name: strPtr("M")}); err != nil {
		t.Fatal(err)
	}
	if entry, _ := st.GetCachedChannels(ctx, "k"); entry == nil {
		t.Error("cache evicted although the url did not change")
	}
}
