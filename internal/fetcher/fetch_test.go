package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const samplePlaylist = "#EXTM3U\n#EXTINF:-1 group-title=\"News\",News One\nhttp://example.com/news.m3u8\n"

func TestNewClient_DefaultTimeout(t *testing.T) {
	c := NewClient(0)
	if c.Timeout() != DefaultTimeout {
		t.Errorf("expected default timeout %v, got %v", DefaultTimeout, c.Timeout())
	}
	if c.http.Timeout != DefaultTimeout {
		t.Errorf("expected http client timeout %v, got %v", DefaultTimeout, c.http.Timeout)
	}
}

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(samplePlaylist))
	}))
	defer server.Close()

	channels, err := NewClient(5*time.Second).Fetch(context.Background(), server.URL, "")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(channels) != 1 || channels[0].Name != "News One" || channels[0].Group != "News" {
		t.Errorf("unexpected channels %+v", channels)
	}
}

func TestFetch_UserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(samplePlaylist))
	}))
	defer server.Close()

	c := NewClient(5 * time.Second)
	if _, err := c.Fetch(context.Background(), server.URL, "okhttp/4.9"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotUA != "okhttp/4.9" {
		t.Errorf("expected custom user agent, got %q", gotUA)
	}

	if _, err := c.Fetch(context.Background(), server.URL, ""); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotUA == "okhttp/4.9" {
		t.Error("user agent should not be set when none is given")
	}
}

func TestFetch_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	channels, err := NewClient(5*time.Second).Fetch(context.Background(), server.URL, "")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(channels) != 0 {
		t.Errorf("expected no channels, got %d", len(channels))
	}
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewClient(5*time.Second).Fetch(context.Background(), server.URL, "")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T: %v", err, err)
	}
	if fe.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", fe.StatusCode)
	}
	if fe.Status != "Not Found" {
		t.Errorf("expected reason %q, got %q", "Not Found", fe.Status)
	}
	if !strings.Contains(err.Error(), "HTTP 404: Not Found") {
		t.Errorf("error message should carry the status, got %q", err.Error())
	}
}

func TestFetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	start := time.Now()
	_, err := NewClient(100*time.Millisecond).Fetch(context.Background(), server.URL, "")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T: %v", err, err)
	}
	if fe.StatusCode != 0 {
		t.Errorf("timeout should carry no status, got %d", fe.StatusCode)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("fetch was not aborted by timeout, took %v", elapsed)
	}
}

func TestFetch_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(time.Second).Fetch(context.Background(), url, "")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T: %v", err, err)
	}
}

func TestFetch_BodyTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(samplePlaylist))
	}))
	defer server.Close()

	c := NewClient(5 * time.Second)
	c.maxBody = int64(len(samplePlaylist)) - 1
	channels, err := c.Fetch(context.Background(), server.URL, "")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %v (channels %+v)", err, channels)
	}
	if !strings.Contains(err.Error(), "exceeds") {
		t.Errorf("unexpected error %q", err.Error())
	}

	// A body exactly at the limit is accepted.
	c.maxBody = int64(len(samplePlaylist))
	if _, err := c.Fetch(context.Background(), server.URL, ""); err != nil {
		t.Errorf("body at limit rejected: %v", err)
	}
}
