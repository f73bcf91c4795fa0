package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestLocalResource(t *testing.T) {
	_, thisFile, _, _ := runtime.Caller(0)
	res, err := NewResource(context.Background(), thisFile)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	if res.IsRemote() {
		t.Fatal("expected local resource")
	}
	if res.Name() != "resource_test.go" {
		t.Fatalf("expected name to be resource_test.go; got %s", res.Name())
	}

	res2, err := NewResource(context.Background(), "file://"+filepath.ToSlash(thisFile))
	if err != nil {
		t.Fatal(err)
	}
	res2.Close()
}

func TestMissingLocalResource(t *testing.T) {
	_, err := NewResource(context.Background(), filepath.Join(t.TempDir(), "missing.stl"))
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("expected a fetch error; got %v", err)
	}
}

func TestHttpResource(t *testing.T) {
	_, thisFile, _, _ := runtime.Caller(0)
	thisDir := filepath.Dir(thisFile)

	server := httptest.NewServer(http.FileServer(http.Dir(thisDir)))
	defer server.Close()

	fetchUrl := server.URL + "/" + filepath.Base(thisFile) + "?token=abc"
	res, err := NewResource(context.Background(), fetchUrl)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	if !res.IsRemote() {
		t.Fatal("expected remote resource")
	}
	if res.Name() != "resource_test.go" {
		t.Fatalf("expected name to be resource_test.go; got %s", res.Name())
	}
	data, err := io.ReadAll(res)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "TestHttpResource") {
		t.Fatal("expected to read back this file")
	}

	fetchUrl = server.URL + "/file-not-found.foo"
	expError := fmt.Sprintf("resource: fetch failed: could not fetch '%s': status %d", fetchUrl, 404)
	_, err = NewResource(context.Background(), fetchUrl)
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get: %s; got %v", expError, err)
	}
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("expected error to wrap ErrFetch")
	}
}

func TestHttpResourceCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	fetcher := &Fetcher{Client: server.Client()}
	_, err := fetcher.Open(ctx, server.URL+"/slow.stl")
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("expected a fetch error; got %v", err)
	}
}

func TestUnsupportedResourceScheme(t *testing.T) {
	expError := "resource: fetch failed: unsupported scheme 'gopher'"
	_, err := NewResource(context.Background(), "gopher://digging.go")
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get: %s; got %v", expError, err)
	}
}

func TestResourceFromStream(t *testing.T) {
	res := NewResourceFromStream("embedded.stl", strings.NewReader("solid"))
	defer res.Close()

	if res.Path() != "embedded.stl" {
		t.Fatalf("expected path to be embedded.stl; got %s", res.Path())
	}
	data, _ := io.ReadAll(res)
	if string(data) != "solid" {
		t.Fatalf("expected payload to be 'solid'; got %q", data)
	}
}
