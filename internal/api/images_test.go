package api

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const noaaImageURL = "https://www.fisheries.noaa.gov/img/blue-whale.jpg"

type stubTransport struct {
	hits    atomic.Int32
	respond func(req *http.Request) (*http.Response, error)
}

func (s *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.hits.Add(1)
	return s.respond(req)
}

func imageResponse(status int, contentType string, body []byte) *http.Response {
	header := http.Header{}
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(body)),
	}
}

func newImageTestServer(t *testing.T, transport *stubTransport, opts Options) *Server {
	t.Helper()
	opts.Store = &fakeStore{}
	if opts.ImageCacheDir == "" {
		opts.ImageCacheDir = t.TempDir()
	}
	if transport != nil {
		opts.ImageClient = &http.Client{Transport: transport}
	}
	return NewServer(opts)
}

func bgRemovePath(raw string) string {
	return "/api/image/bg-remove?url=" + url.QueryEscape(raw)
}

func prefixRemover(b []byte) ([]byte, error) {
	return append([]byte("png:"), b...), nil
}

func TestBgRemove_MissThenHit(t *testing.T) {
	transport := &stubTransport{respond: func(*http.Request) (*http.Response, error) {
		return imageResponse(http.StatusOK, "image/jpeg", []byte("rawjpeg")), nil
	}}
	cacheDir := t.TempDir()
	s := newImageTestServer(t, transport, Options{
		ImageCacheDir: cacheDir,
		Remover:       prefixRemover,
	})

	resp := doGet(t, s, bgRemovePath(noaaImageURL))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, "public, max-age=604800, immutable", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))

	sum := sha256.Sum256([]byte(noaaImageURL))
	hash := hex.EncodeToString(sum[:])
	assert.Equal(t, `W/"`+hash+`"`, resp.Header.Get("ETag"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, []byte("png:rawjpeg"), body)

	cached, err := os.ReadFile(filepath.Join(cacheDir, hash+".png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("png:rawjpeg"), cached)

	resp2 := doGet(t, s, bgRemovePath(noaaImageURL))
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.Equal(t, "HIT", resp2.Header.Get("X-Cache"))
	body2, err := io.ReadAll(resp2.Body)
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, []byte("png:rawjpeg"), body2)

	assert.Equal(t, int32(1), transport.hits.Load())
}

func TestBgRemove_CacheFalseForcesRecompute(t *testing.T) {
	transport := &stubTransport{respond: func(*http.Request) (*http.Response, error) {
		return imageResponse(http.StatusOK, "image/jpeg", []byte("rawjpeg")), nil
	}}
	s := newImageTestServer(t, transport, Options{Remover: prefixRemover})

	resp := doGet(t, s, bgRemovePath(noaaImageURL))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp2 := doGet(t, s, bgRemovePath(noaaImageURL)+"&cache=false")
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.Equal(t, "MISS", resp2.Header.Get("X-Cache"))
	resp2.Body.Close()

	assert.Equal(t, int32(2), transport.hits.Load())
}

func TestBgRemove_RequestHeaders(t *testing.T) {
	var gotUA, gotAccept string
	transport := &stubTransport{respond: func(req *http.Request) (*http.Response, error) {
		gotUA = req.Header.Get("User-Agent")
		gotAccept = req.Header.Get("Accept")
		return imageResponse(http.StatusOK, "image/png", []byte("img")), nil
	}}
	s := newImageTestServer(t, transport, Options{Remover: prefixRemover})

	resp := doGet(t, s, bgRemovePath(noaaImageURL))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	assert.Equal(t, "endangered-ocean/0.1 (+local dev)", gotUA)
	assert.Equal(t, "image/*,*/*;q=0.8", gotAccept)
}

func TestBgRemove_Validation(t *testing.T) {
	s := newImageTestServer(t, nil, Options{Remover: prefixRemover})

	tests := []struct {
		path string
		want string
	}{
		{"/api/image/bg-remove", "missing url"},
		{"/api/image/bg-remove?url=", "missing url"},
		{bgRemovePath("ftp://www.fisheries.noaa.gov/x.jpg"), "invalid url scheme"},
		{bgRemovePath("https://evil.example.com/x.jpg"), "host not allowed"},
		{bgRemovePath("https://noaa.gov.evil.example.com/x.jpg"), "host not allowed"},
	}
	for _, tt := range tests {
		resp := doGet(t, s, tt.path)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, tt.path)

		var body map[string]string
		decodeJSON(t, resp, &body)
		assert.Equal(t, tt.want, body["error"], tt.path)
	}
}

func TestBgRemove_AllowsBareNOAAHost(t *testing.T) {
	transport := &stubTransport{respond: func(*http.Request) (*http.Response, error) {
		return imageResponse(http.StatusOK, "image/jpeg", []byte("img")), nil
	}}
	s := newImageTestServer(t, transport, Options{Remover: prefixRemover})

	resp := doGet(t, s, bgRemovePath("https://FISHERIES.NOAA.GOV/img/x.jpg"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestBgRemove_Disabled(t *testing.T) {
	s := newImageTestServer(t, nil, Options{DisableImageProxy: true})

	resp := doGet(t, s, bgRemovePath(noaaImageURL))
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body map[string]string
	decodeJSON(t, resp, &body)
	assert.Contains(t, body["error"], "bg-remove unavailable")
}

func TestBgRemove_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name    string
		respond func(*http.Request) (*http.Response, error)
		want    string
	}{
		{
			name: "network error",
			respond: func(*http.Request) (*http.Response, error) {
				return nil, errors.New("dial tcp: connection refused")
			},
			want: "failed to fetch remote image",
		},
		{
			name: "bad status",
			respond: func(*http.Request) (*http.Response, error) {
				return imageResponse(http.StatusNotFound, "image/jpeg", nil), nil
			},
			want: "remote image returned 404",
		},
		{
			name: "not an image",
			respond: func(*http.Request) (*http.Response, error) {
				return imageResponse(http.StatusOK, "text/html", []byte("<html>")), nil
			},
			want: "remote content was not an image",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := &stubTransport{respond: tt.respond}
			s := newImageTestServer(t, transport, Options{Remover: prefixRemover})

			resp := doGet(t, s, bgRemovePath(noaaImageURL))
			require.Equal(t, http.StatusBadGateway, resp.StatusCode)

			var body map[string]string
			decodeJSON(t, resp, &body)
			assert.Equal(t, tt.want, body["error"])
		})
	}
}

func TestBgRemove_RemoverFailure(t *testing.T) {
	transport := &stubTransport{respond: func(*http.Request) (*http.Response, error) {
		return imageResponse(http.StatusOK, "image/jpeg", []byte("img")), nil
	}}
	s := newImageTestServer(t, transport, Options{
		Remover: func([]byte) ([]byte, error) {
			return nil, errors.New("segmentation did not converge")
		},
	})

	resp := doGet(t, s, bgRemovePath(noaaImageURL))
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body map[string]string
	decodeJSON(t, resp, &body)
	assert.Equal(t, "background removal failed", body["error"])
}
