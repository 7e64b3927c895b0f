package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

const (
	imageUserAgent    = "endangered-ocean/0.1 (+local dev)"
	imageAccept       = "image/*,*/*;q=0.8"
	imageFetchTimeout = 20 * time.Second
	maxImageBytes     = 20 * 1024 * 1024
)

// allowedImageHosts limits the proxy to NOAA's image hosting, so it
// cannot be used to fetch arbitrary URLs.
var allowedImageHosts = map[string]struct{}{
	"www.fisheries.noaa.gov": {},
	"fisheries.noaa.gov":     {},
}

// imageProxy fetches NOAA photos, strips their background and caches
// the resulting PNGs on disk keyed by URL hash.
type imageProxy struct {
	client   *http.Client
	cacheDir string
	remover  func([]byte) ([]byte, error)
	logger   zerolog.Logger
}

// handleBgRemove returns a species photo as a PNG with a transparent
// background, ready for the frontend to pixelate. Processed images are
// cached for a week; pass cache=false to force a recompute.
func (s *Server) handleBgRemove(c *fiber.Ctx) error {
	if s.images.remover == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "bg-remove unavailable: background removal is disabled")
	}

	safeURL, err := validateImageURL(c.Query("url"))
	if err != nil {
		return err
	}
	useCache := c.QueryBool("cache", true)

	sum := sha256.Sum256([]byte(safeURL))
	hash := hex.EncodeToString(sum[:])
	cachePath := filepath.Join(s.images.cacheDir, hash+".png")

	if useCache {
		if data, err := os.ReadFile(cachePath); err == nil {
			s.metrics.ImageCache.WithLabelValues("hit").Inc()
			return servePNG(c, data, hash, "HIT")
		}
	}
	s.metrics.ImageCache.WithLabelValues("miss").Inc()

	raw, _, err := s.images.fetch(c.Context(), safeURL)
	if err != nil {
		return err
	}

	out, err := s.images.remover(raw)
	if err != nil {
		s.logger.Error().Err(err).Str("url", safeURL).Msg("background removal failed")
		return fiber.NewError(fiber.StatusInternalServerError, "background removal failed")
	}
	s.metrics.ImagesProcessed.Inc()
	s.images.writeCache(cachePath, out)

	return servePNG(c, out, hash, "MISS")
}

func servePNG(c *fiber.Ctx, data []byte, hash, cacheState string) error {
	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "public, max-age=604800, immutable")
	c.Set(fiber.HeaderETag, `W/"`+hash+`"`)
	c.Set("X-Cache", cacheState)
	return c.Send(data)
}

func validateImageURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "missing url")
	}
	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", fiber.NewError(fiber.StatusBadRequest, "invalid url scheme")
	}
	host := strings.ToLower(parsed.Hostname())
	if _, ok := allowedImageHosts[host]; !ok {
		return "", fiber.NewError(fiber.StatusBadRequest, "host not allowed")
	}
	return raw, nil
}

func (p *imageProxy) fetch(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fiber.NewError(fiber.StatusBadGateway, "failed to fetch remote image")
	}
	req.Header.Set("User-Agent", imageUserAgent)
	req.Header.Set("Accept", imageAccept)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, "", fiber.NewError(fiber.StatusBadGateway, "failed to fetch remote image")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fiber.NewError(fiber.StatusBadGateway,
			fmt.Sprintf("remote image returned %d", resp.StatusCode))
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", fiber.NewError(fiber.StatusBadGateway, "remote content was not an image")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", fiber.NewError(fiber.StatusBadGateway, "failed to fetch remote image")
	}
	return body, contentType, nil
}

// writeCache persists a processed PNG via a temp file so readers never
// see partial writes. Cache write failures only cost a recompute, so
// they are logged and swallowed.
func (p *imageProxy) writeCache(path string, data []byte) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		p.logger.Warn().Err(err).Str("path", path).Msg("image cache mkdir failed")
		return
	}
	tmp := strings.TrimSuffix(path, ".png") + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		p.logger.Warn().Err(err).Str("path", path).Msg("image cache write failed")
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		p.logger.Warn().Err(err).Str("path", path).Msg("image cache rename failed")
	}
}
