/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package imageload fetches diagram images and reports their natural size.
// A sheet names a primary image plus fallbacks; the first candidate that
// decodes wins.
package imageload

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"tailormark/internal/config"
	applog "tailormark/internal/log"
)

// ErrNotFound is returned when no candidate could be loaded.
var ErrNotFound = errors.New("no diagram image could be loaded")

// MaxImageBytes bounds a single download.
const MaxImageBytes = 32 << 20

// Info describes a loaded image.
type Info struct {
	Source string // resolved URL or file path
	Index  int    // position in the candidate list
	Width  int
	Height int
	Format string
}

// Loader resolves image references against a base URL or the local disk.
type Loader struct {
	BaseURL string
	Token   string // bearer token for remote assets
	Dir     string // base for relative file paths
	client  *http.Client
	log     *slog.Logger
}

// New creates a loader from the assets config. token may be empty.
func New(cfg config.AssetsConfig, token string) *Loader {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.TLSInsecure {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed asset hosts
	}
	return &Loader{
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: cfg.Timeout(), Transport: tr},
		log:     applog.WithComponent("imageload"),
	}
}

// WithDir returns a copy resolving relative file paths against dir.
func (l *Loader) WithDir(dir string) *Loader {
	c := *l
	c.Dir = dir
	return &c
}

// Resolve turns a reference into an absolute URL or file path.
func (l *Loader) Resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if isRemote(ref) || ref == "" {
		return ref
	}
	if strings.HasPrefix(ref, "file://") {
		return strings.TrimPrefix(ref, "file://")
	}
	if filepath.IsAbs(ref) {
		return ref
	}
	if l.BaseURL != "" {
		return l.BaseURL + "/" + strings.TrimLeft(ref, "/")
	}
	if l.Dir != "" {
		return filepath.Join(l.Dir, ref)
	}
	return ref
}

func isRemote(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Probe reads only the image header of the first candidate that works.
func (l *Loader) Probe(ctx context.Context, candidates []string) (Info, error) {
	info, _, err := l.first(ctx, candidates, false)
	return info, err
}

// Load fully decodes the first candidate that works.
func (l *Loader) Load(ctx context.Context, candidates []string) (image.Image, Info, error) {
	info, img, err := l.first(ctx, candidates, true)
	return img, info, err
}

func (l *Loader) first(ctx context.Context, candidates []string, decode bool) (Info, image.Image, error) {
	var errs []error
	for i, ref := range candidates {
		if strings.TrimSpace(ref) == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return Info{}, nil, err
		}
		src := l.Resolve(ref)
		data, err := l.fetch(ctx, src)
		if err == nil {
			var info Info
			var img image.Image
			info, img, err = decodeBytes(data, decode)
			if err == nil {
				info.Source, info.Index = src, i
				l.log.Debug("diagram image loaded", slog.String("src", src), slog.Int("w", info.Width), slog.Int("h", info.Height))
				return info, img, nil
			}
		}
		l.log.Warn("diagram image candidate failed", slog.String("src", src), slog.Any("err", err))
		errs = append(errs, fmt.Errorf("%s: %w", src, err))
	}
	if len(errs) == 0 {
		return Info{}, nil, ErrNotFound
	}
	return Info{}, nil, fmt.Errorf("%w: %w", ErrNotFound, errors.Join(errs...))
}

func decodeBytes(data []byte, full bool) (Info, image.Image, error) {
	if full {
		img, format, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return Info{}, nil, err
		}
		b := img.Bounds()
		if b.Dx() <= 0 || b.Dy() <= 0 {
			return Info{}, nil, fmt.Errorf("empty image %dx%d", b.Dx(), b.Dy())
		}
		return Info{Width: b.Dx(), Height: b.Dy(), Format: format}, img, nil
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, nil, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Info{}, nil, fmt.Errorf("empty image %dx%d", cfg.Width, cfg.Height)
	}
	return Info{Width: cfg.Width, Height: cfg.Height, Format: format}, nil, nil
}

func (l *Loader) fetch(ctx context.Context, src string) ([]byte, error) {
	if !isRemote(src) {
		f, err := os.Open(src)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, MaxImageBytes))
	}
	u, err := url.Parse(src)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if l.Token != "" && l.sameHost(u) {
		req.Header.Set("Authorization", "Bearer "+l.Token)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("GET %s: %s", u.Path, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes))
}

// sameHost limits the bearer token to the configured asset host.
func (l *Loader) sameHost(u *url.URL) bool {
	if l.BaseURL == "" {
		return false
	}
	b, err := url.Parse(l.BaseURL)
	return err == nil && strings.EqualFold(b.Host, u.Host)
}

// Timeout is exposed for callers building their own context deadline.
func (l *Loader) Timeout() time.Duration { return l.client.Timeout }
