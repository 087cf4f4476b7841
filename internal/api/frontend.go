package api

import (
	"bytes"
	"io/fs"
	"net/http"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// TokenMetaName is the meta tag the front-end reads its session token from.
const TokenMetaName = "surrealist-token"

// renderIndex returns index.html with the session token added to its head.
func renderIndex(distFS fs.FS, token string) ([]byte, error) {
	f, err := distFS.Open("index.html")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, err
	}

	doc.Find(`meta[name="` + TokenMetaName + `"]`).Remove()

	meta := doc.Find("head").AppendHtml(`<meta name="` + TokenMetaName + `">`).Find(`meta[name="` + TokenMetaName + `"]`)
	meta.SetAttr("content", token)

	html, err := doc.Html()
	if err != nil {
		return nil, err
	}
	return []byte(html), nil
}

// registerFrontendHandler serves the webview bundle. Unknown paths fall back
// to index.html so client-side routes survive a reload.
func registerFrontendHandler(e *echo.Echo, distFS fs.FS, token string, logger zerolog.Logger) {
	fileServer := http.FileServer(http.FS(distFS))

	var (
		once  sync.Once
		index []byte
		err   error
	)
	loadIndex := func() ([]byte, error) {
		once.Do(func() {
			index, err = renderIndex(distFS, token)
			if err != nil {
				logger.Error().Err(err).Msg("failed to render index.html")
			}
		})
		return index, err
	}

	e.GET("/*", func(c echo.Context) error {
		path := c.Request().URL.Path

		if strings.HasPrefix(path, "/api/") || path == "/ws" {
			return echo.ErrNotFound
		}

		if path != "/" && path != "/index.html" {
			cleanPath := strings.TrimPrefix(path, "/")
			if file, err := distFS.Open(cleanPath); err == nil {
				file.Close()
				fileServer.ServeHTTP(c.Response(), c.Request())
				return nil
			}
		}

		page, err := loadIndex()
		if err != nil {
			return echo.ErrNotFound
		}

		c.Response().Header().Set("Cache-Control", "no-store")
		return c.Stream(http.StatusOK, "text/html; charset=utf-8", bytes.NewReader(page))
	})
}
