/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
)

// A single inline SVG keeps the binary free of image assets.
const faviconSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 64 64">` +
	`<rect width="64" height="64" rx="12" fill="#1d2633"/>` +
	`<circle cx="32" cy="26" r="12" fill="#f2c14e"/>` +
	`<path d="M12 56c2-12 10-18 20-18s18 6 20 18z" fill="#f2c14e"/>` +
	`<rect x="8" y="20" width="48" height="6" rx="3" fill="#1d2633"/>` +
	`<rect x="6" y="18" width="52" height="8" rx="4" fill="#3b4a5f"/>` +
	`</svg>`

func getFavicon() string {
	return `<link rel="icon" type="image/svg+xml" href="/favicon.svg">
	<meta name="theme-color" content="#1d2633">`
}

func serveFavicon(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.Header().Set("Content-Length", strconv.Itoa(len(faviconSVG)))
		securityHeaders(cfg, w)

		_, err := w.Write([]byte(faviconSVG))
		if err != nil {
			errs <- err

			return
		}
	}
}
