// Package web holds the HTML templates and static assets served by the API.
package web

import "embed"

// FS contains templates/*.html and static/*
//
//go:embed templates/*.html static/*
var FS embed.FS
