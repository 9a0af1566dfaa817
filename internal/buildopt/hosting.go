package buildopt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Правила кеширования
const (
	cacheImmutable = "public, max-age=31536000, immutable"
	cacheNoCache   = "no-cache, no-store, must-revalidate"
)

// compatibilityDate фиксирован, чтобы вывод не зависел от даты сборки
const compatibilityDate = "2024-09-23"

// HeaderRule - набор заголовков для шаблона пути
type HeaderRule struct {
	Path    string
	Headers []Header
}

// Header - пара имя/значение
type Header struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

var securityHeaders = []Header{
	{Key: "X-Content-Type-Options", Value: "nosniff"},
	{Key: "X-Frame-Options", Value: "DENY"},
	{Key: "Referrer-Policy", Value: "strict-origin-when-cross-origin"},
	{Key: "Permissions-Policy", Value: "camera=(), microphone=(), geolocation=()"},
}

// headerRules возвращает общие для всех платформ правила
func headerRules() []HeaderRule {
	return []HeaderRule{
		{Path: "/assets/*", Headers: []Header{{Key: "Cache-Control", Value: cacheImmutable}}},
		{Path: "/" + ServiceWorkerFile, Headers: []Header{
			{Key: "Cache-Control", Value: cacheNoCache},
			{Key: "Service-Worker-Allowed", Value: "/"},
		}},
		{Path: "/index.html", Headers: []Header{{Key: "Cache-Control", Value: cacheNoCache}}},
		{Path: "/*", Headers: securityHeaders},
	}
}

// ============================================================================
// Vercel
// ============================================================================

type vercelHeaderRule struct {
	Source  string   `json:"source"`
	Headers []Header `json:"headers"`
}

type vercelRewrite struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

type vercelConfig struct {
	Headers  []vercelHeaderRule `json:"headers"`
	Rewrites []vercelRewrite    `json:"rewrites"`
}

// RenderVercelConfig формирует vercel.json
func RenderVercelConfig(opts Options) ([]byte, error) {
	var cfg vercelConfig
	for _, rule := range headerRules() {
		cfg.Headers = append(cfg.Headers, vercelHeaderRule{
			Source:  vercelPattern(rule.Path),
			Headers: rule.Headers,
		})
	}
	if opts.APIOrigin != "" {
		cfg.Rewrites = append(cfg.Rewrites, vercelRewrite{Source: "/api/:path*", Destination: opts.APIOrigin + "/api/:path*"})
	}
	cfg.Rewrites = append(cfg.Rewrites, vercelRewrite{Source: "/((?!api/|assets/).*)", Destination: "/index.html"})

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode vercel.json: %w", err)
	}
	return append(data, '\n'), nil
}

func vercelPattern(p string) string {
	if strings.HasSuffix(p, "/*") {
		return strings.TrimSuffix(p, "*") + "(.*)"
	}
	return p
}

// ============================================================================
// Netlify
// ============================================================================

type netlifyBuild struct {
	Publish string `toml:"publish"`
}

type netlifyHeaderRule struct {
	For    string            `toml:"for"`
	Values map[string]string `toml:"values"`
}

type netlifyRedirect struct {
	From   string `toml:"from"`
	To     string `toml:"to"`
	Status int    `toml:"status"`
	Force  bool   `toml:"force,omitempty"`
}

type netlifyConfig struct {
	Build     netlifyBuild        `toml:"build"`
	Headers   []netlifyHeaderRule `toml:"headers"`
	Redirects []netlifyRedirect   `toml:"redirects"`
}

// RenderNetlifyConfig формирует netlify.toml
func RenderNetlifyConfig(opts Options) ([]byte, error) {
	cfg := netlifyConfig{Build: netlifyBuild{Publish: "."}}
	for _, rule := range headerRules() {
		values := make(map[string]string, len(rule.Headers))
		for _, h := range rule.Headers {
			values[h.Key] = h.Value
		}
		cfg.Headers = append(cfg.Headers, netlifyHeaderRule{For: rule.Path, Values: values})
	}
	if opts.APIOrigin != "" {
		cfg.Redirects = append(cfg.Redirects, netlifyRedirect{From: "/api/*", To: opts.APIOrigin + "/api/:splat", Status: 200, Force: true})
	}
	cfg.Redirects = append(cfg.Redirects, netlifyRedirect{From: "/*", To: "/index.html", Status: 200})

	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode netlify.toml: %w", err)
	}
	return data, nil
}

// ============================================================================
// Cloudflare Pages
// ============================================================================

type wranglerConfig struct {
	Name                string            `toml:"name"`
	CompatibilityDate   string            `toml:"compatibility_date"`
	PagesBuildOutputDir string            `toml:"pages_build_output_dir"`
	Vars                map[string]string `toml:"vars,omitempty"`
}

// RenderWranglerConfig формирует wrangler.toml. Заголовки и редиректы Cloudflare Pages
// читает из _headers и _redirects.
func RenderWranglerConfig(opts Options, version string) ([]byte, error) {
	cfg := wranglerConfig{
		Name:                opts.SiteName,
		CompatibilityDate:   compatibilityDate,
		PagesBuildOutputDir: ".",
		Vars:                map[string]string{"BUILD_VERSION": version},
	}
	if opts.APIOrigin != "" {
		cfg.Vars["API_ORIGIN"] = opts.APIOrigin
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode wrangler.toml: %w", err)
	}
	return data, nil
}

// RenderHeadersFile формирует _headers (Cloudflare Pages, Netlify)
func RenderHeadersFile() []byte {
	var b strings.Builder
	for i, rule := range headerRules() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(rule.Path + "\n")
		for _, h := range rule.Headers {
			fmt.Fprintf(&b, "  %s: %s\n", h.Key, h.Value)
		}
	}
	return []byte(b.String())
}

// RenderRedirectsFile формирует _redirects с SPA fallback
func RenderRedirectsFile(opts Options) []byte {
	var b strings.Builder
	if opts.APIOrigin != "" {
		fmt.Fprintf(&b, "/api/*  %s/api/:splat  200\n", opts.APIOrigin)
	}
	b.WriteString("/*  /index.html  200\n")
	return []byte(b.String())
}
