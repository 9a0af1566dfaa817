package buildopt

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newDist создает каталог сборки с типичным набором файлов
func newDist(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"index.html":               "<!doctype html><div id=app></div>",
		"favicon.ico":              "ico",
		"assets/index-a1b2c3.js":   "console.log('app')",
		"assets/index-d4e5f6.css":  "body{margin:0}",
		"assets/inter-latin.woff2": "font",
		"assets/logo-778899.png":   "png",
		"assets/data-001122.json":  "{}",
		".well-known/security.txt": "Contact: mailto:admin@example.com",
	}
	for name, content := range files {
		writeFile(t, dir, name, content)
	}
	return dir
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	target := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
	require.NoError(t, os.WriteFile(target, []byte(content), 0o644))
}

func testOptions(dir string) Options {
	return Options{DistDir: dir, SiteName: "selftest", CachePrefix: "selftest"}
}

func TestScanAssets_SortedAndSkipsHidden(t *testing.T) {
	dir := newDist(t)

	assets, err := ScanAssets(dir)
	require.NoError(t, err)

	var paths []string
	for _, a := range assets {
		paths = append(paths, a.Path)
	}
	assert.Equal(t, []string{
		"assets/data-001122.json",
		"assets/index-a1b2c3.js",
		"assets/index-d4e5f6.css",
		"assets/inter-latin.woff2",
		"assets/logo-778899.png",
		"favicon.ico",
		"index.html",
	}, paths)
}

func TestScanAssets_MissingDir(t *testing.T) {
	_, err := ScanAssets(filepath.Join(t.TempDir(), "dist"))
	assert.Error(t, err)
}

func TestBuildPreloadManifest(t *testing.T) {
	assets := []Asset{
		{Path: "assets/a.js"},
		{Path: "assets/b.css"},
		{Path: "assets/c.woff2"},
		{Path: "assets/d.svg"},
		{Path: "assets/e.json"},
		{Path: "robots.txt"},
		{Path: "logo.png"},
	}

	entries := BuildPreloadManifest(assets)

	assert.Equal(t, []PreloadEntry{
		{Href: "/assets/a.js", As: "script", Type: "text/javascript"},
		{Href: "/assets/b.css", As: "style", Type: "text/css"},
		{Href: "/assets/c.woff2", As: "font", Type: "font/woff2", CrossOrigin: "anonymous"},
		{Href: "/assets/d.svg", As: "image", Type: "image/svg+xml"},
	}, entries)
}

func TestGenerate_WritesAllOutputs(t *testing.T) {
	dir := newDist(t)

	result, err := Generate(testOptions(dir))
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{12}$`), result.Version)
	assert.Equal(t, 7, result.Assets)
	assert.Equal(t, 4, result.Preload)
	for _, name := range result.Files {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	sw, err := os.ReadFile(filepath.Join(dir, ServiceWorkerFile))
	require.NoError(t, err)
	assert.Contains(t, string(sw), `"selftest-static-`+result.Version+`"`)
	assert.Contains(t, string(sw), `"selftest-dynamic-`+result.Version+`"`)
	assert.Contains(t, string(sw), `"/assets/index-a1b2c3.js"`)
	assert.Contains(t, string(sw), `startsWith('/api/')`)

	var preload []PreloadEntry
	data, err := os.ReadFile(filepath.Join(dir, PreloadManifestFile))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &preload))
	assert.Len(t, preload, 4)
}

func TestGenerate_VersionIsDeterministic(t *testing.T) {
	dir := newDist(t)

	first, err := Generate(testOptions(dir))
	require.NoError(t, err)
	second, err := Generate(testOptions(dir))
	require.NoError(t, err)
	assert.Equal(t, first.Version, second.Version, "generated files must not affect the version")

	writeFile(t, dir, "assets/index-a1b2c3.js", "console.log('changed')")
	third, err := Generate(testOptions(dir))
	require.NoError(t, err)
	assert.NotEqual(t, first.Version, third.Version)
}

func TestGenerate_MissingDistDir(t *testing.T) {
	_, err := Generate(testOptions(filepath.Join(t.TempDir(), "missing")))
	assert.Error(t, err)
}

func TestRenderVercelConfig(t *testing.T) {
	data, err := RenderVercelConfig(Options{APIOrigin: "https://api.example.com"})
	require.NoError(t, err)

	var cfg vercelConfig
	require.NoError(t, json.Unmarshal(data, &cfg))

	require.Len(t, cfg.Rewrites, 2)
	assert.Equal(t, "https://api.example.com/api/:path*", cfg.Rewrites[0].Destination)
	assert.Equal(t, "/index.html", cfg.Rewrites[1].Destination)

	require.NotEmpty(t, cfg.Headers)
	assert.Equal(t, "/assets/(.*)", cfg.Headers[0].Source)
	assert.Equal(t, cacheImmutable, cfg.Headers[0].Headers[0].Value)
}

func TestRenderNetlifyConfig(t *testing.T) {
	data, err := RenderNetlifyConfig(Options{})
	require.NoError(t, err)

	var cfg netlifyConfig
	require.NoError(t, toml.Unmarshal(data, &cfg))

	require.Len(t, cfg.Redirects, 1)
	assert.Equal(t, netlifyRedirect{From: "/*", To: "/index.html", Status: 200}, cfg.Redirects[0])

	byPath := map[string]map[string]string{}
	for _, rule := range cfg.Headers {
		byPath[rule.For] = rule.Values
	}
	assert.Equal(t, cacheImmutable, byPath["/assets/*"]["Cache-Control"])
	assert.Equal(t, cacheNoCache, byPath["/sw.js"]["Cache-Control"])
	assert.Equal(t, "nosniff", byPath["/*"]["X-Content-Type-Options"])
}

func TestRenderWranglerConfig(t *testing.T) {
	data, err := RenderWranglerConfig(Options{SiteName: "selftest", APIOrigin: "https://api.example.com"}, "abcdef123456")
	require.NoError(t, err)

	var cfg wranglerConfig
	require.NoError(t, toml.Unmarshal(data, &cfg))
	assert.Equal(t, "selftest", cfg.Name)
	assert.Equal(t, compatibilityDate, cfg.CompatibilityDate)
	assert.Equal(t, "abcdef123456", cfg.Vars["BUILD_VERSION"])
	assert.Equal(t, "https://api.example.com", cfg.Vars["API_ORIGIN"])
}

func TestRenderRedirectsFile(t *testing.T) {
	assert.Equal(t, "/*  /index.html  200\n", string(RenderRedirectsFile(Options{})))

	withAPI := string(RenderRedirectsFile(Options{APIOrigin: "https://api.example.com"}))
	assert.True(t, strings.HasPrefix(withAPI, "/api/*  https://api.example.com/api/:splat  200\n"))
}

func TestLoadOptions(t *testing.T) {
	t.Setenv("BUILD_DIST_DIR", "build")
	t.Setenv("BUILD_SITE_NAME", "quiz")
	t.Setenv("BUILD_CACHE_PREFIX", "quiz")
	t.Setenv("BUILD_API_ORIGIN", "https://api.example.com/")

	opts, err := LoadOptions()
	require.NoError(t, err)
	assert.Equal(t, Options{DistDir: "build", SiteName: "quiz", CachePrefix: "quiz", APIOrigin: "https://api.example.com"}, opts)
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"valid", Options{DistDir: "dist", CachePrefix: "app"}, false},
		{"empty dist", Options{CachePrefix: "app"}, true},
		{"empty prefix", Options{DistDir: "dist"}, true},
		{"quoted prefix", Options{DistDir: "dist", CachePrefix: "a'b"}, true},
		{"bad origin", Options{DistDir: "dist", CachePrefix: "app", APIOrigin: "api.example.com"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
