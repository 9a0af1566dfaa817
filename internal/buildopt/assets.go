package buildopt

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Файлы, которые пишет Generate. Они не входят в список ассетов и версию,
// поэтому повторный запуск дает тот же результат.
const (
	ServiceWorkerFile   = "sw.js"
	PreloadManifestFile = "preload-manifest.json"
	VercelConfigFile    = "vercel.json"
	NetlifyConfigFile   = "netlify.toml"
	WranglerConfigFile  = "wrangler.toml"
	HeadersFile         = "_headers"
	RedirectsFile       = "_redirects"
)

var generatedFiles = map[string]bool{
	ServiceWorkerFile:   true,
	PreloadManifestFile: true,
	VercelConfigFile:    true,
	NetlifyConfigFile:   true,
	WranglerConfigFile:  true,
	HeadersFile:         true,
	RedirectsFile:       true,
}

// versionLength - число hex-символов SHA-256 в версии сборки
const versionLength = 12

// Asset - файл сборки
type Asset struct {
	// Path - путь относительно dist через "/"
	Path string
	Size int64
}

// Href возвращает абсолютный URL ассета на сайте
func (a Asset) Href() string {
	return "/" + a.Path
}

// IsHashedAsset проверяет, что файл лежит в assets/ (имена с хешем, можно кешировать навсегда)
func (a Asset) IsHashedAsset() bool {
	return strings.HasPrefix(a.Path, "assets/")
}

// ScanAssets возвращает файлы сборки, отсортированные по пути
func ScanAssets(distDir string) ([]Asset, error) {
	info, err := os.Stat(distDir)
	if err != nil {
		return nil, fmt.Errorf("dist directory %q: %w", distDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("dist path %q is not a directory", distDir)
	}

	var assets []Asset
	err = filepath.WalkDir(distDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != distDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(distDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if generatedFiles[rel] || strings.HasPrefix(path.Base(rel), ".") {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		assets = append(assets, Asset{Path: rel, Size: fi.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan dist directory: %w", err)
	}

	sort.Slice(assets, func(i, j int) bool { return assets[i].Path < assets[j].Path })
	return assets, nil
}

// ComputeVersion хеширует пути и содержимое ассетов в порядке сортировки
func ComputeVersion(distDir string, assets []Asset) (string, error) {
	h := sha256.New()
	for _, a := range assets {
		io.WriteString(h, a.Path)
		h.Write([]byte{0})
		f, err := os.Open(filepath.Join(distDir, filepath.FromSlash(a.Path)))
		if err != nil {
			return "", fmt.Errorf("open asset %s: %w", a.Path, err)
		}
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return "", fmt.Errorf("read asset %s: %w", a.Path, err)
		}
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:versionLength], nil
}
