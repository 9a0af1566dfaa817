package buildopt

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Result - итог генерации
type Result struct {
	Version string
	Assets  int
	Preload int
	Files   []string
}

// Generate сканирует dist, вычисляет версию сборки и пишет service worker,
// preload-манифест и конфигурации хостингов в dist
func Generate(opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	assets, err := ScanAssets(opts.DistDir)
	if err != nil {
		return nil, err
	}
	version, err := ComputeVersion(opts.DistDir, assets)
	if err != nil {
		return nil, err
	}
	log.Printf("[BuildOpt] Найдено ассетов: %d, версия сборки %s", len(assets), version)

	preload := BuildPreloadManifest(assets)
	preloadJSON, err := json.MarshalIndent(preload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode preload manifest: %w", err)
	}

	sw, err := RenderServiceWorker(opts.CachePrefix, version, assets)
	if err != nil {
		return nil, err
	}
	vercel, err := RenderVercelConfig(opts)
	if err != nil {
		return nil, err
	}
	netlify, err := RenderNetlifyConfig(opts)
	if err != nil {
		return nil, err
	}
	wrangler, err := RenderWranglerConfig(opts, version)
	if err != nil {
		return nil, err
	}

	outputs := []struct {
		name string
		data []byte
	}{
		{ServiceWorkerFile, sw},
		{PreloadManifestFile, append(preloadJSON, '\n')},
		{VercelConfigFile, vercel},
		{NetlifyConfigFile, netlify},
		{WranglerConfigFile, wrangler},
		{HeadersFile, RenderHeadersFile()},
		{RedirectsFile, RenderRedirectsFile(opts)},
	}

	result := &Result{Version: version, Assets: len(assets), Preload: len(preload)}
	for _, out := range outputs {
		target := filepath.Join(opts.DistDir, out.name)
		if err := os.WriteFile(target, out.data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", out.name, err)
		}
		result.Files = append(result.Files, out.name)
		log.Printf("[BuildOpt] Записан %s (%d байт)", target, len(out.data))
	}
	return result, nil
}
