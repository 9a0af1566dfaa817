package buildopt

import (
	"path"
	"strings"
)

// PreloadEntry - подсказка <link rel="preload"> для ассета
type PreloadEntry struct {
	Href        string `json:"href"`
	As          string `json:"as"`
	Type        string `json:"type"`
	CrossOrigin string `json:"crossorigin,omitempty"`
}

type preloadKind struct {
	as          string
	mime        string
	crossOrigin bool
}

var preloadKinds = map[string]preloadKind{
	".js":    {"script", "text/javascript", false},
	".mjs":   {"script", "text/javascript", false},
	".css":   {"style", "text/css", false},
	".woff2": {"font", "font/woff2", true},
	".woff":  {"font", "font/woff", true},
	".ttf":   {"font", "font/ttf", true},
	".otf":   {"font", "font/otf", true},
	".png":   {"image", "image/png", false},
	".jpg":   {"image", "image/jpeg", false},
	".jpeg":  {"image", "image/jpeg", false},
	".webp":  {"image", "image/webp", false},
	".avif":  {"image", "image/avif", false},
	".gif":   {"image", "image/gif", false},
	".svg":   {"image", "image/svg+xml", false},
}

// BuildPreloadManifest отбирает js/css/шрифты/изображения из assets/.
// Порядок совпадает с порядком assets (по пути).
func BuildPreloadManifest(assets []Asset) []PreloadEntry {
	entries := make([]PreloadEntry, 0, len(assets))
	for _, a := range assets {
		if !a.IsHashedAsset() {
			continue
		}
		kind, ok := preloadKinds[strings.ToLower(path.Ext(a.Path))]
		if !ok {
			continue
		}
		entry := PreloadEntry{Href: a.Href(), As: kind.as, Type: kind.mime}
		if kind.crossOrigin {
			entry.CrossOrigin = "anonymous"
		}
		entries = append(entries, entry)
	}
	return entries
}
