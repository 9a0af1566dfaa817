package buildopt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"
)

// CacheNames - имена двух разделов кеша service worker
type CacheNames struct {
	Static  string
	Dynamic string
}

// NewCacheNames формирует имена разделов для версии сборки
func NewCacheNames(prefix, version string) CacheNames {
	return CacheNames{
		Static:  fmt.Sprintf("%s-static-%s", prefix, version),
		Dynamic: fmt.Sprintf("%s-dynamic-%s", prefix, version),
	}
}

var serviceWorkerTemplate = template.Must(template.New("sw").Parse(`// Generated by build-optimize. Do not edit.
const VERSION = {{.VersionJSON}};
const STATIC_CACHE = {{.StaticJSON}};
const DYNAMIC_CACHE = {{.DynamicJSON}};
const CACHE_PREFIX = {{.PrefixJSON}};
const PRECACHE_URLS = {{.PrecacheJSON}};

self.addEventListener('install', (event) => {
  event.waitUntil(
    caches.open(STATIC_CACHE)
      .then((cache) => cache.addAll(PRECACHE_URLS))
      .then(() => self.skipWaiting())
  );
});

self.addEventListener('activate', (event) => {
  event.waitUntil(
    caches.keys()
      .then((keys) => Promise.all(
        keys
          .filter((key) => key.startsWith(CACHE_PREFIX + '-') && key !== STATIC_CACHE && key !== DYNAMIC_CACHE)
          .map((key) => caches.delete(key))
      ))
      .then(() => self.clients.claim())
  );
});

self.addEventListener('fetch', (event) => {
  const request = event.request;
  if (request.method !== 'GET') {
    return;
  }
  const url = new URL(request.url);
  if (url.origin !== self.location.origin || url.pathname.startsWith('/api/')) {
    return;
  }

  if (PRECACHE_URLS.includes(url.pathname) && url.pathname !== '/' && url.pathname !== '/index.html') {
    event.respondWith(
      caches.match(request).then((cached) => cached || fetch(request))
    );
    return;
  }

  event.respondWith(
    fetch(request)
      .then((response) => {
        if (response.ok) {
          const copy = response.clone();
          caches.open(DYNAMIC_CACHE).then((cache) => cache.put(request, copy));
        }
        return response;
      })
      .catch(() => caches.match(request).then((cached) => cached || caches.match('/index.html')))
  );
});
`))

// RenderServiceWorker формирует sw.js: статический раздел (cache-first) для ассетов сборки
// и динамический (network-first) для остального. Запросы к /api/ не кешируются.
func RenderServiceWorker(prefix, version string, assets []Asset) ([]byte, error) {
	names := NewCacheNames(prefix, version)

	precache := []string{"/"}
	for _, a := range assets {
		precache = append(precache, a.Href())
	}

	data := map[string]string{}
	for key, v := range map[string]interface{}{
		"VersionJSON":  version,
		"StaticJSON":   names.Static,
		"DynamicJSON":  names.Dynamic,
		"PrefixJSON":   prefix,
		"PrecacheJSON": precache,
	} {
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		data[key] = string(encoded)
	}

	var buf bytes.Buffer
	if err := serviceWorkerTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render service worker: %w", err)
	}
	return buf.Bytes(), nil
}
