package middleware

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/selftest-api/internal/service"
)

const sessionTrackTimeout = 3 * time.Second

// SessionRecorder сохраняет IP/сессионную запись
type SessionRecorder interface {
	Track(ctx context.Context, info service.SessionInfo) (bool, error)
}

// TrackSession записывает IP, гео и устройство пользователя вне пути запроса.
// Должен применяться ПОСЛЕ RequireIdentity.
func TrackSession(recorder SessionRecorder, trustGeoHeaders bool) gin.HandlerFunc {
	return trackSession(recorder, trustGeoHeaders, func(fn func()) { go fn() })
}

func trackSession(recorder SessionRecorder, trustGeoHeaders bool, async func(func())) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			c.Next()
			return
		}

		info := service.SessionInfo{
			UserID:    identity.UserID,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}
		if trustGeoHeaders {
			info.Country, info.City = GeoFromHeaders(c.Request.Header)
		}

		async(func() {
			ctx, cancel := context.WithTimeout(context.Background(), sessionTrackTimeout)
			defer cancel()
			if _, err := recorder.Track(ctx, info); err != nil {
				log.Printf("[SessionTracker] Ошибка записи сессии пользователя %s: %v", info.UserID, err)
			}
		})

		c.Next()
	}
}

type netlifyGeo struct {
	City    string `json:"city"`
	Country struct {
		Code string `json:"code"`
	} `json:"country"`
}

// GeoFromHeaders извлекает страну и город из заголовков edge-платформ
// (Cloudflare, Vercel, Netlify). Пустые строки, если данных нет.
func GeoFromHeaders(h http.Header) (country, city string) {
	if v := strings.ToUpper(strings.TrimSpace(h.Get("CF-IPCountry"))); v != "" && v != "XX" && v != "T1" {
		country = v
	}
	if country == "" {
		country = strings.ToUpper(strings.TrimSpace(h.Get("X-Vercel-IP-Country")))
	}
	if v := h.Get("X-Vercel-IP-City"); v != "" {
		if decoded, err := url.PathUnescape(v); err == nil {
			city = decoded
		} else {
			city = v
		}
	}

	if raw := h.Get("X-Nf-Geo"); raw != "" && (country == "" || city == "") {
		if data, err := base64.StdEncoding.DecodeString(raw); err == nil {
			var geo netlifyGeo
			if err := json.Unmarshal(data, &geo); err == nil {
				if country == "" {
					country = strings.ToUpper(geo.Country.Code)
				}
				if city == "" {
					city = geo.City
				}
			}
		}
	}
	return country, city
}
