package buildopt

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Options - параметры генерации артефактов статического деплоя
type Options struct {
	DistDir     string `mapstructure:"dist_dir"`
	SiteName    string `mapstructure:"site_name"`
	CachePrefix string `mapstructure:"cache_prefix"`
	// APIOrigin: если задан, /api/* проксируется на бэкенд вместо SPA fallback
	APIOrigin string `mapstructure:"api_origin"`
}

// LoadOptions читает параметры из переменных окружения BUILD_*
func LoadOptions() (Options, error) {
	vip := viper.New()
	vip.SetDefault("dist_dir", "dist")
	vip.SetDefault("site_name", "selftest")
	vip.SetDefault("cache_prefix", "selftest")
	vip.SetDefault("api_origin", "")

	vip.BindEnv("dist_dir", "BUILD_DIST_DIR")
	vip.BindEnv("site_name", "BUILD_SITE_NAME")
	vip.BindEnv("cache_prefix", "BUILD_CACHE_PREFIX")
	vip.BindEnv("api_origin", "BUILD_API_ORIGIN")

	var opts Options
	if err := vip.Unmarshal(&opts); err != nil {
		return Options{}, fmt.Errorf("failed to unmarshal build options: %w", err)
	}
	opts.APIOrigin = strings.TrimRight(strings.TrimSpace(opts.APIOrigin), "/")
	return opts, opts.Validate()
}

// Validate проверяет обязательные параметры
func (o Options) Validate() error {
	if strings.TrimSpace(o.DistDir) == "" {
		return fmt.Errorf("dist directory is required (check BUILD_DIST_DIR)")
	}
	if strings.TrimSpace(o.CachePrefix) == "" {
		return fmt.Errorf("cache prefix is required (check BUILD_CACHE_PREFIX)")
	}
	if strings.ContainsAny(o.CachePrefix, " \"'`\\") {
		return fmt.Errorf("cache prefix %q contains forbidden characters", o.CachePrefix)
	}
	if o.APIOrigin != "" && !strings.HasPrefix(o.APIOrigin, "https://") && !strings.HasPrefix(o.APIOrigin, "http://") {
		return fmt.Errorf("api origin %q must start with http:// or https://", o.APIOrigin)
	}
	return nil
}
