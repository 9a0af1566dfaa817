package report

import (
	"strings"

	"github.com/yourusername/selftest-api/internal/pkg/useragent"
)

const (
	DispositionInline     = "inline"
	DispositionAttachment = "attachment"
)

// DispositionFor выбирает способ отдачи файла: на телефонах и планшетах файл открывается
// во встроенном просмотрщике (оттуда доступно системное меню "Поделиться"), на остальных
// устройствах скачивается. Явное значение override имеет приоритет.
func DispositionFor(userAgent, override string) string {
	switch strings.ToLower(strings.TrimSpace(override)) {
	case DispositionInline:
		return DispositionInline
	case DispositionAttachment:
		return DispositionAttachment
	}
	if useragent.Parse(userAgent).IsHandheld() {
		return DispositionInline
	}
	return DispositionAttachment
}
