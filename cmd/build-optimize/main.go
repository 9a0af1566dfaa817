package main

import (
	"errors"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/yourusername/selftest-api/internal/buildopt"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[BuildOpt] Не удалось прочитать .env: %v", err)
	}

	opts, err := buildopt.LoadOptions()
	if err != nil {
		log.Printf("[BuildOpt] Ошибка конфигурации: %v", err)
		os.Exit(1)
	}

	result, err := buildopt.Generate(opts)
	if err != nil {
		log.Printf("[BuildOpt] Ошибка генерации: %v", err)
		os.Exit(1)
	}

	log.Printf("[BuildOpt] Готово: версия %s, ассетов %d, preload %d, файлов %d",
		result.Version, result.Assets, result.Preload, len(result.Files))
}
