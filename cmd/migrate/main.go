package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/yourusername/selftest-api/internal/config"
	"github.com/yourusername/selftest-api/pkg/database"
)

const usage = `Usage: migrate [-config path] [-path migrations] <command>

Commands:
  up            применить все миграции (по умолчанию)
  down          откатить последнюю миграцию
  force <ver>   установить версию и снять флаг dirty
  version       показать текущую версию
`

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "путь к файлу конфигурации")
	migrationsPath := flag.String("path", "migrations", "папка с SQL-миграциями")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[Migrate] Не удалось прочитать .env: %v", err)
	}

	dbCfg, err := config.LoadDatabase(*configPath)
	if err != nil {
		log.Fatalf("[Migrate] Ошибка конфигурации: %v", err)
	}

	db, err := sql.Open("postgres", dbCfg.PostgresURL())
	if err != nil {
		log.Fatalf("[Migrate] Ошибка открытия БД: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("[Migrate] БД недоступна: %v", err)
	}

	m, err := database.NewMigrator(db, *migrationsPath)
	if err != nil {
		log.Fatalf("[Migrate] %v", err)
	}

	if err := run(m, flag.Args()); err != nil {
		log.Fatalf("[Migrate] %v", err)
	}
}

func run(m *migrate.Migrate, args []string) error {
	command := "up"
	if len(args) > 0 {
		command = args[0]
	}

	switch command {
	case "up":
		return ignoreNoChange(m.Up())
	case "down":
		return ignoreNoChange(m.Steps(-1))
	case "force":
		if len(args) < 2 {
			return fmt.Errorf("force requires a version")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[1], err)
		}
		if err := m.Force(version); err != nil {
			return fmt.Errorf("force version %d: %w", version, err)
		}
		log.Printf("[Migrate] Версия принудительно установлена в %d", version)
		return nil
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("no migrations applied")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("version %d (dirty: %t)\n", version, dirty)
		return nil
	}
	flag.Usage()
	return fmt.Errorf("unknown command %q", command)
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		log.Println("[Migrate] Изменений нет, база данных актуальна")
		return nil
	}
	if err == nil {
		log.Println("[Migrate] Миграции применены")
	}
	return err
}
