package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"fx-alert-bot/internal/infrastructure/config"

	_ "github.com/lib/pq"
)

// 依檔名排序逐一套用 db/migrations 下的 .sql 檔。任一檔案失敗即中止，
// 不做版本記錄，migration 檔案本身需冪等（CREATE ... IF NOT EXISTS）。
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	dir := flag.String("dir", "db/migrations", "path to migrations directory")
	flag.Parse()

	if err := run(*cfgPath, *dir); err != nil {
		log.Fatalf("[Migrate] %v", err)
	}
	log.Printf("[Migrate] all migrations applied")
}

func run(cfgPath, dir string) error {
	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.DB.DSN == "" {
		return fmt.Errorf("db.dsn is not configured")
	}

	files, err := listMigrations(dir)
	if err != nil {
		return err
	}

	pool, err := sql.Open("postgres", cfg.DB.DSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer pool.Close()

	for _, f := range files {
		stmt, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", filepath.Base(f), err)
		}
		log.Printf("[Migrate] applying %s", filepath.Base(f))
		if _, err := pool.Exec(string(stmt)); err != nil {
			return fmt.Errorf("apply %s: %w", filepath.Base(f), err)
		}
	}
	return nil
}

func listMigrations(dir string) ([]string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve migrations dir: %w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("migrations dir: %w", err)
	}
	files, err := filepath.Glob(filepath.Join(abs, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("scan migrations: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .sql files in %s", abs)
	}
	sort.Strings(files)
	return files, nil
}
