package config

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type SQLiteConfig struct {
	CacheSizeKB int    // negative = KB, positive = pages
	TempStore   string // "MEMORY" or "FILE"
	SyncLevel   string // "OFF", "NORMAL", "FULL", "EXTRA"
}

func GetSQLiteConfig() SQLiteConfig {
	cfg := SQLiteConfig{
		CacheSizeKB: -16000,
		TempStore:   "MEMORY",
		SyncLevel:   "NORMAL",
	}

	if v, ok := os.LookupEnv("SQLITE_CACHE_SIZE"); ok {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.CacheSizeKB = i
		}
	}

	if v, ok := os.LookupEnv("SQLITE_TEMP_STORE"); ok {
		v = strings.ToUpper(v)
		if v == "MEMORY" || v == "FILE" {
			cfg.TempStore = v
		}
	}

	if v, ok := os.LookupEnv("SQLITE_SYNC_LEVEL"); ok {
		v = strings.ToUpper(v)
		if v == "OFF" || v == "NORMAL" || v == "FULL" || v == "EXTRA" {
			cfg.SyncLevel = v
		}
	}

	return cfg
}

func (c SQLiteConfig) ApplyPragmas(db *sql.DB) error {
	pragmas := []struct {
		name  string
		value string
	}{
		{"temp_store", c.TempStore},
		{"cache_size", strconv.Itoa(c.CacheSizeKB)},
		{"journal_mode", "WAL"},
		{"busy_timeout", "5000"},
		{"synchronous", c.SyncLevel},
		{"foreign_keys", "ON"},
	}

	for _, p := range pragmas {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)); err != nil {
			return fmt.Errorf("failed to set PRAGMA %s: %w", p.name, err)
		}
	}

	return nil
}
