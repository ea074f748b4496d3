package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

const defaultConfigFile = "conf/config.json"

type Config struct {
	DogApi struct {
		BaseUrl string `json:"baseUrl"`
		TTL     int    `json:"ttl"`
		Timeout int    `json:"timeout"`
	} `json:"dog.ceo"`
	Server struct {
		Listen      string `json:"listen"`
		SessionTTL  int    `json:"sessionTtl"`
		RequireAuth bool   `json:"requireAuth"`
	} `json:"server"`
	Database string `json:"database"`
	Debug    struct {
		PrettyJson bool `json:"prettyJson"`
	} `json:"debug"`
}

func defaultConfig() Config {
	var cfg Config
	cfg.DogApi.BaseUrl = "https://dog.ceo/api"
	cfg.DogApi.TTL = 86400
	cfg.DogApi.Timeout = 30
	cfg.Server.Listen = ":8081"
	cfg.Server.SessionTTL = 3600
	cfg.Database = dbFile
	return cfg
}

// loadConfig reads path over the defaults. A missing file is only an error
// when the caller asked for a specific one.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := decodeConfig(f, &cfg); err != nil {
			return cfg, err
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return cfg, err
	}

	applyEnv(&cfg)
	return cfg, nil
}

func decodeConfig(f io.ReadSeeker, cfg *Config) error {
	decoder := json.NewDecoder(f)
	switch err := decoder.Decode(cfg).(type) {
	case nil:
		return nil
	case *json.SyntaxError:
		f.Seek(0, io.SeekStart)
		pos := findPos(bufio.NewReader(f), int(err.Offset))
		return fmt.Errorf("unable to decode configuration file (Line: %d, Pos: %d); - %v", pos.line, pos.pos, err.Error())
	default:
		return fmt.Errorf("unable to decode configuration file: %w", err)
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DOG_API_BASE_URL"); v != "" {
		cfg.DogApi.BaseUrl = v
	}
	if v := os.Getenv("DOGIMAGES_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv("DOGIMAGES_DATABASE"); v != "" {
		cfg.Database = v
	}
}

type FilePos struct {
	line int
	pos  int
}

func findPos(file *bufio.Reader, offset int) FilePos {
	p := FilePos{line: 1, pos: offset}
	var lineLen int
	for line, err := file.ReadBytes('\n'); len(line) > 0 && err == nil; line, err = file.ReadBytes('\n') {
		if p.pos < len(line) {
			return p
		}
		lineLen += len(line)
		if line[len(line)-1] == '\n' {
			p.line += 1
			p.pos -= lineLen
			lineLen = 0
		}
	}
	return p
}
