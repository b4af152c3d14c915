package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

type Application struct {
	Listen   string   `koanf:"listen"`
	LogLevel string   `koanf:"loglevel"`
	Database Database `koanf:"db"`
	Batching Batching `koanf:"batching"`
}

type Database struct {
	// Path is the sqlite file backing the durable key-value store.
	// Empty means in-memory only: the session works but nothing survives a restart.
	Path string `koanf:"path"`
}

// Batching holds the coalescing windows for time-deferred side effects.
type Batching struct {
	// CacheQuiescenceMs is how long computed per-category totals stay
	// memoized after the last write before the cache self-invalidates.
	CacheQuiescenceMs int `koanf:"cachequiescencems"`
	// SaveWindowMs is how long rapid save requests are collected before a
	// single durable write of the latest values per key.
	SaveWindowMs int `koanf:"savewindowms"`
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Application{
		Listen:   ":8080",
		LogLevel: "info",
		Database: Database{
			Path: "./data/bolsillito.db",
		},
		Batching: Batching{
			CacheQuiescenceMs: 100,
			SaveWindowMs:      250,
		},
	}, "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: "BOLSILLITO_",
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "BOLSILLITO_")), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}
