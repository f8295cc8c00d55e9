package main

import (
	"fmt"
	"os"

	"github.com/kjk/linestore/minioutil"
	"gopkg.in/yaml.v3"
)

// Config is read from a yaml file passed with --config
//
//	file: data/items.jsonl
//	sync_write: true
//	log_dir: logs
//	s3:
//	  endpoint: s3.us-west-001.backblazeb2.com
//	  bucket: backups
type Config struct {
	File               string            `yaml:"file"`
	SyncWrite          bool              `yaml:"sync_write"`
	RemoveBeforeRename bool              `yaml:"remove_before_rename"`
	LogDir             string            `yaml:"log_dir"`
	Verbose            bool              `yaml:"verbose"`
	S3                 *minioutil.Config `yaml:"s3"`
}

func LoadConfig(path string) (*Config, error) {
	d, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err = yaml.Unmarshal(d, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config '%s': %w", path, err)
	}
	return &cfg, nil
}
