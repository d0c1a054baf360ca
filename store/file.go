package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jsphweid/scorepad/model"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// FormatOf picks the format from a file extension, defaulting to JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

func encode(data model.ScoreData, format Format) ([]byte, error) {
	if format == YAML {
		if data.Measures == nil {
			data.Measures = []model.Measure{}
		}
		return yaml.Marshal(data)
	}
	return Marshal(data)
}

func decode(b []byte, format Format) (model.ScoreData, error) {
	if format == YAML {
		var data model.ScoreData
		if err := yaml.Unmarshal(b, &data); err != nil {
			return model.ScoreData{}, fmt.Errorf("could not decode score: %w", err)
		}
		normalize(&data)
		return data, nil
	}
	return Unmarshal(b)
}

// ReadFile loads a score file, JSON or YAML by extension.
func ReadFile(path string) (model.ScoreData, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.ScoreData{}, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return model.ScoreData{}, err
	}
	return decode(b, FormatOf(path))
}

// WriteFile replaces path atomically.
func WriteFile(path string, data model.ScoreData) error {
	b, err := encode(data, FormatOf(path))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// File keeps one file per key in a directory.
type File struct {
	Dir    string
	Format Format
}

func NewFile(dir string, format Format) *File {
	if format == "" {
		format = JSON
	}
	return &File{Dir: dir, Format: format}
}

func (f *File) path(key string) string {
	return filepath.Join(f.Dir, key+"."+string(f.Format))
}

func (f *File) Save(key string, data model.ScoreData) error {
	return WriteFile(f.path(key), data)
}

func (f *File) Load(key string) (model.ScoreData, error) {
	return ReadFile(f.path(key))
}

// Keys lists the stored keys in order.
func (f *File) Keys() ([]string, error) {
	entries, err := os.ReadDir(f.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	suffix := "." + string(f.Format)
	var keys []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			keys = append(keys, strings.TrimSuffix(e.Name(), suffix))
		}
	}
	sort.Strings(keys)
	return keys, nil
}
