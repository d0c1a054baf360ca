// Package store persists scores. Every backend stores the JSON form produced
// by Marshal, except the file store which can also write YAML.
package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jsphweid/scorepad/model"
)

var ErrNotFound = errors.New("score not found")

type Store interface {
	Save(key string, data model.ScoreData) error
	Load(key string) (model.ScoreData, error)
}

func Marshal(data model.ScoreData) ([]byte, error) {
	if data.Measures == nil {
		data.Measures = []model.Measure{}
	}
	return json.Marshal(data)
}

func Unmarshal(b []byte) (model.ScoreData, error) {
	var data model.ScoreData
	if err := json.Unmarshal(b, &data); err != nil {
		return model.ScoreData{}, fmt.Errorf("could not decode score: %w", err)
	}
	normalize(&data)
	return data, nil
}

// normalize replaces nil measures so decoded scores compare equal to the
// ones that were encoded.
func normalize(data *model.ScoreData) {
	for i, m := range data.Measures {
		if m == nil {
			data.Measures[i] = model.Measure{}
		}
	}
}

// KeySaver saves every change under one key. It satisfies the document's
// saver.
type KeySaver struct {
	Store Store
	Key   string
}

func (k KeySaver) Save(data model.ScoreData) error {
	return k.Store.Save(k.Key, data)
}
