package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

type Breed struct {
	Name      string   `json:"name"`
	SubBreeds []string `json:"subBreeds"`
}

// BreedCatalog keeps breeds in the order the upstream listed them.
type BreedCatalog []Breed

func (c BreedCatalog) Index(name string) int {
	for i, b := range c {
		if b.Name == name {
			return i
		}
	}
	return NoSelection
}

func (b Breed) SubBreedIndex(name string) int {
	for i, s := range b.SubBreeds {
		if s == name {
			return i
		}
	}
	return NoSelection
}

// parseCatalog walks the message object token by token; decoding into a map
// would lose the upstream ordering.
func parseCatalog(raw json.RawMessage) (BreedCatalog, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("breed list is not an object")
	}
	catalog := BreedCatalog{}
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected breed key %v", tok)
		}
		var subs []string
		if err := dec.Decode(&subs); err != nil {
			return nil, fmt.Errorf("sub-breeds of %s: %w", name, err)
		}
		if subs == nil {
			subs = []string{}
		}
		catalog = append(catalog, Breed{Name: name, SubBreeds: subs})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return catalog, nil
}
