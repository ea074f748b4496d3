package main

import (
	"sort"
	"strings"
)

const (
	FieldBreed       = "breed"
	FieldSubBreed    = "sub_breed"
	FieldNumberImage = "number_image"
)

type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + v[f]
	}
	return strings.Join(parts, "; ")
}

func validateRequired(s SelectionState) ValidationErrors {
	errs := ValidationErrors{}
	if s.BreedIndex == NoSelection {
		errs[FieldBreed] = "Breed is required"
	}
	if s.Count <= 0 {
		errs[FieldNumberImage] = "Number of images is required"
	}
	return errs
}

// validateMode applies the rules that depend on which breed is selected.
func validateMode(s SelectionState, errs ValidationErrors) {
	if s.HasSubBreeds && s.SubBreedIndex == NoSelection && !s.AllSubBreeds {
		errs[FieldSubBreed] = "Sub Breed is required"
	}
}

func validateSelection(s SelectionState) ValidationErrors {
	errs := validateRequired(s)
	validateMode(s, errs)
	if len(errs) == 0 {
		return nil
	}
	return errs
}
