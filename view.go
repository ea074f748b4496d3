package main

import "strconv"

type Option struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected,omitempty"`
}

type FormView struct {
	Title               string           `json:"title"`
	Breeds              []Option         `json:"breeds"`
	HasSubBreeds        bool             `json:"hasSubBreeds"`
	SubBreeds           []Option         `json:"subBreeds,omitempty"`
	Counts              []Option         `json:"counts"`
	AvailableImageCount int              `json:"availableImageCount"`
	FieldErrors         ValidationErrors `json:"fieldErrors,omitempty"`
	Notification        Notification     `json:"notification"`
	Images              []DogImage       `json:"images"`
	Rows                [][]DogImage     `json:"-"`
}

func pageTitle(title string) string {
	return title + " | DOG's"
}

func (f *Form) View() FormView {
	f.mu.Lock()
	defer f.mu.Unlock()

	v := FormView{
		Title:               pageTitle(PageTitle),
		Breeds:              make([]Option, len(f.catalog)),
		HasSubBreeds:        f.state.HasSubBreeds,
		Counts:              make([]Option, f.state.AvailableImageCount),
		AvailableImageCount: f.state.AvailableImageCount,
		Notification:        f.notice,
		Images:              make([]DogImage, len(f.displayed)),
	}
	for i, b := range f.catalog {
		v.Breeds[i] = Option{Value: strconv.Itoa(i), Label: b.Name, Selected: i == f.state.BreedIndex}
	}
	if f.state.HasSubBreeds {
		v.SubBreeds = append(v.SubBreeds, Option{Value: SubBreedAll, Label: "All", Selected: f.state.AllSubBreeds})
		for i, s := range f.state.SubBreeds {
			v.SubBreeds = append(v.SubBreeds, Option{Value: strconv.Itoa(i), Label: s, Selected: i == f.state.SubBreedIndex})
		}
	}
	for i := range v.Counts {
		n := i + 1
		v.Counts[i] = Option{Value: strconv.Itoa(n), Label: strconv.Itoa(n), Selected: n == f.state.Count}
	}
	if len(f.fieldErrors) > 0 {
		v.FieldErrors = ValidationErrors{}
		for k, msg := range f.fieldErrors {
			v.FieldErrors[k] = msg
		}
	}
	for i, u := range f.displayed {
		v.Images[i] = NewDogImage(u)
	}
	v.Rows = GridRows(v.Images, GridColumns)
	return v
}
