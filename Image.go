package main

import "context"

type DogImage struct {
	Url          string `json:"url"`
	PreviewUrl   string `json:"previewUrl"`
	PreviewUrl2x string `json:"previewUrl2x"`
}

func NewDogImage(u string) DogImage {
	return DogImage{
		Url:          u,
		PreviewUrl:   u + "?w=248&fit=crop&auto=format",
		PreviewUrl2x: u + "?w=248&fit=crop&auto=format&dpr=2",
	}
}

type ImageSource interface {
	Breeds(ctx context.Context) (BreedCatalog, error)
	Images(ctx context.Context, path string) ([]string, error)
}
