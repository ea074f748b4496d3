package main

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestTakeImages(t *testing.T) {
	list := []string{"a", "b", "c", "d", "e"}
	assert.Equal(t, []string{"a", "b", "c"}, TakeImages(list, 3))
	assert.Equal(t, list, TakeImages(list, 5))
	assert.Equal(t, list, TakeImages(list, 50), "Count past the end returns everything")
	assert.Equal(t, []string{}, TakeImages(list, 0))
	assert.Equal(t, []string{}, TakeImages(nil, 3))

	out := TakeImages(list, 2)
	out[0] = "z"
	assert.Equal(t, "a", list[0], "Result must not alias the source")
}

func TestGridRows(t *testing.T) {
	images := make([]DogImage, 12)
	for i := range images {
		images[i] = NewDogImage(string(rune('a' + i)))
	}
	rows := GridRows(images, GridColumns)
	assert.Equal(t, 3, len(rows), "Number of rows")
	assert.Equal(t, 5, len(rows[0]))
	assert.Equal(t, 5, len(rows[1]))
	assert.Equal(t, 2, len(rows[2]), "Last row is short")
	assert.Equal(t, "f", rows[1][0].Url)
	assert.Equal(t, "l", rows[2][1].Url)

	assert.Equal(t, 0, len(GridRows(nil, GridColumns)))
	assert.Equal(t, 12, len(GridRows(images, 0)), "Zero columns falls back to one per row")
}

func TestDogImagePreview(t *testing.T) {
	img := NewDogImage("https://images.dog.ceo/breeds/akita/1.jpg")
	assert.Equal(t, "https://images.dog.ceo/breeds/akita/1.jpg?w=248&fit=crop&auto=format", img.PreviewUrl)
	assert.Equal(t, "https://images.dog.ceo/breeds/akita/1.jpg?w=248&fit=crop&auto=format&dpr=2", img.PreviewUrl2x)
}
