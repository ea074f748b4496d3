package main

const GridColumns int = 5

func TakeImages(images []string, n int) []string {
	n = max(0, min(n, len(images)))
	out := make([]string, n)
	copy(out, images[:n])
	return out
}

// GridRows lays images out left to right in rows of cols; the last row may
// be short.
func GridRows(images []DogImage, cols int) [][]DogImage {
	if cols < 1 {
		cols = 1
	}
	rows := make([][]DogImage, 0, (len(images)+cols-1)/cols)
	for first := 0; first < len(images); first += cols {
		last := min(len(images), first+cols)
		rows = append(rows, images[first:last])
	}
	return rows
}
