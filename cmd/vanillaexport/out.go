package main

import (
	"image"
	"os"

	"github.com/nfnt/resize"

	"badc0de.net/pkg/go-vanilla/imageprint"
)

func out(img image.Image) error {
	raster := *printMode == imageprint.ModeRasTerm || *printMode == imageprint.ModeITerm
	if *downsize {
		termSize, err := GetTermSize()
		if err == nil {
			if termSize.WSXPixel != 0 && termSize.WSYPixel != 0 && raster {
				// Prefer native size when the terminal draws real pixels.
				img = resize.Thumbnail(termSize.WSXPixel/2, termSize.WSYPixel/2, img, resize.NearestNeighbor)
			} else {
				// Each pixel takes two columns.
				img = resize.Thumbnail(termSize.WSCol/2, termSize.WSRow, img, resize.NearestNeighbor)
			}
		}
	}
	return imageprint.Print(os.Stdout, img, *printMode, *blanks)
}
