package media

import (
	"fmt"
	"image"
	"io"
	"log"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	PreviewJpegQuality   = 90
	PreviewFileExtension = ".jpg"
)

// Processor turns library photos into derived assets. It relies on a Store
// implementation for saving the results.
type Processor struct {
	store Store
}

func NewProcessor(store Store) *Processor {
	return &Processor{store: store}
}

// GeneratePreview creates a browser-sized copy where the longest side matches
// maxSize, without upscaling. returns the relative path to the saved preview.
func (p *Processor) GeneratePreview(originalImg image.Image, originalRelPath string, maxSize int) (string, error) {
	bounds := originalImg.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return "", fmt.Errorf("invalid original image dimensions: %dx%d", bounds.Dx(), bounds.Dy())
	}

	preview := originalImg
	if bounds.Dx() > maxSize || bounds.Dy() > maxSize {
		preview = imaging.Fit(originalImg, maxSize, maxSize, imaging.Lanczos)
	}

	reader, writer := io.Pipe()
	go func() {
		defer writer.Close()
		err := imaging.Encode(writer, preview, imaging.JPEG, imaging.JPEGQuality(PreviewJpegQuality))
		if err != nil {
			log.Printf("processor: Failed to encode preview: %v", err)
			writer.CloseWithError(fmt.Errorf("preview encoding failed: %w", err))
		}
	}()

	previewUUID, err := uuid.NewRandom()
	if err != nil {
		reader.Close()
		return "", fmt.Errorf("failed to generate UUID for preview: %w", err)
	}
	targetFilename := previewUUID.String() + PreviewFileExtension

	savedRelPath, err := p.store.Save(AssetTypePreview, targetFilename, reader)
	if err != nil {
		// unblock the encoder if the store failed before draining the pipe
		reader.CloseWithError(err)
		return "", fmt.Errorf("failed to save preview via store: %w", err)
	}

	log.Printf("processor: Generated preview for %s at %s", originalRelPath, savedRelPath)
	return savedRelPath, nil
}
