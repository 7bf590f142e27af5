package services

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// ImageService stores uploaded photos and derives thumbnails for list views
type ImageService struct {
	uploadDir string
}

func NewImageService(uploadDir string) *ImageService {
	if _, err := os.Stat(uploadDir); os.IsNotExist(err) {
		_ = os.MkdirAll(uploadDir, 0755)
	}
	return &ImageService{
		uploadDir: uploadDir,
	}
}

// ProcessAndSave stores the original upload unchanged and writes a 320px
// thumbnail next to it. Returns paths relative to the upload root.
func (s *ImageService) ProcessAndSave(file multipart.File, header *multipart.FileHeader) (originalPath, thumbnailPath string, err error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return "", "", fmt.Errorf("unsupported image format (JPG/PNG only)")
	}

	filename := uuid.New().String()
	originalFilename := filename + ext
	thumbFilename := filename + "_thumb" + ext

	originalRelPath := "/uploads/" + originalFilename
	thumbRelPath := "/uploads/" + thumbFilename

	// Decoding up front doubles as validation of the upload
	img, _, err := image.Decode(file)
	if err != nil {
		return "", "", fmt.Errorf("failed to decode image: %w", err)
	}

	if _, err := file.Seek(0, 0); err != nil {
		return "", "", fmt.Errorf("failed to read file: %w", err)
	}

	outOriginalPath := filepath.Join(s.uploadDir, originalFilename)
	outOriginal, err := os.Create(outOriginalPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to create file: %w", err)
	}
	defer outOriginal.Close()

	if _, err := io.Copy(outOriginal, file); err != nil {
		return "", "", fmt.Errorf("failed to save original image: %w", err)
	}

	// Receipt photos need to stay legible, so Fit rather than Fill
	thumbImg := imaging.Fit(img, 320, 320, imaging.Lanczos)

	outThumbPath := filepath.Join(s.uploadDir, thumbFilename)
	outThumb, err := os.Create(outThumbPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to create thumbnail: %w", err)
	}
	defer outThumb.Close()

	if ext == ".png" {
		err = png.Encode(outThumb, thumbImg)
	} else {
		err = jpeg.Encode(outThumb, thumbImg, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to save thumbnail: %w", err)
	}

	return originalRelPath, thumbRelPath, nil
}
