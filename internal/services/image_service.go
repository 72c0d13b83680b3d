package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type ImageService struct {
	cld *cloudinary.Cloudinary
}

func NewImageService() (*ImageService, error) {
	// Get Cloudinary configuration from environment
	cloudName := os.Getenv("CLOUDINARY_CLOUD_NAME")
	apiKey := os.Getenv("CLOUDINARY_API_KEY")
	apiSecret := os.Getenv("CLOUDINARY_API_SECRET")

	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("missing Cloudinary configuration")
	}

	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}

	return &ImageService{cld: cld}, nil
}

// UploadDocument uploads a receipt or product photo to Cloudinary and
// returns its URL. Receipts may be PDFs; photos must be images.
func (s *ImageService) UploadDocument(file multipart.File, filename, username string, productID uint, kind string) (string, error) {
	allowedTypes := map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".gif":  true,
		".webp": true,
	}
	if kind == "receipt" {
		allowedTypes[".pdf"] = true
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedTypes[ext] {
		return "", fmt.Errorf("invalid file type: %s", ext)
	}

	resourceType := "image"
	if ext == ".pdf" {
		resourceType = "raw"
	}

	publicID := fmt.Sprintf("documents/user_%s/product_%d/%s_%s", username, productID, kind, strings.TrimSuffix(filepath.Base(filename), ext))

	uploadParams := uploader.UploadParams{
		PublicID:     publicID,
		Folder:       "warrantly/documents",
		ResourceType: resourceType,
	}

	result, err := s.cld.Upload.Upload(context.Background(), file, uploadParams)
	if err != nil {
		return "", fmt.Errorf("failed to upload document: %w", err)
	}

	return result.SecureURL, nil
}

// DeleteDocument deletes an uploaded document from Cloudinary
func (s *ImageService) DeleteDocument(publicID string) error {
	_, err := s.cld.Upload.Destroy(context.Background(), uploader.DestroyParams{
		PublicID: publicID,
	})
	return err
}

// ValidateDocumentFile validates if the uploaded file fits the size limit
func (s *ImageService) ValidateDocumentFile(file multipart.File, maxSize int64) error {
	// Reset file pointer
	file.Seek(0, 0)

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	if int64(len(data)) > maxSize {
		return fmt.Errorf("file too large: %d bytes (max %d bytes)", len(data), maxSize)
	}

	// Reset file pointer for later use
	file.Seek(0, 0)

	return nil
}
