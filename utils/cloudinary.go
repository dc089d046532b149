package utils

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

var ErrUploadsDisabled = errors.New("image uploads are not configured")

// CloudinaryConfig holds Cloudinary configuration
type CloudinaryConfig struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadPreset string
}

// Uploader stores service and gallery images on Cloudinary.
type Uploader struct {
	cld    *cloudinary.Cloudinary
	preset string
}

// NewUploader returns nil when no cloud name is configured.
func NewUploader(cfg CloudinaryConfig) (*Uploader, error) {
	if cfg.CloudName == "" {
		return nil, nil
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &Uploader{cld: cld, preset: cfg.UploadPreset}, nil
}

// Upload sends file (a path, URL or io.Reader) into folder and returns the
// secure URL and Cloudinary public id.
func (u *Uploader) Upload(ctx context.Context, file any, folder, publicID string) (string, string, error) {
	if u == nil {
		return "", "", ErrUploadsDisabled
	}
	resp, err := u.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:       publicID,
		Folder:         folder,
		UploadPreset:   u.preset,
		Transformation: "c_limit,w_1200,h_1200",
	})
	if err != nil {
		return "", "", err
	}
	if resp.Error.Message != "" {
		return "", "", errors.New(resp.Error.Message)
	}
	return resp.SecureURL, resp.PublicID, nil
}

func (u *Uploader) Destroy(ctx context.Context, publicID string) error {
	if u == nil {
		return ErrUploadsDisabled
	}
	if publicID == "" {
		return nil
	}
	resp, err := u.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return err
	}
	if resp.Error.Message != "" {
		return errors.New(resp.Error.Message)
	}
	return nil
}
