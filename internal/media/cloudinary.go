package media

import (
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryUploader implements Uploader against Cloudinary.
type CloudinaryUploader struct {
	client *cloudinary.Cloudinary
}

func NewCloudinaryUploader(cloudinaryURL string) (*CloudinaryUploader, error) {
	client, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary client: %w", err)
	}
	return &CloudinaryUploader{client: client}, nil
}

func (u *CloudinaryUploader) Upload(ctx context.Context, source string, folder string) (UploadResult, error) {
	resp, err := u.client.Upload.Upload(ctx, source, uploader.UploadParams{Folder: folder})
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload image: %w", err)
	}
	return UploadResult{URL: resp.SecureURL, PublicID: resp.PublicID}, nil
}

func (u *CloudinaryUploader) Destroy(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	if _, err := u.client.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID}); err != nil {
		return fmt.Errorf("destroy image %s: %w", publicID, err)
	}
	return nil
}
