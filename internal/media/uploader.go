package media

import "context"

// UploadResult identifies a stored asset: the serving URL plus the host-side
// ID needed to delete it later.
type UploadResult struct {
	URL      string
	PublicID string
}

// Uploader is the narrow port to the external media host that stores
// product images. Image bytes never touch the local disk.
type Uploader interface {
	// Upload sends a source (data URI or remote URL) into the given folder.
	Upload(ctx context.Context, source string, folder string) (UploadResult, error)
	Destroy(ctx context.Context, publicID string) error
}

// NoopUploader satisfies Uploader when no media host is configured;
// products are then created without hosted images.
type NoopUploader struct{}

func (NoopUploader) Upload(context.Context, string, string) (UploadResult, error) {
	return UploadResult{}, nil
}

func (NoopUploader) Destroy(context.Context, string) error { return nil }
