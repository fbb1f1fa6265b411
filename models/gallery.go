package models

type GalleryImage struct {
	ID        string        `json:"id"`
	URL       string        `json:"url"`
	PublicID  string        `json:"publicId,omitempty"`
	Caption   LocalizedText `json:"caption"`
	Category  string        `json:"category"`
	SortOrder int           `json:"sortOrder"`
}

// GalleryImageInput is the admin payload for adding an image to the gallery.
type GalleryImageInput struct {
	URL       string        `json:"url" binding:"required,url"`
	PublicID  string        `json:"publicId"`
	Caption   LocalizedText `json:"caption"`
	Category  string        `json:"category" binding:"max=40"`
	SortOrder int           `json:"sortOrder"`
}

// UploadResult describes an image stored in the media library.
type UploadResult struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
	MimeType string `json:"mimeType"`
	Bytes    int64  `json:"bytes"`
}
