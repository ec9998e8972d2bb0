package types

type FileMetadata struct {
	Modified string `json:"modified,omitempty"`
}

// FileInfo describes one entry of a shared folder listing.
type FileInfo struct {
	FileName string        `json:"fileName"`
	Path     string        `json:"path"`
	Size     int64         `json:"size"`
	FileType string        `json:"fileType"`
	IsDir    bool          `json:"isDir"`
	Metadata *FileMetadata `json:"metadata,omitempty"`
}
