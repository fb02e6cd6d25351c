package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

const (
	MimeImage       = "image/"
	MimeText        = "text/"
	MimeMarkdown    = "text/markdown"
	MimeOctetStream = "application/octet-stream"
)

var (
	// Source documents for deck generation. Binary formats are rejected,
	// the generator only reads plain text.
	AllowedDocumentExtensions = []string{".txt", ".md", ".markdown"}
)
