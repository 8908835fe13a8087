package models

// Upload describes a file the transport has already written to the temp
// directory. TempPath is where it lives now; FileName is the name it keeps
// once moved to permanent storage.
type Upload struct {
	OriginalName string
	MimeType     string
	Size         int64
	TempPath     string
	FileName     string
}
