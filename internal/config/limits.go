package config

const (
	// MaxEntryNameLength is the maximum length for file and folder names.
	// Limited to 255 to match common filesystem limits so downloads keep
	// their names.
	MaxEntryNameLength = 255

	// MaxTreeDepth bounds every ancestor walk. A walk that goes deeper
	// than this is treated as corrupt data rather than looping forever.
	MaxTreeDepth = 256

	// MaxUploadBytes is the default upload size limit when the upload
	// policy does not set one.
	MaxUploadBytes = 100 << 20
)
