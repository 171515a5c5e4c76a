package formdata

const (
	DefaultFilename    = "upload.jpg"
	DefaultContentType = "application/octet-stream"
	DefaultExtension   = "jpg"
)

// Defaults are substituted when a part does not declare a value
type Defaults struct {
	Filename    string
	ContentType string
}

// StandardDefaults returns the defaults used when nothing is configured
func StandardDefaults() Defaults {
	return Defaults{
		Filename:    DefaultFilename,
		ContentType: DefaultContentType,
	}
}

func (d Defaults) withFallbacks() Defaults {
	if d.Filename == "" {
		d.Filename = DefaultFilename
	}
	if d.ContentType == "" {
		d.ContentType = DefaultContentType
	}
	return d
}
