package domain

// AspectRatio is the declared pixel size of an embedded image.
type AspectRatio struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Post is the payload handed to a social poster. Image is optional; a nil
// Image produces a text-only post.
type Post struct {
	Text        string
	Image       []byte
	ImageAlt    string
	AspectRatio *AspectRatio
}

// HasImage reports whether the post carries an image.
func (p Post) HasImage() bool {
	return len(p.Image) > 0
}
