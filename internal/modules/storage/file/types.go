package file

// uploadResponse is returned by POST /uploads.
type uploadResponse struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
	Storage     string `json:"storage"`
}
