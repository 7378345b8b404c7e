package models

import "time"

// Prediction is a single caption candidate as returned by the model service.
// The payload is stored verbatim; the app never reinterprets it.
type Prediction struct {
	Caption     string  `json:"caption"`
	Probability float64 `json:"probability,omitempty"`
}

// CaptionRecord is one captioned image in the gallery index.
type CaptionRecord struct {
	Path        string       `json:"path"`
	Owner       string       `json:"owner,omitempty"` // empty for pre-seeded images
	Predictions []Prediction `json:"predictions"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Preseeded reports whether the record belongs to no session and is
// therefore visible to everyone and exempt from retention sweeps.
func (r *CaptionRecord) Preseeded() bool {
	return r.Owner == ""
}

// UploadResult is one element of the JSON array returned by POST /upload.
type UploadResult struct {
	FileName string `json:"file_name"`
	Caption  string `json:"caption"`
}
