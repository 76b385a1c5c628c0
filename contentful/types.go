package contentful

import (
	"time"

	"github.com/goccy/go-json"
)

// Sys is the system metadata attached to every resource.
type Sys struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	LinkType    string    `json:"linkType,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
	Revision    int       `json:"revision,omitempty"`
	ContentType *Link     `json:"contentType,omitempty"`
	Locale      string    `json:"locale,omitempty"`
}

// Link references another entry or asset by ID.
type Link struct {
	Sys Sys `json:"sys"`
}

// Entry is a single content record. Fields is decoded by the caller into a
// struct matching the content model.
type Entry struct {
	Sys    Sys             `json:"sys"`
	Fields json.RawMessage `json:"fields"`
}

// DecodeFields unmarshals the entry's fields bag into v.
func (e Entry) DecodeFields(v any) error {
	return json.Unmarshal(e.Fields, v)
}

// Asset is an uploaded media file.
type Asset struct {
	Sys    Sys         `json:"sys"`
	Fields AssetFields `json:"fields"`
}

// AssetFields holds the metadata of an asset.
type AssetFields struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	File        File   `json:"file"`
}

// File describes the binary behind an asset. URL is protocol-relative
// ("//images.ctfassets.net/...").
type File struct {
	URL         string      `json:"url"`
	FileName    string      `json:"fileName"`
	ContentType string      `json:"contentType"`
	Details     FileDetails `json:"details"`
}

// FileDetails carries size and, for images, pixel dimensions.
type FileDetails struct {
	Size  int       `json:"size"`
	Image ImageSize `json:"image"`
}

// ImageSize is the pixel size of an image asset.
type ImageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Includes holds linked resources resolved by the API.
type Includes struct {
	Asset []Asset `json:"Asset"`
}

// EntryCollection is the response of an entries query.
type EntryCollection struct {
	Total    int      `json:"total"`
	Skip     int      `json:"skip"`
	Limit    int      `json:"limit"`
	Items    []Entry  `json:"items"`
	Includes Includes `json:"includes"`
}

// Asset returns the included asset with the given ID.
func (c *EntryCollection) Asset(id string) (Asset, bool) {
	for _, a := range c.Includes.Asset {
		if a.Sys.ID == id {
			return a, true
		}
	}
	return Asset{}, false
}
