package resizor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"strconv"
	"time"
)

// ImageID identifies an image. The service may encode it as a JSON number or string.
type ImageID string

// UnmarshalJSON accepts both numeric and string identifiers
func (id *ImageID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ImageID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("image id must be a number or string: %w", err)
	}
	*id = ImageID(n.String())
	return nil
}

// String returns the identifier as sent in URLs
func (id ImageID) String() string {
	return string(id)
}

// Int64 parses a numeric identifier
func (id ImageID) Int64() (int64, error) {
	return strconv.ParseInt(string(id), 10, 64)
}

// Image represents one image as returned by the service.
// Known attributes are decoded into typed fields when their JSON fits; everything else,
// including known attributes of an unexpected shape, lands in Extra.
type Image struct {
	ID        ImageID
	URL       string
	Width     int
	Height    int
	MimeType  string
	Size      int64
	CreatedAt *time.Time

	Extra map[string]json.RawMessage

	// raw holds every attribute exactly as decoded
	raw map[string]json.RawMessage
}

// imageFields lists the JSON keys decoded into typed fields
var imageFields = map[string]struct{}{
	"id": {}, "url": {}, "width": {}, "height": {}, "mime_type": {}, "size": {}, "created_at": {},
}

// timeLayouts are tried in order for created_at
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006/01/02 15:04:05 -0700",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 MST",
}

type imageJSON struct {
	ID        ImageID    `json:"id"`
	URL       string     `json:"url,omitempty"`
	Width     int        `json:"width,omitempty"`
	Height    int        `json:"height,omitempty"`
	MimeType  string     `json:"mime_type,omitempty"`
	Size      int64      `json:"size,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// UnmarshalJSON decodes known attributes and keeps the rest in Extra.
// Only a malformed object or id fails; other attributes are decoded best effort.
func (img *Image) UnmarshalJSON(data []byte) error {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	out := Image{raw: all}
	if v, ok := all["id"]; ok {
		if err := json.Unmarshal(v, &out.ID); err != nil {
			return err
		}
	}

	for k, v := range all {
		if k == "id" {
			continue
		}
		if _, known := imageFields[k]; known && out.decodeField(k, v) {
			continue
		}
		if out.Extra == nil {
			out.Extra = make(map[string]json.RawMessage)
		}
		out.Extra[k] = v
	}

	*img = out
	return nil
}

// decodeField stores v in the typed field for key and reports whether it fit
func (img *Image) decodeField(key string, v json.RawMessage) bool {
	switch key {
	case "url":
		return json.Unmarshal(v, &img.URL) == nil
	case "width":
		return json.Unmarshal(v, &img.Width) == nil
	case "height":
		return json.Unmarshal(v, &img.Height) == nil
	case "mime_type":
		return json.Unmarshal(v, &img.MimeType) == nil
	case "size":
		return json.Unmarshal(v, &img.Size) == nil
	case "created_at":
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return true
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return false
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				img.CreatedAt = &t
				return true
			}
		}
		return false
	}
	return false
}

// MarshalJSON writes typed fields and Extra back into one object
func (img Image) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(img.Extra)+len(imageFields))
	for k, v := range img.Extra {
		out[k] = v
	}

	known, err := json.Marshal(imageJSON{
		ID:        img.ID,
		URL:       img.URL,
		Width:     img.Width,
		Height:    img.Height,
		MimeType:  img.MimeType,
		Size:      img.Size,
		CreatedAt: img.CreatedAt,
	})
	if err != nil {
		return nil, err
	}
	var knownMap map[string]json.RawMessage
	if err := json.Unmarshal(known, &knownMap); err != nil {
		return nil, err
	}
	for k, v := range knownMap {
		out[k] = v
	}
	return json.Marshal(out)
}

// Attr decodes the named attribute into v and returns false when it is absent.
// Decoded images answer from the attributes as the service sent them; images built
// in code answer from their typed fields and Extra.
func (img *Image) Attr(key string, v any) (bool, error) {
	if img.raw != nil {
		raw, ok := img.raw[key]
		if !ok {
			return false, nil
		}
		return true, json.Unmarshal(raw, v)
	}

	if raw, ok := img.Extra[key]; ok {
		return true, json.Unmarshal(raw, v)
	}
	value, ok := img.field(key)
	if !ok {
		return false, nil
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(encoded, v)
}

// field returns the typed value for a known key; a nil CreatedAt is absent
func (img *Image) field(key string) (any, bool) {
	switch key {
	case "id":
		return img.ID, true
	case "url":
		return img.URL, true
	case "width":
		return img.Width, true
	case "height":
		return img.Height, true
	case "mime_type":
		return img.MimeType, true
	case "size":
		return img.Size, true
	case "created_at":
		return img.CreatedAt, img.CreatedAt != nil
	}
	return nil, false
}

// ImageCollection is an ordered list of images in the order the service returned them
type ImageCollection struct {
	images []Image
}

// NewImageCollection wraps images without copying
func NewImageCollection(images []Image) *ImageCollection {
	return &ImageCollection{images: images}
}

// Len returns the number of images
func (c *ImageCollection) Len() int {
	return len(c.images)
}

// At returns the image at index i
func (c *ImageCollection) At(i int) Image {
	return c.images[i]
}

// Images returns the underlying slice
func (c *ImageCollection) Images() []Image {
	return c.images
}

// All iterates over the collection in server order
func (c *ImageCollection) All() iter.Seq2[int, Image] {
	return func(yield func(int, Image) bool) {
		for i, img := range c.images {
			if !yield(i, img) {
				return
			}
		}
	}
}

// Response is the outcome of a mutating call (Store, Delete)
type Response interface {
	Success() bool
}

// SuccessResponse reports a call that completed without payload
type SuccessResponse struct{}

// Success always reports true
func (SuccessResponse) Success() bool {
	return true
}

// ImageResponse reports a successful upload and carries the stored image
type ImageResponse struct {
	SuccessResponse
	Image Image
}

// ErrorResponse reports a call the service rejected.
// Errors are passed through exactly as the service encoded them.
type ErrorResponse struct {
	StatusCode int
	Errors     []any
}

// Success always reports false
func (*ErrorResponse) Success() bool {
	return false
}

// Messages renders each error record as a string
func (r *ErrorResponse) Messages() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		if s, ok := e.(string); ok {
			out = append(out, s)
			continue
		}
		b, err := json.Marshal(e)
		if err != nil {
			out = append(out, fmt.Sprint(e))
			continue
		}
		out = append(out, string(b))
	}
	return out
}
