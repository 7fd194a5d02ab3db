package posts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
)

// FileUpload is an image payload attached to a post draft.
type FileUpload struct {
	Name   string
	Reader io.Reader
}

// SectionDraft is one block of a draft's body. Text sections carry their
// prose in Content. Image sections carry a new upload in File, or keep an
// existing stored reference in Content when File is nil (edits only).
type SectionDraft struct {
	Type    SectionType
	Size    int
	Content string
	File    *FileUpload
}

// PostDraft holds everything needed to create or edit a post.
type PostDraft struct {
	Status     PostStatus
	Title      string
	Abstract   string
	Brand      int64
	Model      int64
	Generation int64
	HullType   int64
	Engine     int64
	Sections   []SectionDraft
}

// wireSection is the shape the server expects inside the "sections" field.
// File is the zero-based index into the attached images[] parts; it counts
// only sections that carry a fresh upload.
type wireSection struct {
	Type    SectionType `json:"type"`
	Size    int         `json:"size,omitempty"`
	Content *string     `json:"content,omitempty"`
	File    *int        `json:"file,omitempty"`
}

// buildPostForm encodes a draft as multipart form data: scalar fields, a
// JSON "sections" descriptor, and one images[] part per fresh upload.
func buildPostForm(d PostDraft) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"status":     string(d.Status),
		"title":      d.Title,
		"abstract":   d.Abstract,
		"brand":      strconv.FormatInt(d.Brand, 10),
		"model":      strconv.FormatInt(d.Model, 10),
		"generation": strconv.FormatInt(d.Generation, 10),
		"hull_type":  strconv.FormatInt(d.HullType, 10),
		"engine":     strconv.FormatInt(d.Engine, 10),
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}

	sections := make([]wireSection, 0, len(d.Sections))
	uploads := 0
	for i, s := range d.Sections {
		switch s.Type {
		case SectionText:
			content := s.Content
			sections = append(sections, wireSection{Type: SectionText, Content: &content})

		case SectionImage:
			ws := wireSection{Type: SectionImage, Size: s.Size}
			if s.File != nil {
				idx := uploads
				ws.File = &idx
				uploads++

				part, err := w.CreateFormFile("images[]", s.File.Name)
				if err != nil {
					return nil, "", err
				}
				if _, err := io.Copy(part, s.File.Reader); err != nil {
					return nil, "", err
				}
			} else {
				// Edit keeping the stored image: reference it instead
				// of re-uploading.
				content := s.Content
				ws.Content = &content
			}
			sections = append(sections, ws)

		default:
			return nil, "", fmt.Errorf("section %d: unknown type %q", i, s.Type)
		}
	}

	encoded, err := json.Marshal(sections)
	if err != nil {
		return nil, "", err
	}
	if err := w.WriteField("sections", string(encoded)); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
