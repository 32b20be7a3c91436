package model

import "time"

// Document is a processed media upload.
// This is a pure domain model with no database-specific dependencies or tags.
// ID is zero until the repository assigns one.
type Document struct {
	ID          int64
	Type        DocumentType
	Title       string
	Price       string
	Payload     string
	Dimensions  string
	StoragePath string
	UploadedAt  time.Time
	Tags        []string
}

// DocumentRequest is the inbound upload body.
type DocumentRequest struct {
	TypeCode string `json:"tipo"`
	Title    string `json:"titulo"`
	Price    string `json:"precio"`
	Payload  string `json:"documento"`
}

// DocumentResponse is the outbound projection of a stored Document.
type DocumentResponse struct {
	ID         int64    `json:"id"`
	TypeCode   string   `json:"tipo"`
	Title      string   `json:"titulo"`
	Price      string   `json:"precio"`
	Payload    string   `json:"documento"`
	Tags       []string `json:"etiquetas"`
	UploadedAt string   `json:"fechaSubida"`
	Dimensions string   `json:"tamanio"`
}

// TimestampLayout renders ISO-8601 local date-times without a zone offset.
const TimestampLayout = "2006-01-02T15:04:05.999999999"

// NewDocumentResponse projects d into its response shape, rendering UploadedAt in loc.
func NewDocumentResponse(d Document, loc *time.Location) DocumentResponse {
	if loc == nil {
		loc = time.Local
	}
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return DocumentResponse{
		ID:         d.ID,
		TypeCode:   d.Type.Code(),
		Title:      d.Title,
		Price:      d.Price,
		Payload:    d.Payload,
		Tags:       tags,
		UploadedAt: d.UploadedAt.In(loc).Format(TimestampLayout),
		Dimensions: d.Dimensions,
	}
}
