package model

import (
	"errors"
	"fmt"
)

// ErrInvalidTypeCode is returned when a client-supplied type code matches no DocumentType.
var ErrInvalidTypeCode = errors.New("invalid document type code")

// DocumentType is the closed set of media kinds a document can hold.
type DocumentType int

const (
	Photograph DocumentType = iota + 1
	Video
	Illustration
	ThreeD
)

// DocumentTypes lists every variant in code order.
var DocumentTypes = []DocumentType{Photograph, Video, Illustration, ThreeD}

var typeCodes = map[DocumentType]string{
	Photograph:   "1",
	Video:        "2",
	Illustration: "3",
	ThreeD:       "4",
}

var typeNouns = map[DocumentType]string{
	Photograph:   "fotografía",
	Video:        "video",
	Illustration: "ilustración",
	ThreeD:       "modelo 3D",
}

var typeNames = map[DocumentType]string{
	Photograph:   "photograph",
	Video:        "video",
	Illustration: "illustration",
	ThreeD:       "3d",
}

// ParseDocumentType resolves an external code ("1".."4") to its DocumentType.
func ParseDocumentType(code string) (DocumentType, error) {
	for _, t := range DocumentTypes {
		if typeCodes[t] == code {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidTypeCode, code)
}

// Code returns the stable external code, or an empty string for unknown values.
func (t DocumentType) Code() string {
	return typeCodes[t]
}

// Noun is the Spanish media noun used when talking to the model.
func (t DocumentType) Noun() string {
	if n, ok := typeNouns[t]; ok {
		return n
	}
	return "imagen"
}

func (t DocumentType) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("DocumentType(%d)", int(t))
}
