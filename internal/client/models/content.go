// Package models defines the wire types the CLI exchanges with the server.
package models

import "time"

type Attachment struct {
	Data string  `json:"data"`
	Name string  `json:"name"`
	Size float64 `json:"size"`
}

// Content mirrors the record returned by POST /api and GET /api/{id}.
type Content struct {
	ID            string      `json:"id"`
	Text          string      `json:"text,omitempty"`
	Title         string      `json:"title,omitempty"`
	Format        string      `json:"format"`
	Attachment    *Attachment `json:"attachment,omitempty"`
	Expires       string      `json:"expires"`
	BurnAfterRead bool        `json:"burnAfterRead"`
	HasPassword   bool        `json:"hasPassword"`
	CreatedAt     time.Time   `json:"createdAt"`
	ExpiresAt     *time.Time  `json:"expiresAt,omitempty"`
}

// CreateRequest is the multipart form of a create call. Text and
// Attachment are already encrypted.
type CreateRequest struct {
	Text           string
	Title          string
	Format         string
	Expires        string
	HasPassword    bool
	Attachment     []byte
	AttachmentName string
	// AttachmentSize is the plaintext size in MB, two decimals.
	AttachmentSize string
}
