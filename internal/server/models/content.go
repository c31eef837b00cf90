package models

import "time"

// Attachment points at the encrypted binary kept in blob storage.
type Attachment struct {
	// Data is the public URL of the ciphertext blob.
	Data string `json:"data"`
	// Name is the original file name as supplied by the sender.
	Name string `json:"name"`
	// Size is the original size in megabytes.
	Size float64 `json:"size"`
}

// Content is the record persisted for every share. The server only ever
// holds ciphertext: Text is base64 AES-GCM output, Attachment.Data points
// at an encrypted blob.
//
// Exactly one of ExpiresAt != nil and BurnAfterRead is true.
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

// HasTermination reports whether the record satisfies the lifecycle
// invariant: either a TTL or burn-after-read, never both, never neither.
func (c *Content) HasTermination() bool {
	return (c.ExpiresAt != nil) != c.BurnAfterRead
}

// BlobDeletion is a pending removal of an attachment blob.
type BlobDeletion struct {
	URL         string
	DeleteAfter time.Time
}
