package domain

// Attachment is an uploaded binary file destined for a multipart request.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Payload is the body of a create request: typed field values plus any binary
// attachments. Attachments are only sent when the kind submits multipart.
type Payload struct {
	Fields map[string]any
	Files  map[string]Attachment
}
