package models

// GenerateSOAPNoteRequest is the body of POST /generate_soap_note.
// An empty conversation is accepted; only a missing field is rejected.
type GenerateSOAPNoteRequest struct {
	Conversation *string `json:"conversation" binding:"required"`
}
