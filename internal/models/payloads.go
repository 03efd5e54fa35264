package models

// These structs define the JSON payloads exchanged with the Document
// Intelligence REST API.

// AnalyzeRequest is the body of the analyze submission. The document travels
// inline as standard base64 under the field name the service expects.
type AnalyzeRequest struct {
	Base64Source string `json:"base64Source"`
}
