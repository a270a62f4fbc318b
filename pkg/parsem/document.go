package parsem

import (
	"net/http"

	"github.com/relvacode/iso8601"

	"github.com/parsem/go-client/pkg/request"
)

// DocumentID is an ID of a parsed document.
type DocumentID string

func (v DocumentID) String() string {
	return string(v)
}

// DocumentKey is a unique identifier of a Document.
type DocumentKey struct {
	ID DocumentID `json:"id"`
}

// Document is a resume parsed by the Parsem API.
type Document struct {
	DocumentKey
	Name        string        `json:"name"`
	ContentType string        `json:"contentType,omitempty"`
	Language    string        `json:"language,omitempty"`
	CreatedAt   iso8601.Time  `json:"createdAt" readonly:"true"`
	ParsedAt    *iso8601.Time `json:"parsedAt,omitempty" readonly:"true"`
	Candidate   Candidate     `json:"candidate"`
	Positions   []Position    `json:"positions,omitempty"`
	Educations  []Education   `json:"educations,omitempty"`
	Skills      []string      `json:"skills,omitempty"`
}

// Candidate is the person the resume belongs to.
type Candidate struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Location  string `json:"location,omitempty"`
}

// Position is one entry of the candidate work history.
type Position struct {
	Title       string        `json:"title"`
	Company     string        `json:"company"`
	StartDate   *iso8601.Time `json:"startDate,omitempty"`
	EndDate     *iso8601.Time `json:"endDate,omitempty"`
	Description string        `json:"description,omitempty"`
}

// Education is one entry of the candidate education history.
type Education struct {
	School    string        `json:"school"`
	Degree    string        `json:"degree,omitempty"`
	Field     string        `json:"field,omitempty"`
	StartDate *iso8601.Time `json:"startDate,omitempty"`
	EndDate   *iso8601.Time `json:"endDate,omitempty"`
}

// DecodeDocument maps a raw response body to the Document.
func DecodeDocument(data []byte) (*Document, error) {
	out := &Document{}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ParseTextRequest https://developers.parsem.com/#operation/parseText
//
// The resume content is parsed synchronously, large inputs should be
// uploaded as a file and parsed by a job instead, see CreateParseJobRequest.
func (a *API) ParseTextRequest(content string) request.APIRequest[*Document] {
	return a.parseTextRequest(content).toAPIRequest()
}

func (a *API) parseTextRequest(content string) documentRequest {
	document := &Document{}
	req := a.newRequest().
		WithResult(document).
		WithMethod(http.MethodPost).
		WithURL("parse/text").
		WithJSONBody(map[string]string{"content": content})
	return documentRequest{document: document, request: req}
}

// GetDocumentRequest https://developers.parsem.com/#operation/getDocument
func (a *API) GetDocumentRequest(key DocumentKey) request.APIRequest[*Document] {
	return a.getDocumentRequest(key.ID).toAPIRequest()
}

func (a *API) getDocumentRequest(id DocumentID) documentRequest {
	document := &Document{DocumentKey: DocumentKey{ID: id}}
	req := a.newRequest().
		WithResult(document).
		WithGet("documents/{documentId}").
		AndPathParam("documentId", id.String())
	return documentRequest{document: document, request: req}
}

// ListDocumentsRequest https://developers.parsem.com/#operation/listDocuments
func (a *API) ListDocumentsRequest() request.APIRequest[*[]*Document] {
	documents := make([]*Document, 0)
	req := a.newRequest().
		WithResult(&documents).
		WithGet("documents")
	return request.NewAPIRequest(&documents, req)
}

// DeleteDocumentRequest https://developers.parsem.com/#operation/deleteDocument
func (a *API) DeleteDocumentRequest(key DocumentKey) request.APIRequest[request.NoResult] {
	req := a.newRequest().
		WithDelete("documents/{documentId}").
		AndPathParam("documentId", key.ID.String())
	return request.NewAPIRequest(request.NoResult{}, req)
}

// documentRequest keeps the HTTP request together with its result,
// so it can be sent directly or queued in the async.Tracker.
type documentRequest struct {
	document *Document
	request  request.HTTPRequest
}

func (r documentRequest) toAPIRequest() request.APIRequest[*Document] {
	return request.NewAPIRequest(r.document, r.request)
}
