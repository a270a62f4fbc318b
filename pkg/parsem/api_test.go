package parsem_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parsem/go-client/pkg/client"
	"github.com/parsem/go-client/pkg/parsem"
	"github.com/parsem/go-client/pkg/request"
)

func mockedAPI(t *testing.T) (*parsem.API, *httpmock.MockTransport) {
	t.Helper()
	c, transport := client.NewMockedClient()
	api := parsem.NewAPI("api.parsem.com", parsem.WithClient(&c), parsem.WithToken("my-secret"))
	return api, transport
}

func TestGetAccountRequest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	api, transport := mockedAPI(t)
	transport.RegisterResponder("GET", "https://api.parsem.com/v2/account", func(req *http.Request) (*http.Response, error) {
		// The token is sent with each request
		assert.Equal(t, "my-secret", req.Header.Get("X-Api-Token"))
		return httpmock.NewStringResponse(200, `{
			"id": "account-1",
			"name": "Test Account",
			"plan": "standard",
			"createdAt": "2025-01-02T10:00:00Z",
			"quota": {"monthlyLimit": 1000, "used": 42}
		}`), nil
	})

	account, err := api.GetAccountRequest().Send(ctx)
	require.NoError(t, err)
	assert.Equal(t, "account-1", account.ID)
	assert.Equal(t, "standard", account.Plan)
	assert.Equal(t, 42, account.Quota.Used)
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestParseTextRequest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	api, transport := mockedAPI(t)
	transport.RegisterResponder("POST", "https://api.parsem.com/v2/parse/text", httpmock.NewStringResponder(200, `{
		"id": "doc-1",
		"name": "resume.txt",
		"language": "en",
		"createdAt": "2025-03-01T08:30:00Z",
		"candidate": {"firstName": "John", "lastName": "Doe", "email": "john@doe.org"},
		"skills": ["Go", "SQL"]
	}`))

	document, err := api.ParseTextRequest("John Doe, Go developer ...").Send(ctx)
	require.NoError(t, err)
	assert.Equal(t, parsem.DocumentID("doc-1"), document.ID)
	assert.Equal(t, "John", document.Candidate.FirstName)
	assert.Equal(t, []string{"Go", "SQL"}, document.Skills)
}

func TestGetDocumentRequest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	api, transport := mockedAPI(t)
	transport.RegisterResponder("GET", "https://api.parsem.com/v2/documents/doc-123", httpmock.NewStringResponder(200, `{
		"id": "doc-123",
		"name": "resume.pdf",
		"createdAt": "2025-03-01T08:30:00Z",
		"candidate": {"firstName": "Jane", "lastName": "Doe"}
	}`))

	document, err := api.GetDocumentRequest(parsem.DocumentKey{ID: "doc-123"}).Send(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Jane", document.Candidate.FirstName)
}

func TestDeleteDocumentRequest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	api, transport := mockedAPI(t)
	transport.RegisterResponder("DELETE", "https://api.parsem.com/v2/documents/doc-123", httpmock.NewStringResponder(204, ""))

	err := api.DeleteDocumentRequest(parsem.DocumentKey{ID: "doc-123"}).SendOrErr(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestParallelRequests(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	api, transport := mockedAPI(t)
	transport.RegisterResponder("GET", "https://api.parsem.com/v2/account", httpmock.NewStringResponder(200, `{
		"id": "account-1",
		"name": "Test Account",
		"plan": "standard",
		"createdAt": "2025-01-02T10:00:00Z",
		"quota": {"monthlyLimit": 1000, "used": 42}
	}`))
	transport.RegisterResponder("GET", "https://api.parsem.com/v2/documents", httpmock.NewStringResponder(200, `[
		{"id": "doc-1", "name": "resume1.pdf", "createdAt": "2025-03-01T08:30:00Z", "candidate": {"firstName": "John", "lastName": "Doe"}},
		{"id": "doc-2", "name": "resume2.pdf", "createdAt": "2025-03-02T09:00:00Z", "candidate": {"firstName": "Jane", "lastName": "Doe"}}
	]`))

	// Both requests are sent in parallel, results are collected by the callbacks
	var account *parsem.Account
	var documents []*parsem.Document
	err := request.Parallel(
		api.GetAccountRequest().WithOnSuccess(func(ctx context.Context, result *parsem.Account) error {
			account = result
			return nil
		}),
		api.ListDocumentsRequest().WithOnSuccess(func(ctx context.Context, result *[]*parsem.Document) error {
			documents = *result
			return nil
		}),
	).SendOrErr(ctx)
	require.NoError(t, err)
	assert.Equal(t, "account-1", account.ID)
	assert.Len(t, documents, 2)
	assert.Equal(t, parsem.DocumentID("doc-2"), documents[1].ID)
	assert.Equal(t, 2, transport.GetTotalCallCount())
}

func TestAPIError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	api, transport := mockedAPI(t)
	transport.RegisterResponder("GET", "https://api.parsem.com/v2/account", httpmock.NewStringResponder(401, `{
		"error": "Invalid API token",
		"code": "unauthorized",
		"exceptionId": "exc-1234"
	}`))

	_, err := api.GetAccountRequest().Send(ctx)
	require.Error(t, err)

	apiErr := &parsem.Error{}
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid API token", apiErr.ErrorUserMessage())
	assert.Equal(t, "exc-1234", apiErr.ErrorExceptionID())
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode())
}
