package parsem_test

import (
	"context"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parsem/go-client/pkg/async"
	"github.com/parsem/go-client/pkg/parsem"
)

func TestDocumentTracker(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	api, transport := mockedAPI(t)
	transport.RegisterResponder("GET", "https://api.parsem.com/v2/documents/doc-a", httpmock.NewStringResponder(200, `{
		"id": "doc-a",
		"name": "a.pdf",
		"createdAt": "2025-03-01T08:30:00Z",
		"candidate": {"firstName": "Alice", "lastName": "Adams"}
	}`))
	transport.RegisterResponder("GET", "https://api.parsem.com/v2/documents/doc-b", httpmock.NewStringResponder(200, `{
		"id": "doc-b",
		"name": "b.pdf",
		"createdAt": "2025-03-01T08:31:00Z",
		"candidate": {"firstName": "Bob", "lastName": "Brown"}
	}`))

	pool := async.NewPool(ctx)
	tracker := parsem.NewDocumentTracker(pool)
	assert.True(t, tracker.IsComplete())

	api.TrackGetDocument(tracker, parsem.DocumentKey{ID: "doc-a"}, "candidate-a")
	api.TrackGetDocument(tracker, parsem.DocumentKey{ID: "doc-b"}, "candidate-b")
	assert.False(t, tracker.IsComplete())

	// Requests may finish in any order, each document is paired with its resource
	firstNames := map[string]string{}
	for {
		res, err := tracker.Await(ctx)
		require.NoError(t, err)
		if res == nil {
			break
		}
		firstNames[res.ResourceID] = res.Result.Candidate.FirstName
	}
	assert.Equal(t, map[string]string{"candidate-a": "Alice", "candidate-b": "Bob"}, firstNames)
	assert.True(t, tracker.IsComplete())
	assert.False(t, tracker.HasResponse())
	assert.Equal(t, 2, transport.GetTotalCallCount())
}

func TestDocumentTracker_ParseText(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	api, transport := mockedAPI(t)
	transport.RegisterResponder("POST", "https://api.parsem.com/v2/parse/text", httpmock.NewStringResponder(200, `{
		"id": "doc-1",
		"name": "resume.txt",
		"createdAt": "2025-03-01T08:30:00Z",
		"candidate": {"firstName": "John", "lastName": "Doe"}
	}`))

	pool := async.NewPool(ctx)
	tracker := parsem.NewDocumentTracker(pool)

	// Without a resource, the pool request ID is returned instead
	id := api.TrackParseText(tracker, "John Doe, Go developer ...", "")
	res, err := tracker.Await(ctx)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, id, res.RequestID)
	assert.Equal(t, "1", res.ResourceID)
	assert.Equal(t, "John", res.Result.Candidate.FirstName)

	// Drained
	res, err = tracker.Await(ctx)
	assert.NoError(t, err)
	assert.Nil(t, res)
}

func TestDocumentTracker_ErrorPassthrough(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	api, transport := mockedAPI(t)
	transport.RegisterResponder("GET", "https://api.parsem.com/v2/documents/doc-x", httpmock.NewStringResponder(404, `{
		"error": "Document not found",
		"code": "notFound"
	}`))

	pool := async.NewPool(ctx)
	tracker := parsem.NewDocumentTracker(pool)
	api.TrackGetDocument(tracker, parsem.DocumentKey{ID: "doc-x"}, "candidate-x")

	res, err := tracker.Await(ctx)
	assert.Nil(t, res)
	apiErr := &parsem.Error{}
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Document not found", apiErr.ErrorUserMessage())

	// The response is consumed even on error
	assert.True(t, tracker.IsComplete())
}
