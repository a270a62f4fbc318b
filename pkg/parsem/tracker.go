package parsem

import (
	"github.com/parsem/go-client/pkg/async"
)

// NewDocumentTracker creates an async.Tracker that decodes finished
// responses to Documents. The Pool is shared, one Pool can serve
// several trackers and other requests at once.
func NewDocumentTracker(pool *async.Pool) *async.Tracker[*Document] {
	return async.NewTracker(pool, DecodeDocument)
}

// TrackParseText queues the text parse request in the tracker.
// The resourceID pairs the finished Document with the caller's resource,
// the Pool request ID is used when it is empty.
func (a *API) TrackParseText(t *async.Tracker[*Document], content string, resourceID string) async.RequestID {
	return t.Submit(a.parseTextRequest(content).request, resourceID)
}

// TrackGetDocument queues the document fetch in the tracker, see TrackParseText.
func (a *API) TrackGetDocument(t *async.Tracker[*Document], key DocumentKey, resourceID string) async.RequestID {
	return t.Submit(a.getDocumentRequest(key.ID).request, resourceID)
}
