package parsem

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/relvacode/iso8601"

	"github.com/parsem/go-client/pkg/request"
)

// JobID is an ID of a parse job.
type JobID string

func (v JobID) String() string {
	return string(v)
}

// JobKey is a unique identifier of a Job.
type JobKey struct {
	ID JobID `json:"id"`
}

type JobStatus string

const (
	JobStatusWaiting    = JobStatus("waiting")
	JobStatusProcessing = JobStatus("processing")
	JobStatusSuccess    = JobStatus("success")
	JobStatusError      = JobStatus("error")
)

type JobError struct {
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Job is an asynchronous parse job, it turns an uploaded file into a Document.
type Job struct {
	JobKey
	Status     JobStatus     `json:"status"`
	IsFinished bool          `json:"isFinished"`
	FileID     FileID        `json:"fileId"`
	DocumentID DocumentID    `json:"documentId,omitempty"`
	Error      *JobError     `json:"error,omitempty"`
	CreatedAt  iso8601.Time  `json:"createdAt" readonly:"true"`
	StartedAt  *iso8601.Time `json:"startedAt,omitempty"`
	FinishedAt *iso8601.Time `json:"finishedAt,omitempty"`
}

// CreateParseJobRequest https://developers.parsem.com/#operation/createJob
//
// The job parses a previously uploaded file, see CreateFileRequest.
func (a *API) CreateParseJobRequest(fileID FileID) request.APIRequest[*Job] {
	job := &Job{}
	req := a.newRequest().
		WithResult(job).
		WithMethod(http.MethodPost).
		WithURL("jobs").
		WithJSONBody(map[string]string{"fileId": fileID.String()})
	return request.NewAPIRequest(job, req)
}

// GetJobRequest https://developers.parsem.com/#operation/getJob
func (a *API) GetJobRequest(key JobKey) request.APIRequest[*Job] {
	return a.getJobRequest(key.ID)
}

func (a *API) getJobRequest(id JobID) request.APIRequest[*Job] {
	job := &Job{}
	req := a.newRequest().
		WithResult(job).
		WithGet("jobs/{jobId}").
		AndPathParam("jobId", id.String())
	return request.NewAPIRequest(job, req)
}

// WaitForJob pulls the job status until it is finished.
// The context deadline limits the wait, it must be set.
func (a *API) WaitForJob(ctx context.Context, id JobID) (job *Job, err error) {
	_, ok := ctx.Deadline()
	if !ok {
		return nil, fmt.Errorf("timeout for the job was not set")
	}

	// Telemetry
	parentSpan := trace.SpanFromContext(ctx)
	var span trace.Span
	ctx, span = parentSpan.TracerProvider().Tracer(appName).Start(ctx, "parsem.go.api.client.waitFor.job")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	retry := newJobBackoff()
	for {
		// Get job status
		job, err = a.getJobRequest(id).Send(ctx)
		if err != nil {
			return nil, err
		}

		// Check status
		if job.IsFinished {
			if job.Status == JobStatusSuccess {
				return job, nil
			}
			var message string
			if job.Error != nil {
				message = job.Error.Message
			}
			return nil, fmt.Errorf(`job "%s" failed: %s`, job.ID, message)
		}

		// Wait and check again
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf(`error while waiting for the job "%s" to complete: %w`, job.ID, ctx.Err())
		case <-time.After(retry.NextBackOff()):
			// try again
		}
	}
}

// newJobBackoff creates retry for WaitForJob.
func newJobBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.RandomizationFactor = 0
	b.InitialInterval = 50 * time.Millisecond
	b.Multiplier = 2
	b.MaxInterval = 3 * time.Second
	b.MaxElapsedTime = 0 // no limit, run until context timeout
	b.Reset()
	return b
}
