package docintel

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Stage identifies which protocol exchange produced a StatusError.
type Stage string

const (
	StageSubmit Stage = "submit"
	StagePoll   Stage = "poll"
	StageFetch  Stage = "fetch"
)

// ErrNoOperationLocation is returned when the service accepts a submission
// but omits the Operation-Location header carrying the operation handle.
var ErrNoOperationLocation = errors.New("Operation-Location header missing from analyze response")

// StatusError reports an unexpected HTTP status from the service, carrying
// the response body for diagnosis. The Stage distinguishes submission,
// polling, and retrieval failures.
type StatusError struct {
	Stage      Stage
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("document intelligence %s: %s", e.Stage, e.Status)
	}
	return fmt.Sprintf("document intelligence %s: %s: %s", e.Stage, e.Status, strings.TrimSpace(e.Body))
}

func newStatusError(stage Stage, resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return &StatusError{
		Stage:      stage,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(body),
	}
}
