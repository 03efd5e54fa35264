package docintel

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(serverURL string, pollInterval time.Duration) *Client {
	return New(Config{
		Endpoint:     serverURL,
		APIKey:       "test-key",
		PollInterval: pollInterval,
	})
}

func TestSubmitSendsAnalyzeRequest(t *testing.T) {
	var (
		gotMethod  string
		gotPath    string
		gotQuery   string
		gotKey     string
		gotCType   string
		gotPayload struct {
			Base64Source string `json:"base64Source"`
		}
	)
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("Ocp-Apim-Subscription-Key")
		gotCType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		w.Header().Set("Operation-Location",
			server.URL+"/documentintelligence/documentModels/prebuilt-read/analyzeResults/abc123?api-version="+APIVersion)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := newTestClient(server.URL, time.Millisecond)
	resultID, err := client.Submit(context.Background(), "ZmFrZSBwZGY=")
	require.NoError(t, err)
	require.Equal(t, "abc123", resultID)

	require.Equal(t, http.MethodPost, gotMethod)
	require.Equal(t, "/documentintelligence/documentModels/prebuilt-read:analyze", gotPath)
	require.Equal(t, "_overload=analyzeDocument&api-version="+APIVersion+"&output=pdf", gotQuery)
	require.Equal(t, "test-key", gotKey)
	require.Equal(t, "application/json", gotCType)
	require.Equal(t, "ZmFrZSBwZGY=", gotPayload.Base64Source)
}

func TestSubmitRejectsNonAccepted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid subscription key", http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(server.URL, time.Millisecond)
	_, err := client.Submit(context.Background(), "ZmFrZQ==")
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, StageSubmit, statusErr.Stage)
	require.Equal(t, http.StatusForbidden, statusErr.StatusCode)
	require.Contains(t, statusErr.Body, "invalid subscription key")
}

func TestSubmitRequiresOperationLocation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := newTestClient(server.URL, time.Millisecond)
	_, err := client.Submit(context.Background(), "ZmFrZQ==")
	require.ErrorIs(t, err, ErrNoOperationLocation)
}

func TestWaitForCompletionPollsUntilDone(t *testing.T) {
	var (
		polls   int
		gotPath string
		gotKey  string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls++
		gotPath = r.URL.Path
		gotKey = r.Header.Get("Ocp-Apim-Subscription-Key")
		require.Equal(t, APIVersion, r.URL.Query().Get("api-version"))
		if polls < 3 {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5*time.Millisecond)
	require.NoError(t, client.WaitForCompletion(context.Background(), "abc123"))

	require.Equal(t, 3, polls)
	require.Equal(t, "/documentintelligence/documentModels/prebuilt-read/analyzeResults/abc123", gotPath)
	require.Equal(t, "test-key", gotKey)
}

func TestWaitForCompletionFailsOnUnexpectedStatus(t *testing.T) {
	var polls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls++
		if polls == 1 {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		http.Error(w, "analysis backend unavailable", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5*time.Millisecond)
	err := client.WaitForCompletion(context.Background(), "abc123")
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, StagePoll, statusErr.Stage)
	require.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	require.Contains(t, statusErr.Body, "analysis backend unavailable")
	require.Equal(t, 2, polls)
}

func TestWaitForCompletionHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := newTestClient(server.URL, time.Hour)
	err := client.WaitForCompletion(ctx, "abc123")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetchSearchablePDFReturnsBodyVerbatim(t *testing.T) {
	want := []byte("%PDF-1.7 rendered searchable bytes")
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.Equal(t, APIVersion, r.URL.Query().Get("api-version"))
		require.Equal(t, "test-key", r.Header.Get("Ocp-Apim-Subscription-Key"))
		_, _ = w.Write(want)
	}))
	defer server.Close()

	client := newTestClient(server.URL, time.Millisecond)
	got, err := client.FetchSearchablePDF(context.Background(), "abc123")
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.Equal(t, "/documentintelligence/documentModels/prebuilt-read/analyzeResults/abc123/pdf", gotPath)
}

func TestFetchSearchablePDFFailsOnUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "result expired", http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL, time.Millisecond)
	_, err := client.FetchSearchablePDF(context.Background(), "abc123")
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, StageFetch, statusErr.Stage)
	require.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestSubmitPropagatesTransportErrors(t *testing.T) {
	// A connection failure must surface immediately, with no retry.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := newTestClient(server.URL, time.Millisecond)
	_, err := client.Submit(context.Background(), "ZmFrZQ==")
	require.Error(t, err)

	var statusErr *StatusError
	require.False(t, errors.As(err, &statusErr))
}

func TestResultIDFromOperationLocation(t *testing.T) {
	tests := []struct {
		name     string
		location string
		want     string
		wantErr  bool
	}{
		{
			name:     "id with query string",
			location: "https://example.cognitiveservices.azure.com/documentintelligence/documentModels/prebuilt-read/analyzeResults/abc123?api-version=x",
			want:     "abc123",
		},
		{
			name:     "id without query string",
			location: "https://example.com/analyzeResults/op-42",
			want:     "op-42",
		},
		{
			name:     "empty path",
			location: "https://example.com",
			wantErr:  true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := resultIDFromOperationLocation(tc.location)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestStatusErrorMessageIncludesStatusAndBody(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusBadRequest,
		Status:     "400 Bad Request",
		Body:       io.NopCloser(strings.NewReader("InvalidContent: malformed base64")),
	}
	err := newStatusError(StageSubmit, resp)
	require.Contains(t, err.Error(), "submit")
	require.Contains(t, err.Error(), "400 Bad Request")
	require.Contains(t, err.Error(), "InvalidContent")
}
