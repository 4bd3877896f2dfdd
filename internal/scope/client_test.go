package scope

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/scope", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "qual a dose?", body["question"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"recommended_persona":"dr_gasnelio","confidence":0.8,"reasoning":"dosagem","scope":"dosage"}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, time.Second)
	res, fail := c.Fetch(context.Background(), "qual a dose?")
	require.Nil(t, fail)
	require.Equal(t, "dr_gasnelio", res.RecommendedPersona)
	require.Equal(t, 0.8, res.Confidence)
	require.Equal(t, "dosagem", res.Reasoning)
	require.Equal(t, "dosage", res.Scope)
}

func TestFetch_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, time.Second)
	res, fail := c.Fetch(context.Background(), "q")
	require.Nil(t, res)
	require.NotNil(t, fail)
	require.Equal(t, FailureUnreachable, fail.Reason)
}

func TestFetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, 50*time.Millisecond)
	res, fail := c.Fetch(context.Background(), "q")
	require.Nil(t, res)
	require.NotNil(t, fail)
	// Depending on which timer fires, the transport may report either form;
	// both are swallowed the same way upstream.
	require.Contains(t, []FailureReason{FailureTimeout, FailureUnreachable}, fail.Reason)
}

func TestFetch_BadStatus(t *testing.T) {
	for _, status := range []int{http.StatusInternalServerError, http.StatusNotFound, http.StatusBadGateway} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		c := NewClient(srv.URL, time.Second)
		res, fail := c.Fetch(context.Background(), "q")
		srv.Close()

		require.Nil(t, res, status)
		require.NotNil(t, fail, status)
		require.Equal(t, FailureBadStatus, fail.Reason, status)
	}
}

func TestFetch_BadPayload(t *testing.T) {
	bodies := []string{
		`{not json`,
		`{}`,
		`{"recommended_persona":"ga"}`,
		`{"recommended_persona":"ga","confidence":0.5,"reasoning":"","scope":"education"}`,
		`{"confidence":0.5,"reasoning":"ok","scope":"education"}`,
	}
	for _, body := range bodies {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))
		c := NewClient(srv.URL, time.Second)
		res, fail := c.Fetch(context.Background(), "q")
		srv.Close()

		require.Nil(t, res, body)
		require.NotNil(t, fail, body)
		require.Equal(t, FailureBadPayload, fail.Reason, body)
	}
}

func TestFailure_Error(t *testing.T) {
	f := &Failure{Reason: FailureBadStatus}
	require.Equal(t, "bad_status", f.Error())
}
