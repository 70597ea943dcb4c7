package webhook

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayload_WireFormat(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 30, 45, 123456000, time.UTC)
	body, err := NewPayload("p1", "o1", map[string]string{"status": "Approved"}, at).Encode()
	require.NoError(t, err)

	assert.Equal(t,
		`{"event":"object.updated","object_id":"o1","project_id":"p1","updated_fields":{"status":"Approved"},"updated_at":"2024-05-01T12:30:45.123456Z"}`,
		string(body))
}

func TestFormatUpdatedAt_ConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("CEST", 2*60*60)
	at := time.Date(2024, 5, 1, 14, 0, 0, 0, loc)
	assert.Equal(t, "2024-05-01T12:00:00.000000Z", FormatUpdatedAt(at))
}

func TestFormatUpdatedAt_FixedWidthFraction(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 1000, time.UTC)
	assert.Equal(t, "2024-05-01T12:00:00.000001Z", FormatUpdatedAt(at))
	assert.Len(t, FormatUpdatedAt(at.Truncate(time.Second)), len("2024-05-01T12:00:00.000000Z"))
}

func TestHTTPSender_PostsJSON(t *testing.T) {
	var gotMethod, gotCT, gotUA, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotCT = r.Header.Get("Content-Type")
		gotUA = r.Header.Get("User-Agent")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := NewHTTPSender("RoundReview/v0.1.0", time.Second)
	require.NoError(t, s.Send(context.Background(), srv.URL, []byte(`{"event":"object.updated"}`)))

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotCT)
	assert.Equal(t, "RoundReview/v0.1.0", gotUA)
	assert.Equal(t, `{"event":"object.updated"}`, gotBody)
}

func TestHTTPSender_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewHTTPSender("ua", time.Second).Send(context.Background(), srv.URL, []byte(`{}`))
	assert.ErrorContains(t, err, "502")
}

func TestVerifier(t *testing.T) {
	var method string
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()
	missing := httptest.NewServer(http.NotFoundHandler())
	defer missing.Close()

	v := NewVerifier("RoundReview/v0.1.0")
	require.NoError(t, v.Verify(context.Background(), ok.URL))
	assert.Equal(t, http.MethodHead, method)

	assert.ErrorContains(t, v.Verify(context.Background(), missing.URL), "404")
	assert.Error(t, v.Verify(context.Background(), "http://127.0.0.1:0/hook"))
	assert.Error(t, v.Verify(context.Background(), "::not a url"))
}
