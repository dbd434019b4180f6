package hostapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/pludo/internal/hostapi"
)

func TestAPIError_KindSentinels(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, hostapi.ErrPermission},
		{http.StatusForbidden, hostapi.ErrPermission},
		{http.StatusNotFound, hostapi.ErrNotFound},
		{http.StatusConflict, hostapi.ErrConflict},
		{http.StatusUnprocessableEntity, hostapi.ErrValidation},
		{http.StatusInternalServerError, hostapi.ErrGeneric},
	}

	for _, tc := range cases {
		err := error(&hostapi.APIError{Host: "test", Op: "op", StatusCode: tc.status})
		assert.ErrorIs(t, err, tc.want, "status %d", tc.status)
	}
}

func TestClient_DecodesStructuredError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "team_1", r.URL.Query().Get("teamId"))
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"Validation Failed","errors":["name already exists"]}`))
	}))
	defer srv.Close()

	c := &hostapi.Client{
		Host:       "example",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
		Query:      url.Values{"teamId": {"team_1"}},
		DecodeErr: func(body []byte) (string, []string) {
			return "Validation Failed", []string{"name already exists"}
		},
		Hint: func(op string, kind hostapi.Kind) string {
			return "pick another name"
		},
	}

	err := c.Do(context.Background(), "create thing", http.MethodPost, "/things", nil, map[string]string{"name": "x"}, nil)
	require.Error(t, err)
	require.ErrorIs(t, err, hostapi.ErrValidation)

	apiErr, ok := hostapi.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, hostapi.KindValidation, apiErr.Kind())
	assert.Contains(t, err.Error(), "name already exists")
	assert.Contains(t, err.Error(), "pick another name")
}

func TestClient_DecodesSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"id":"abc"}`))
	}))
	defer srv.Close()

	c := &hostapi.Client{Host: "example", BaseURL: srv.URL, HTTPClient: srv.Client()}

	var out struct {
		ID string `json:"id"`
	}
	err := c.Do(context.Background(), "get", http.MethodPost, "/x", nil, struct{}{}, &out)
	require.NoError(t, err)
	assert.Equal(t, "abc", out.ID)
	assert.False(t, errors.Is(err, hostapi.ErrGeneric))
}
