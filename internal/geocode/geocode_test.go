package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		assert.Equal(t, "locality", r.URL.Query().Get("result_type"))
		assert.Equal(t, "53.55,9.99", r.URL.Query().Get("latlng"))
		w.Write([]byte(`{"status":"OK","results":[{"address_components":[{"long_name":"Hamburg"},{"long_name":"Deutschland"}]}]}`))
	}))
	defer srv.Close()

	city, err := New("secret").WithBaseURL(srv.URL).City(context.Background(), 53.55, 9.99)
	require.NoError(t, err)
	assert.Equal(t, "Hamburg", city)
}

func TestCityZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	}))
	defer srv.Close()

	city, err := New("k").WithBaseURL(srv.URL).City(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, city)
}

func TestCityErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") == "denied" {
			w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"bad key"}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New("denied").WithBaseURL(srv.URL).City(context.Background(), 1, 1)
	assert.ErrorContains(t, err, "REQUEST_DENIED")

	_, err = New("other").WithBaseURL(srv.URL).City(context.Background(), 1, 1)
	assert.ErrorContains(t, err, "500")
}
