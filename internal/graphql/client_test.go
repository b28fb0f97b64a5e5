package graphql_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vitrin/vitrin/internal/graphql"

	"github.com/stretchr/testify/assert"
)

func TestExecuteDecodesData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("X-Storefront-Access-Token"))

		var req graphql.Request
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Query, "shop")

		w.Write([]byte(`{"data":{"shop":{"name":"Vitrin Demo"}}}`))
	}))
	defer srv.Close()

	client := graphql.NewClient(srv.URL,
		map[string]string{"X-Storefront-Access-Token": "secret"}, nil)

	var out struct {
		Shop struct {
			Name string `json:"name"`
		} `json:"shop"`
	}
	err := client.Execute(context.Background(), graphql.Request{Query: `query { shop { name } }`}, &out)
	assert.NoError(t, err)
	assert.Equal(t, "Vitrin Demo", out.Shop.Name)
}

func TestExecuteGraphQLErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":null,"errors":[{"message":"Field 'bogus' doesn't exist"},{"message":"syntax error"}]}`))
	}))
	defer srv.Close()

	client := graphql.NewClient(srv.URL, nil, nil)

	err := client.Execute(context.Background(), graphql.Request{Query: "{ bogus }"}, nil)
	assert.Error(t, err)

	var gqlErrs graphql.Errors
	assert.True(t, errors.As(err, &gqlErrs))
	assert.Len(t, gqlErrs, 2)
	assert.Equal(t, "graphql: Field 'bogus' doesn't exist; syntax error", err.Error())
}

func TestExecuteHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "throttled", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := graphql.NewClient(srv.URL, nil, nil)

	err := client.Execute(context.Background(), graphql.Request{Query: "{ shop }"}, nil)
	assert.Error(t, err)

	var httpErr *graphql.HTTPError
	assert.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusTooManyRequests, httpErr.Status)
	assert.Contains(t, httpErr.Body, "throttled")
}

func TestExecuteNullDataLeavesOutUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":null}`))
	}))
	defer srv.Close()

	client := graphql.NewClient(srv.URL, nil, nil)

	out := map[string]any{"sentinel": true}
	err := client.Execute(context.Background(), graphql.Request{Query: "{ x }"}, &out)
	assert.NoError(t, err)
	assert.Equal(t, map[string]any{"sentinel": true}, out)
}

func TestUserErrorsToError(t *testing.T) {
	assert.NoError(t, graphql.UserErrorsToError(nil))

	err := graphql.UserErrorsToError([]graphql.UserError{
		{Field: []string{"lines", "merchandiseId"}, Message: "invalid id", Code: "INVALID"},
		{Message: "cart is locked"},
	})
	assert.Error(t, err)
	assert.Equal(t, "api rejected the request: lines.merchandiseId: invalid id; cart is locked", err.Error())
}
