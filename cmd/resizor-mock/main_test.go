package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/resizor-go/pkg/resizor"
	"github.com/tendant/resizor-go/pkg/resizor/resizortest"
	"github.com/tendant/resizor-go/pkg/resizor/storage/memory"
	"github.com/tendant/resizor-go/pkg/resizor/transport"
)

func TestBuildStore_DefaultsToMemory(t *testing.T) {
	store, err := buildStore(S3Config{})
	require.NoError(t, err)
	assert.IsType(t, &memory.Backend{}, store)
}

func TestRouter_HealthAndAPI(t *testing.T) {
	fake := resizortest.NewServer(resizortest.Options{AccessKey: "key", SecretKey: "secret"})
	server := httptest.NewServer(newRouter(fake))
	defer server.Close()

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	repo, err := resizor.New(resizor.Config{
		Host: server.URL, APIVersion: "v1", AccessKey: "key", SecretKey: "secret",
	}, transport.NewHTTP())
	require.NoError(t, err)

	images, err := repo.All(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, images)
	assert.Equal(t, 0, images.Len())
}
