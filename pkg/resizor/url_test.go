package resizor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name                                  string
		host, apiVersion, accessKey, endpoint string
		want                                  string
	}{
		{"plain", "http://resizor.test", "v1", "key", "images.json", "http://resizor.test/v1/key/images.json"},
		{"trailing host slash", "http://resizor.test/", "v1", "key", "images.json", "http://resizor.test/v1/key/images.json"},
		{"slashes everywhere", "http://resizor.test//", "/v1/", "/key/", "/images/1.json", "http://resizor.test/v1/key/images/1.json"},
		{"host with port", "http://resizor.test:80", "v1", "key", "images.json", "http://resizor.test:80/v1/key/images.json"},
		{"host with base path", "https://api.example.com/resizor/", "v2", "abc", "images.json", "https://api.example.com/resizor/v2/abc/images.json"},
		{"doubled inner slashes", "http://h", "v1", "key", "images//7.json", "http://h/v1/key/images/7.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildURL(tt.host, tt.apiVersion, tt.accessKey, tt.endpoint)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, BuildURL(got, "", "", ""), "re-normalization must be idempotent")
		})
	}
}
