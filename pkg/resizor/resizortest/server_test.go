package resizortest

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/resizor-go/pkg/resizor"
	"github.com/tendant/resizor-go/pkg/resizor/signature"
	"github.com/tendant/resizor-go/pkg/resizor/transport"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func setupServerTest(t *testing.T, opts Options) (*TestServer, *resizor.ImageRepository) {
	t.Helper()
	if opts.AccessKey == "" {
		opts.AccessKey = "test-access-key"
	}
	if opts.SecretKey == "" {
		opts.SecretKey = "test-secret-key"
	}
	ts := Start(t, opts)
	repo, err := resizor.New(ts.Config(), transport.NewHTTP(transport.WithTimeout(5*time.Second)))
	require.NoError(t, err)
	return ts, repo
}

func pngFile(t *testing.T, name string) transport.File {
	return transport.File{FileName: name, ContentType: "image/png", Reader: bytes.NewReader(pngBytes(t, 4, 3))}
}

func TestServer_RoundTrip(t *testing.T) {
	ts, repo := setupServerTest(t, Options{})
	ctx := context.Background()

	resp, err := repo.Store(ctx, pngFile(t, "one.png"))
	require.NoError(t, err)
	require.True(t, resp.Success())
	stored := resp.(*resizor.ImageResponse).Image
	assert.Equal(t, resizor.ImageID("1"), stored.ID)
	assert.Equal(t, 4, stored.Width)
	assert.Equal(t, 3, stored.Height)
	assert.Equal(t, "image/png", stored.MimeType)

	var fileName string
	ok, err := stored.Attr("file_name", &fileName)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "one.png", fileName)

	_, err = repo.Store(ctx, pngFile(t, "two.png"))
	require.NoError(t, err)
	assert.Equal(t, 2, ts.Len())

	images, err := repo.All(ctx, map[string]any{"page": 1})
	require.NoError(t, err)
	require.NotNil(t, images)
	require.Equal(t, 2, images.Len())
	assert.Equal(t, resizor.ImageID("1"), images.At(0).ID)
	assert.Equal(t, resizor.ImageID("2"), images.At(1).ID)

	img, err := repo.Find(ctx, "2")
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, resizor.ImageID("2"), img.ID)

	fileResp, err := http.Get(img.URL)
	require.NoError(t, err)
	defer fileResp.Body.Close()
	data, _ := io.ReadAll(fileResp.Body)
	assert.Equal(t, pngBytes(t, 4, 3), data)

	del, err := repo.Delete(ctx, "2")
	require.NoError(t, err)
	assert.True(t, del.Success())

	img, err = repo.Find(ctx, "2")
	assert.NoError(t, err)
	assert.Nil(t, img)

	del, err = repo.Delete(ctx, "2")
	require.NoError(t, err)
	assert.False(t, del.Success())
	assert.Equal(t, []any{"image not found"}, del.(*resizor.ErrorResponse).Errors)
}

func TestServer_StoreWithExplicitID(t *testing.T) {
	_, repo := setupServerTest(t, Options{})
	ctx := context.Background()

	resp, err := repo.Store(ctx, pngFile(t, "a.png"), resizor.WithImageID("42"))
	require.NoError(t, err)
	assert.Equal(t, resizor.ImageID("42"), resp.(*resizor.ImageResponse).Image.ID)

	resp, err = repo.Store(ctx, pngFile(t, "b.png"), resizor.WithImageID("42"))
	require.NoError(t, err)
	assert.False(t, resp.Success())
	assert.Equal(t, []string{"id 42 has already been taken"}, resp.(*resizor.ErrorResponse).Messages())
}

func TestServer_IDWithReservedCharacters(t *testing.T) {
	ts, repo := setupServerTest(t, Options{})
	ctx := context.Background()
	const id = "a?b#c d/e"

	resp, err := repo.Store(ctx, pngFile(t, "odd.png"), resizor.WithImageID(id))
	require.NoError(t, err)
	require.True(t, resp.Success())
	assert.Equal(t, resizor.ImageID(id), resp.(*resizor.ImageResponse).Image.ID)

	img, err := repo.Find(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, resizor.ImageID(id), img.ID)

	fileResp, err := http.Get(img.URL)
	require.NoError(t, err)
	defer fileResp.Body.Close()
	assert.Equal(t, http.StatusOK, fileResp.StatusCode)

	missing, err := repo.Find(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, missing)

	del, err := repo.Delete(ctx, id)
	require.NoError(t, err)
	assert.True(t, del.Success())
	assert.Equal(t, 0, ts.Len())
}

func TestServer_RejectsNonImage(t *testing.T) {
	_, repo := setupServerTest(t, Options{})

	resp, err := repo.Store(context.Background(), transport.File{FileName: "notes.txt", Reader: strings.NewReader("hello")})
	require.NoError(t, err)
	assert.False(t, resp.Success())
	assert.Equal(t, http.StatusUnprocessableEntity, resp.(*resizor.ErrorResponse).StatusCode)
}

func TestServer_RejectsWrongSecret(t *testing.T) {
	ts := Start(t, Options{AccessKey: "key", SecretKey: "right"})

	cfg := ts.Config()
	cfg.SecretKey = "wrong"
	repo, err := resizor.New(cfg, transport.NewHTTP())
	require.NoError(t, err)

	resp, err := repo.Store(context.Background(), pngFile(t, "x.png"))
	require.NoError(t, err)
	assert.False(t, resp.Success())
	assert.Equal(t, http.StatusUnauthorized, resp.(*resizor.ErrorResponse).StatusCode)

	images, err := repo.All(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, images)
	assert.Equal(t, 0, ts.Len())
}

func TestServer_SHA1Account(t *testing.T) {
	_, repo := setupServerTest(t, Options{Algorithm: signature.SHA1})

	resp, err := repo.Store(context.Background(), pngFile(t, "x.png"))
	require.NoError(t, err)
	assert.True(t, resp.Success())
}

func TestServer_RejectsStaleTimestamp(t *testing.T) {
	ts := Start(t, Options{AccessKey: "key", SecretKey: "secret", MaxSkew: time.Minute})

	repo, err := resizor.New(ts.Config(), transport.NewHTTP(),
		resizor.WithClock(func() time.Time { return time.Now().Add(-time.Hour) }))
	require.NoError(t, err)

	resp, err := repo.Delete(context.Background(), "1")
	require.NoError(t, err)
	assert.False(t, resp.Success())
	assert.Equal(t, []any{"timestamp is too old"}, resp.(*resizor.ErrorResponse).Errors)
}

func TestServer_UnknownAccessKey(t *testing.T) {
	ts := Start(t, Options{AccessKey: "key", SecretKey: "secret"})

	u, err := url.Parse(ts.HTTP.URL + "/v1/other/images.json")
	require.NoError(t, err)
	resp, err := http.Get(u.String())
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_MissingSignature(t *testing.T) {
	ts := Start(t, Options{AccessKey: "key", SecretKey: "secret"})

	resp, err := http.Get(ts.HTTP.URL + "/v1/key/images/1.json?timestamp=1700000000")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
