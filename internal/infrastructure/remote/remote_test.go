package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	_ "image/jpeg"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"berry-quality/internal/domain/entity"
)

type capturedRequest struct {
	path        string
	query       url.Values
	contentType string
	body        []byte
}

func capture(t *testing.T, status int, response string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	got := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		got.query = r.URL.Query()
		got.contentType = r.Header.Get("Content-Type")
		got.body, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func solid(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 200, 30, 40, 255
	}
	return img
}

func TestDetector_WireFormat(t *testing.T) {
	srv, got := capture(t, http.StatusOK, `[{"x":10,"y":20,"width":30,"height":40}]`)

	d := NewDetector(srv.URL+"/segmentation/", MethodColor, srv.Client())
	boxes, err := d.Detect(context.Background(), solid(1280, 960))
	require.NoError(t, err)

	require.Equal(t, "/segmentation/color", got.path)
	require.Equal(t, "480", got.query.Get("height"))
	require.Equal(t, "640", got.query.Get("width"))
	require.Equal(t, "24", got.query.Get("type"))
	require.Equal(t, "application/octet-stream", got.contentType)
	require.Len(t, got.body, 640*480*4)
	require.InDelta(t, 200, int(got.body[0]), 1)
	require.Equal(t, byte(255), got.body[3])

	require.Equal(t, []entity.BoundingBox{entity.NewBoundingBox(20, 40, 60, 80)}, boxes)
}

func TestDetector_FailuresGiveEmptyList(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		response string
	}{
		{"server error", http.StatusInternalServerError, `boom`},
		{"malformed json", http.StatusOK, `{"x":`},
		{"empty body", http.StatusOK, ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := capture(t, tt.status, tt.response)
			boxes, err := NewDetector(srv.URL, MethodYOLOX, srv.Client()).Detect(context.Background(), solid(64, 64))
			require.NoError(t, err)
			require.Empty(t, boxes)
		})
	}
}

func TestDetector_Unreachable(t *testing.T) {
	srv, _ := capture(t, http.StatusOK, `[]`)
	base := srv.URL
	srv.Close()

	boxes, err := NewDetector(base, MethodColor, nil).Detect(context.Background(), solid(64, 64))
	require.NoError(t, err)
	require.Empty(t, boxes)
}

func TestDetector_Cancelled(t *testing.T) {
	srv, _ := capture(t, http.StatusOK, `[]`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDetector(srv.URL, MethodColor, srv.Client()).Detect(ctx, solid(64, 64))
	require.ErrorIs(t, err, context.Canceled)
}

func TestLongSide(t *testing.T) {
	tests := []struct {
		width, height int
		want          image.Point
	}{
		{1280, 960, image.Pt(640, 480)},
		{300, 600, image.Pt(320, 640)},
		{3000, 1000, image.Pt(640, 213)},
		{2000, 1, image.Pt(640, 1)},
		{1, 2000, image.Pt(1, 640)},
		{0, 100, image.Point{}},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, LongSide(tt.width, tt.height, 640), "%dx%d", tt.width, tt.height)
	}
}

func TestDetector_ElongatedImage(t *testing.T) {
	srv, got := capture(t, http.StatusOK, `[{"x":64,"y":0,"width":64,"height":1}]`)

	boxes, err := NewDetector(srv.URL, MethodColor, srv.Client()).Detect(context.Background(), solid(2000, 1))
	require.NoError(t, err)

	require.Equal(t, "1", got.query.Get("height"))
	require.Equal(t, "640", got.query.Get("width"))
	require.Len(t, got.body, 640*4)

	require.Equal(t, []entity.BoundingBox{entity.NewBoundingBox(64, 0, 64, 1)}, boxes)
}

func TestCloudDetector_WireFormat(t *testing.T) {
	srv, got := capture(t, http.StatusOK,
		`{"predictions":[{"x":100.5,"y":50,"width":40,"height":20.6,"class":"ripe","confidence":0.91}]}`)

	d := NewCloudDetector(srv.URL+"/strawberry/3", "secret", srv.Client())
	boxes, err := d.Detect(context.Background(), solid(120, 80))
	require.NoError(t, err)

	require.Equal(t, "/strawberry/3", got.path)
	require.Equal(t, "secret", got.query.Get("api_key"))
	require.Equal(t, "application/x-www-form-urlencoded", got.contentType)

	raw, err := base64.StdEncoding.DecodeString(string(got.body))
	require.NoError(t, err)
	decoded, format, err := image.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)
	require.Equal(t, image.Rect(0, 0, 120, 80), decoded.Bounds())
	r, _, _, _ := decoded.At(60, 40).RGBA()
	require.InDelta(t, 200, r>>8, 6)

	require.Equal(t, []entity.BoundingBox{entity.NewBoundingBox(80, 39, 40, 20)}, boxes)
}

func TestCloudDetector_Failure(t *testing.T) {
	srv, _ := capture(t, http.StatusForbidden, `{"message":"bad key"}`)
	boxes, err := NewCloudDetector(srv.URL, "wrong", srv.Client()).Detect(context.Background(), solid(32, 32))
	require.NoError(t, err)
	require.Empty(t, boxes)
}
