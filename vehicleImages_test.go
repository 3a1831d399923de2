package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/dealer_backend/utils"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImages struct {
	signedKey string
	savedKey  string
	savedItem int
	thumbErr  error
	saveErr   error
	signErr   error
}

func (f *fakeImages) SignUpload(_ context.Context, objectKey, contentType string) (*utils.SignedUpload, error) {
	if f.signErr != nil {
		return nil, f.signErr
	}
	f.signedKey = objectKey
	return &utils.SignedUpload{
		UploadURL: "https://upload.example/" + objectKey,
		Method:    "PUT",
		Headers:   map[string]string{"Content-Type": contentType},
		ObjectKey: objectKey,
	}, nil
}

func (f *fakeImages) Thumbnail(_ context.Context, objectKey string) (string, error) {
	if f.thumbErr != nil {
		return "", f.thumbErr
	}
	return thumbnailObjectKey(objectKey), nil
}

func (f *fakeImages) SetItemImage(_ context.Context, _ string, itemId int, objectKey string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedItem = itemId
	f.savedKey = objectKey
	return nil
}

func imageRouter(images vehicleImageStore, notifier changeNotifier) *gin.Engine {
	r := testRouter(&fakeAPI{}, notifier)
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	registerVehicleImageRoutes(r, images, notifier, logger)
	return r
}

func jsonBody(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestSignVehicleImage(t *testing.T) {
	t.Setenv("STORAGE_ACCESS_BASE_URL", "")
	images := &fakeImages{}
	r := imageRouter(images, &fakeNotifier{})

	w := doRequest(r, http.MethodPost, "/treasury/vehicles/7/image/sign",
		jsonBody(t, imageSignRequest{FileName: "front.JPEG", MimeType: "image/jpeg", Size: 1024}),
		map[string]string{"business-id": "biz-1"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, strings.HasPrefix(images.signedKey, "biz-1/vehicles/7/"), images.signedKey)
	assert.True(t, strings.HasSuffix(images.signedKey, ".jpeg"), images.signedKey)
}

func TestSignVehicleImage_Rejects(t *testing.T) {
	tests := []struct {
		name string
		path string
		body imageSignRequest
		code int
	}{
		{"unsupported type", "/treasury/vehicles/7/image/sign", imageSignRequest{MimeType: "application/pdf", Size: 10}, http.StatusBadRequest},
		{"too large", "/treasury/vehicles/7/image/sign", imageSignRequest{MimeType: "image/png", Size: maxImageSizeBytes + 1}, http.StatusBadRequest},
		{"missing size", "/treasury/vehicles/7/image/sign", imageSignRequest{MimeType: "image/png"}, http.StatusBadRequest},
		{"bad id", "/treasury/vehicles/abc/image/sign", imageSignRequest{MimeType: "image/png", Size: 10}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			images := &fakeImages{}
			r := imageRouter(images, &fakeNotifier{})
			w := doRequest(r, http.MethodPost, tt.path, jsonBody(t, tt.body), map[string]string{"business-id": "biz-1"})
			assert.Equal(t, tt.code, w.Code, w.Body.String())
			assert.Empty(t, images.signedKey)
		})
	}
}

func TestSignVehicleImage_RequiresBusiness(t *testing.T) {
	r := imageRouter(&fakeImages{}, &fakeNotifier{})
	w := doRequest(r, http.MethodPost, "/treasury/vehicles/7/image/sign",
		jsonBody(t, imageSignRequest{MimeType: "image/png", Size: 10}), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCompleteVehicleImage(t *testing.T) {
	t.Setenv("STORAGE_ACCESS_BASE_URL", "https://img.example")
	images := &fakeImages{}
	notifier := &fakeNotifier{}
	r := imageRouter(images, notifier)

	w := doRequest(r, http.MethodPost, "/treasury/vehicles/7/image/complete",
		jsonBody(t, imageCompleteRequest{ObjectKey: "biz-1/vehicles/7/abc.png"}),
		map[string]string{"business-id": "biz-1"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Data imageCompleteResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "https://img.example/biz-1/vehicles/7/abc.png", resp.Data.ImageURL)
	assert.Equal(t, "biz-1/vehicles/7/thumbnails/abc.jpg", resp.Data.ThumbnailObjectKey)
	assert.Equal(t, 7, images.savedItem)
	assert.Equal(t, "biz-1/vehicles/7/abc.png", images.savedKey)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, "inventory_items", notifier.events[0].Table)
	assert.Equal(t, 7, notifier.events[0].RecordId)
}

func TestCompleteVehicleImage_ThumbnailFailureStillSaves(t *testing.T) {
	images := &fakeImages{thumbErr: errors.New("decode failed")}
	r := imageRouter(images, &fakeNotifier{})

	w := doRequest(r, http.MethodPost, "/treasury/vehicles/7/image/complete",
		jsonBody(t, imageCompleteRequest{ObjectKey: "biz-1/vehicles/7/abc.png"}),
		map[string]string{"business-id": "biz-1"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "biz-1/vehicles/7/abc.png", images.savedKey)
}

func TestCompleteVehicleImage_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		images *fakeImages
		code   int
	}{
		{"other business", "biz-2/vehicles/7/abc.png", &fakeImages{}, http.StatusBadRequest},
		{"other vehicle", "biz-1/vehicles/8/abc.png", &fakeImages{}, http.StatusBadRequest},
		{"traversal", "biz-1/vehicles/7/../../x.png", &fakeImages{}, http.StatusBadRequest},
		{"unknown vehicle", "biz-1/vehicles/7/abc.png", &fakeImages{saveErr: utils.ErrorRecordNotFound}, http.StatusNotFound},
		{"db failure", "biz-1/vehicles/7/abc.png", &fakeImages{saveErr: errors.New("boom")}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &fakeNotifier{}
			r := imageRouter(tt.images, notifier)
			w := doRequest(r, http.MethodPost, "/treasury/vehicles/7/image/complete",
				jsonBody(t, imageCompleteRequest{ObjectKey: tt.key}),
				map[string]string{"business-id": "biz-1"})
			assert.Equal(t, tt.code, w.Code, w.Body.String())
			assert.Empty(t, notifier.events)
		})
	}
}

func TestImageExtension(t *testing.T) {
	tests := []struct {
		file, mime, want string
		ok               bool
	}{
		{"a.png", "image/png", ".png", true},
		{"a.jpeg", "image/jpeg", ".jpeg", true},
		{"a.png", "image/jpeg", ".jpg", true},
		{"", "IMAGE/PNG", ".png", true},
		{"a.gif", "image/gif", "", false},
	}
	for _, tt := range tests {
		got, ok := imageExtension(tt.file, tt.mime)
		assert.Equal(t, tt.ok, ok, tt.mime)
		assert.Equal(t, tt.want, got, tt.file)
	}
}

func TestMakeThumbnail(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1000, 500))
	for x := 0; x < 1000; x++ {
		src.Set(x, 250, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	out, err := makeThumbnail(buf.Bytes(), 320)
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 160, img.Bounds().Dy())
}

func TestMakeThumbnail_SmallImageKeepsSize(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 100, 80))))

	out, err := makeThumbnail(buf.Bytes(), 320)
	require.NoError(t, err)
	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
}

func TestMakeThumbnail_RejectsGarbage(t *testing.T) {
	_, err := makeThumbnail([]byte("not an image"), 320)
	assert.Error(t, err)
}
