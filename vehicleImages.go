package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mmdatafocus/dealer_backend/config"
	"github.com/mmdatafocus/dealer_backend/middlewares"
	"github.com/mmdatafocus/dealer_backend/models"
	"github.com/mmdatafocus/dealer_backend/treasury"
	"github.com/mmdatafocus/dealer_backend/utils"
	"github.com/sirupsen/logrus"
)

const (
	maxImageSizeBytes int64 = 5 * 1024 * 1024
	thumbnailWidth          = 320
	uploadURLTTL            = 15 * time.Minute
)

var imageMimeTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

type imageSignRequest struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType" binding:"required"`
	Size     int64  `json:"size" binding:"required,gt=0"`
}

type imageCompleteRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
}

type imageCompleteResponse struct {
	ObjectKey          string `json:"objectKey"`
	ImageURL           string `json:"imageUrl"`
	ThumbnailObjectKey string `json:"thumbnailObjectKey,omitempty"`
	ThumbnailURL       string `json:"thumbnailUrl,omitempty"`
}

// vehicleImageStore is the storage side of cover image uploads.
type vehicleImageStore interface {
	SignUpload(ctx context.Context, objectKey, contentType string) (*utils.SignedUpload, error)
	Thumbnail(ctx context.Context, objectKey string) (string, error)
	SetItemImage(ctx context.Context, businessId string, itemId int, objectKey string) error
}

type gcsVehicleImages struct{}

func (gcsVehicleImages) SignUpload(ctx context.Context, objectKey, contentType string) (*utils.SignedUpload, error) {
	return utils.SignUpload(ctx, objectKey, contentType, uploadURLTTL)
}

func (gcsVehicleImages) Thumbnail(ctx context.Context, objectKey string) (string, error) {
	data, err := utils.ReadObject(ctx, objectKey, maxImageSizeBytes)
	if err != nil {
		return "", err
	}
	thumb, err := makeThumbnail(data, thumbnailWidth)
	if err != nil {
		return "", err
	}
	key := thumbnailObjectKey(objectKey)
	if err := utils.UploadBytes(ctx, key, thumb, "image/jpeg"); err != nil {
		return "", err
	}
	return key, nil
}

func (gcsVehicleImages) SetItemImage(ctx context.Context, businessId string, itemId int, objectKey string) error {
	return models.SetInventoryItemImage(ctx, businessId, itemId, objectKey)
}

func registerVehicleImageRoutes(r *gin.Engine, images vehicleImageStore, notifier changeNotifier, logger *logrus.Logger) {
	g := r.Group("/treasury/vehicles/:id/image", middlewares.BusinessMiddleware())
	g.POST("/sign", signVehicleImageHandler(images, logger))
	g.POST("/complete", completeVehicleImageHandler(images, notifier, logger))
}

func signVehicleImageHandler(images vehicleImageStore, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, _ := utils.GetBusinessIdFromContext(c.Request.Context())
		itemId, ok := vehicleIdParam(c)
		if !ok {
			return
		}

		var req imageSignRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "mimeType and size are required"})
			return
		}
		if req.Size > maxImageSizeBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file size exceeds 5MB limit"})
			return
		}
		ext, ok := imageExtension(req.FileName, req.MimeType)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported image type"})
			return
		}

		objectKey := vehicleImagePrefix(businessId, itemId) + uuid.New().String() + ext
		signed, err := images.SignUpload(c.Request.Context(), objectKey, req.MimeType)
		if err != nil {
			logImageError(logger, c, err)
			message := "failed to sign upload"
			if !strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
				message = fmt.Sprintf("failed to sign upload: %v", err)
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": message})
			return
		}

		logger.WithFields(logrus.Fields{
			"business_id": businessId,
			"item_id":     itemId,
			"mime_type":   req.MimeType,
			"size":        req.Size,
			"object_key":  objectKey,
		}).Info("[vehicle_image.sign]")

		c.JSON(http.StatusOK, gin.H{"data": signed})
	}
}

func completeVehicleImageHandler(images vehicleImageStore, notifier changeNotifier, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		businessId, _ := utils.GetBusinessIdFromContext(ctx)
		itemId, ok := vehicleIdParam(c)
		if !ok {
			return
		}

		var req imageCompleteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "objectKey is required"})
			return
		}
		objectKey := strings.TrimSpace(req.ObjectKey)
		if !strings.HasPrefix(objectKey, vehicleImagePrefix(businessId, itemId)) || strings.Contains(objectKey, "..") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid object key"})
			return
		}

		response := imageCompleteResponse{
			ObjectKey: objectKey,
			ImageURL:  utils.BuildObjectAccessURL(objectKey),
		}
		// The cover still works without a thumbnail.
		if thumbKey, err := images.Thumbnail(ctx, objectKey); err != nil {
			logImageError(logger, c, err)
		} else {
			response.ThumbnailObjectKey = thumbKey
			response.ThumbnailURL = utils.BuildObjectAccessURL(thumbKey)
		}

		if err := images.SetItemImage(ctx, businessId, itemId, objectKey); err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
				return
			}
			logImageError(logger, c, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save image"})
			return
		}

		// Hooks may already publish this change; a duplicate is coalesced by the refresher.
		if notifier != nil {
			ev := treasury.ChangeEvent{
				BusinessId: businessId,
				Table:      models.InventoryItem{}.TableName(),
				Action:     "UPDATE",
				RecordId:   itemId,
				OccurredAt: time.Now().UTC(),
			}
			if err := notifier.Notify(ctx, ev); err != nil {
				config.LogError(logger, "vehicleImages.go", "completeVehicleImageHandler", "Notify", ev, err)
			}
		}

		logger.WithFields(logrus.Fields{
			"business_id": businessId,
			"item_id":     itemId,
			"object_key":  objectKey,
		}).Info("[vehicle_image.complete]")

		c.JSON(http.StatusOK, gin.H{"data": response})
	}
}

func vehicleIdParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vehicle id"})
		return 0, false
	}
	return id, true
}

func vehicleImagePrefix(businessId string, itemId int) string {
	return path.Join(businessId, "vehicles", strconv.Itoa(itemId)) + "/"
}

// imageExtension prefers the file's own extension when it agrees with the mime type.
func imageExtension(fileName, mimeType string) (string, bool) {
	ext, ok := imageMimeTypes[strings.ToLower(strings.TrimSpace(mimeType))]
	if !ok {
		return "", false
	}
	switch own := strings.ToLower(filepath.Ext(fileName)); {
	case own == ext, own == ".jpeg" && ext == ".jpg":
		return own, true
	}
	return ext, true
}

func thumbnailObjectKey(objectKey string) string {
	base := strings.TrimSuffix(path.Base(objectKey), path.Ext(objectKey))
	return path.Join(path.Dir(objectKey), "thumbnails", base+".jpg")
}

func makeThumbnail(data []byte, width int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	if img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func logImageError(logger *logrus.Logger, c *gin.Context, err error) {
	cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
	logger.WithFields(logrus.Fields{
		"error":          err.Error(),
		"provider":       utils.GetStorageProvider(),
		"correlation_id": cid,
		"path":           c.FullPath(),
	}).Error("[vehicle_image.error]")
}
