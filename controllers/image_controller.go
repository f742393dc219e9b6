package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pixvault/pixvault/config"
	"github.com/pixvault/pixvault/models"
	"github.com/pixvault/pixvault/services"
	"github.com/pixvault/pixvault/utils"
)

var validCategories = []string{"general", "nature", "urban", "people", "animals", "abstract"}

// ImageController manages gallery images: upload, listing, editing, likes and
// point-gated downloads.
type ImageController struct {
	db      *gorm.DB
	gallery *services.GalleryService
	likes   *services.LikeService
	points  *services.PointsService
}

// NewImageController creates a new controller instance.
func NewImageController(db *gorm.DB, gallery *services.GalleryService, likes *services.LikeService, points *services.PointsService) *ImageController {
	return &ImageController{db: db, gallery: gallery, likes: likes, points: points}
}

func isValidCategory(c string) bool {
	for _, v := range validCategories {
		if c == v {
			return true
		}
	}
	return false
}

// Upload stores the image binary and creates the gallery row in one request.
func (ic *ImageController) Upload(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	title := utils.Sanitize(strings.TrimSpace(ctx.PostForm("title")))
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40030, "title cannot be empty")
		return
	}
	description := utils.Sanitize(ctx.PostForm("description"))
	category := strings.ToLower(strings.TrimSpace(ctx.PostForm("category")))
	if category == "" {
		category = "general"
	}
	if !isValidCategory(category) {
		utils.Error(ctx, http.StatusBadRequest, 40031, "invalid category")
		return
	}
	pointsRequired := 0
	if v := ctx.PostForm("points_required"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > models.MaxPointsRequired {
			utils.Error(ctx, http.StatusBadRequest, 40032,
				fmt.Sprintf("points_required must be between 0 and %d", models.MaxPointsRequired))
			return
		}
		pointsRequired = n
	}

	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40033, "no file uploaded")
		return
	}
	defer file.Close()

	cfg := config.Get()
	maxSize := int64(cfg.UploadMaxSizeMB) * 1024 * 1024
	if header.Size > 0 && header.Size > maxSize {
		utils.Error(ctx, http.StatusBadRequest, 40034,
			fmt.Sprintf("file size exceeds %dMB", cfg.UploadMaxSizeMB))
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
	default:
		utils.Error(ctx, http.StatusBadRequest, 40035, "unsupported image format")
		return
	}

	now := time.Now()
	baseDir := filepath.Join(cfg.UploadDir, now.Format("2006"), now.Format("01"), now.Format("02"))
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to create upload directory")
		return
	}

	safeName := uuid.NewString() + ext
	dstPath := filepath.Join(baseDir, safeName)
	out, err := os.Create(dstPath)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to save file")
		return
	}
	defer out.Close()

	lr := &io.LimitedReader{R: file, N: maxSize + 1}
	written, err := io.Copy(out, lr)
	if err != nil || written > maxSize {
		_ = out.Close()
		_ = os.Remove(dstPath)
		if written > maxSize {
			utils.Error(ctx, http.StatusBadRequest, 40034,
				fmt.Sprintf("file size exceeds %dMB", cfg.UploadMaxSizeMB))
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to write file")
		return
	}

	img := &models.Image{
		UserID:         userID,
		Title:          title,
		Description:    description,
		Category:       category,
		URL:            "/" + filepath.ToSlash(dstPath),
		FilePath:       dstPath,
		PointsRequired: pointsRequired,
	}
	if err := ic.gallery.CreateImage(ctx.Request.Context(), img); err != nil {
		_ = os.Remove(dstPath)
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to create image record")
		return
	}

	utils.InvalidateByPrefix("cache:images:list:")
	utils.Success(ctx, gin.H{"image": img})
}

// List returns paginated images, newest first, narrowed by category and a
// case-insensitive search over title and description. Unsearched pages are
// cached to keep the homepage cheap.
func (ic *ImageController) List(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	search := strings.TrimSpace(ctx.Query("search"))
	category := strings.TrimSpace(ctx.Query("category"))

	// Cache only searchless listings to avoid cache key explosion.
	cacheKey := fmt.Sprintf("cache:images:list:cat=%s:page=%d:size=%d", category, page, pageSize)
	if search == "" {
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(http.StatusOK, "application/json", b)
			return
		}
	}

	images, total, err := ic.gallery.ListImages(ctx.Request.Context(), services.ImageFilter{
		Category: category,
		Search:   search,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to list images")
		return
	}

	payload := gin.H{
		"items": images,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}
	if search == "" {
		utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	}
	utils.Success(ctx, payload)
}

// Get returns a single image with its owner.
func (ic *ImageController) Get(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40036, "invalid image id")
		return
	}

	cacheKey := "cache:images:detail:" + ctx.Param("id")
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	img, err := ic.gallery.GetImage(ctx.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrImageNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40430, "image not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50035, "failed to load image")
		return
	}

	payload := gin.H{"image": img}
	utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	utils.Success(ctx, payload)
}

// Update lets the owner edit title, description, category and download price.
func (ic *ImageController) Update(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40036, "invalid image id")
		return
	}

	var req struct {
		Title          *string `json:"title"`
		Description    *string `json:"description"`
		Category       *string `json:"category"`
		PointsRequired *int    `json:"points_required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40037, "invalid request payload")
		return
	}

	upd := services.ImageUpdate{PointsRequired: req.PointsRequired}
	if req.Title != nil {
		t := utils.Sanitize(strings.TrimSpace(*req.Title))
		if t == "" {
			utils.Error(ctx, http.StatusBadRequest, 40030, "title cannot be empty")
			return
		}
		upd.Title = &t
	}
	if req.Description != nil {
		d := utils.Sanitize(*req.Description)
		upd.Description = &d
	}
	if req.Category != nil {
		c := strings.ToLower(strings.TrimSpace(*req.Category))
		if c != "" && !isValidCategory(c) {
			utils.Error(ctx, http.StatusBadRequest, 40031, "invalid category")
			return
		}
		upd.Category = &c
	}

	img, err := ic.gallery.UpdateImage(ctx.Request.Context(), uint(id), userID, upd)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrImageNotFound):
			utils.Error(ctx, http.StatusNotFound, 40430, "image not found")
		case errors.Is(err, services.ErrNotOwner):
			utils.Error(ctx, http.StatusForbidden, 40330, "you can only update your own images")
		case errors.Is(err, services.ErrInvalidPointsRange):
			utils.Error(ctx, http.StatusBadRequest, 40032,
				fmt.Sprintf("points_required must be between 0 and %d", models.MaxPointsRequired))
		default:
			utils.Error(ctx, http.StatusInternalServerError, 50036, "failed to update image")
		}
		return
	}

	utils.InvalidateByPrefix("cache:images:list:")
	utils.InvalidateByPrefix("cache:images:detail:" + ctx.Param("id"))
	utils.Success(ctx, gin.H{"image": img})
}

// Delete removes the image row and its stored file. Owner only, admins may
// override.
func (ic *ImageController) Delete(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40036, "invalid image id")
		return
	}

	img, err := ic.gallery.DeleteImage(ctx.Request.Context(), uint(id), userID, isAdmin(ctx))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrImageNotFound):
			utils.Error(ctx, http.StatusNotFound, 40430, "image not found")
		case errors.Is(err, services.ErrNotOwner):
			utils.Error(ctx, http.StatusForbidden, 40331, "you can only delete your own images")
		default:
			utils.Error(ctx, http.StatusInternalServerError, 50037, "failed to delete image")
		}
		return
	}

	// Best-effort file removal; the row is already gone.
	if img.FilePath != "" {
		if rmErr := os.Remove(img.FilePath); rmErr != nil && !os.IsNotExist(rmErr) {
			utils.Sugar.Warnf("failed to remove image file %s: %v", img.FilePath, rmErr)
		}
	}

	utils.InvalidateByPrefix("cache:images:list:")
	utils.InvalidateByPrefix("cache:images:detail:" + ctx.Param("id"))
	utils.Success(ctx, gin.H{"message": "image deleted"})
}

// Download serves the image binary, debiting the viewer's points first when
// the image carries a price. Owners and free images bypass the ledger. If the
// stored file turns out to be missing after a successful debit, the points
// are refunded as a transfer-typed credit.
func (ic *ImageController) Download(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40036, "invalid image id")
		return
	}

	img, err := ic.gallery.GetImage(ctx.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrImageNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40430, "image not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50035, "failed to load image")
		return
	}

	charged := false
	if img.UserID != userID && img.PointsRequired > 0 {
		acct, err := ic.points.Account(ctx.Request.Context(), userID)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50038, "failed to load points account")
			return
		}
		if !ic.gallery.CanDownload(img, userID, acct.PointsBalance) {
			utils.Error(ctx, http.StatusPaymentRequired, 40230, "not enough points to download this image")
			return
		}
		if _, err := ic.points.Debit(ctx.Request.Context(), userID, img.PointsRequired, &img.ID, "Download: "+img.Title); err != nil {
			if errors.Is(err, services.ErrInsufficientBalance) {
				utils.Error(ctx, http.StatusPaymentRequired, 40230, "not enough points to download this image")
				return
			}
			utils.Error(ctx, http.StatusInternalServerError, 50039, "failed to debit points")
			return
		}
		charged = true
	}

	if _, statErr := os.Stat(img.FilePath); statErr != nil {
		if charged {
			if _, refundErr := ic.points.Credit(ctx.Request.Context(), userID, img.PointsRequired, &img.ID, "Refund: "+img.Title); refundErr != nil {
				utils.Sugar.Errorf("refund failed for user %d image %d: %v", userID, img.ID, refundErr)
			}
		}
		utils.Error(ctx, http.StatusNotFound, 40431, "image file missing")
		return
	}

	ctx.FileAttachment(img.FilePath, filepath.Base(img.FilePath))
}

// ToggleLike flips the caller's like and returns the authoritative new state.
func (ic *ImageController) ToggleLike(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40036, "invalid image id")
		return
	}

	liked, likesCount, err := ic.likes.Toggle(ctx.Request.Context(), uint(id), userID)
	if err != nil {
		if errors.Is(err, services.ErrImageNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40430, "image not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to toggle like")
		return
	}

	utils.InvalidateByPrefix("cache:images:list:")
	utils.InvalidateByPrefix("cache:images:detail:" + ctx.Param("id"))
	utils.Success(ctx, gin.H{"liked": liked, "likes_count": likesCount})
}

// LikeStatus reports whether the caller currently likes the image.
func (ic *ImageController) LikeStatus(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40036, "invalid image id")
		return
	}

	liked, err := ic.likes.IsLiked(ctx.Request.Context(), uint(id), userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to check like status")
		return
	}
	utils.Success(ctx, gin.H{"liked": liked})
}

// ListUserImages returns a user's uploads, newest first (public).
func (ic *ImageController) ListUserImages(ctx *gin.Context) {
	ownerID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40038, "invalid user id")
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	var images []models.Image
	var total int64
	q := ic.db.Where("user_id = ?", ownerID).Preload("User").Order("created_at DESC, id DESC")
	if err := q.Model(&models.Image{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to count user images")
		return
	}
	if err := q.Offset((page - 1) * pageSize).Limit(pageSize).Find(&images).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to list user images")
		return
	}
	utils.Success(ctx, gin.H{
		"items": images,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	})
}
