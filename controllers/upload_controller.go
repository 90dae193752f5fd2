package controllers

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/prince-music-backend/middleware"
	"github.com/vnkhanh/prince-music-backend/services"
	"github.com/vnkhanh/prince-music-backend/utils"
)

// UploadFile stores the multipart "file" field and returns its public URL.
func UploadFile(c *gin.Context) {
	svc := middleware.GetServices(c)

	fh, err := c.FormFile("file")
	if err != nil {
		utils.Fail(c, utils.NewValidationError("No file uploaded"))
		return
	}
	contentType, err := services.CheckUpload(fh)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	f, err := fh.Open()
	if err != nil {
		utils.Fail(c, err)
		return
	}
	defer f.Close()

	name := services.NewFilename(contentType, fh.Filename)
	uploaded, err := svc.Uploader.Upload(c.Request.Context(), name, contentType, f, fh.Size)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "File uploaded successfully", uploaded)
}

// TestUpload reports whether a previously uploaded file is still present.
func TestUpload(c *gin.Context) {
	svc := middleware.GetServices(c)
	name := filepath.Base(c.Param("filename"))
	if name == "." || name == "/" || name == ".." {
		utils.Fail(c, utils.NewValidationError("Invalid filename"))
		return
	}
	exists, err := svc.Uploader.Exists(c.Request.Context(), name)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Upload lookup complete", gin.H{
		"filename": name,
		"exists":   exists,
	})
}
