package main

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/PedrooFerraz/Inventory-app-sub000/config"
	"github.com/PedrooFerraz/Inventory-app-sub000/models"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type importURIRequest struct {
	FileUri   string `json:"fileUri" validate:"required"`
	FileName  string `json:"fileName"`
	CountType int    `json:"countType" validate:"required,oneof=1 2"`
}

// uploadImportHandler stores a multipart CSV ("file" field) and imports it.
func (s *server) uploadImportHandler(c *gin.Context) {
	countType, err := models.ParseCountType(c.DefaultPostForm("countType", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if header.Size > models.MaxImportFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "import file exceeds 6 MiB"})
		return
	}
	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != ".csv" && ext != ".txt" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only .csv files can be imported"})
		return
	}

	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read upload"})
		return
	}
	defer f.Close()

	uri, err := s.uploads.Save(c.Request.Context(), header.Filename, f)
	if err != nil {
		config.LogError(s.logger, "uploads.go", "uploadImportHandler", "save upload", header.Filename, err)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
		return
	}
	s.logger.WithFields(logrus.Fields{"file": header.Filename, "uri": uri, "size": header.Size}).Info("import file stored")

	s.runImport(c, uri, header.Filename, countType)
}

// importFromURIHandler imports a file already reachable by URI (local path,
// gs:// or sftp://).
func (s *server) importFromURIHandler(c *gin.Context) {
	var req importURIRequest
	if !bindAndValidate(c, &req) {
		return
	}
	name := req.FileName
	if name == "" {
		name = filepath.Base(req.FileUri)
	}
	s.runImport(c, req.FileUri, name, models.CountType(req.CountType))
}

func (s *server) runImport(c *gin.Context, uri string, name string, countType models.CountType) {
	res, err := s.importer.InsertInventory(c.Request.Context(), uri, name, countType)
	if err == nil {
		c.JSON(http.StatusCreated, res)
		return
	}
	_ = c.Error(err)

	var (
		dup       *models.DuplicateInventoryError
		importErr *models.ImportError
	)
	switch {
	case errors.As(err, &dup):
		c.JSON(http.StatusConflict, gin.H{"error": dup.Error()})
	case errors.Is(err, models.ErrImportInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &importErr) && importErr.Kind == models.ImportFileTooLarge:
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": importErr.Error(), "kind": importErr.Kind})
	case errors.As(err, &importErr):
		// the message is generic for anything past the file checks
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "kind": importErr.Kind})
	default:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	}
}
