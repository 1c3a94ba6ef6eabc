package handler

import (
	"errors"
	"net/http"

	"github.com/aurafolio/internal/importer"
	"github.com/gin-gonic/gin"
)

// ListImportModels 返回支持 CSV 导入的模型。
func (a *API) ListImportModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"models": a.importer.Models()})
}

// ImportCSV 导入上传的 CSV 文件；单行失败不影响其余行，结果中列出失败行号。
func (a *API) ImportCSV(c *gin.Context) {
	model := c.Param("model")
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "请选择要导入的 CSV 文件")
		return
	}
	src, err := file.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "读取文件失败")
		return
	}
	defer src.Close()

	updateExisting := parseFormBool(c.PostForm("update_existing"))
	result, err := a.importer.Run(c.Request.Context(), model, src, importer.Options{UpdateExisting: updateExisting})
	if err != nil {
		switch {
		case errors.Is(err, importer.ErrUnknownModel):
			respondError(c, http.StatusNotFound, "不支持导入该模型")
		case errors.Is(err, importer.ErrEmptyFile):
			respondError(c, http.StatusBadRequest, "CSV 文件为空")
		case errors.Is(err, importer.ErrMissingColumn):
			respondError(c, http.StatusBadRequest, "CSV 缺少必需的列："+err.Error())
		default:
			c.Error(err)
			respondError(c, http.StatusInternalServerError, "导入失败")
		}
		return
	}
	if result.Created+result.Updated > 0 {
		a.invalidateDashboard(c)
	}

	errorsPayload := make([]gin.H, 0, len(result.Errors))
	for _, rowErr := range result.Errors {
		errorsPayload = append(errorsPayload, gin.H{"line": rowErr.Line, "message": rowErr.Message})
	}

	c.JSON(http.StatusOK, gin.H{
		"message": result.Summary(),
		"model":   result.Model,
		"created": result.Created,
		"updated": result.Updated,
		"skipped": result.Skipped,
		"failed":  result.Failed,
		"errors":  errorsPayload,
	})
}

func parseFormBool(raw string) bool {
	return importer.ParseBool(raw, false) || raw == "on"
}
