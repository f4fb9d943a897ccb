package handler

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/tablexport/internal/logger"
	"github.com/locvowork/tablexport/pkg/xlsxport"
)

// ConvertHandler handles HTTP requests for CSV to XLSX conversion.
type ConvertHandler struct {
	DefaultSheetName string
	DefaultDateOrder xlsxport.DateOrder
}

// NewConvertHandler creates a new ConvertHandler.
func NewConvertHandler(sheetName string, order xlsxport.DateOrder) *ConvertHandler {
	return &ConvertHandler{DefaultSheetName: sheetName, DefaultDateOrder: order}
}

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

func respondError(c echo.Context, status int, msg string, err error) error {
	logger.ErrorLog(c.Request().Context(), msg, err)
	detail := msg
	if err != nil {
		detail = fmt.Sprintf("%s: %v", msg, err)
	}
	return c.JSON(status, APIResponse{Success: false, Error: detail})
}

// Convert handles POST /convert. It accepts a multipart CSV upload in the
// "file" field, with optional "sheet" and "date_order" form values, and
// responds with the converted workbook as an attachment. Row and column
// counts are reported in X-Row-Count and X-Column-Count headers.
func (h *ConvertHandler) Convert(c echo.Context) error {
	ctx := c.Request().Context()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return respondError(c, http.StatusBadRequest, "missing file upload", err)
	}

	sheetName := c.FormValue("sheet")
	if sheetName == "" {
		sheetName = h.DefaultSheetName
	}
	order := h.DefaultDateOrder
	if raw := c.FormValue("date_order"); raw != "" {
		if order, err = xlsxport.ParseDateOrder(raw); err != nil {
			return respondError(c, http.StatusBadRequest, "invalid date_order", err)
		}
	}

	src, err := fileHeader.Open()
	if err != nil {
		return respondError(c, http.StatusBadRequest, "cannot read upload", err)
	}
	defer src.Close()

	tmpDir, err := os.MkdirTemp("", "tablexport-*")
	if err != nil {
		return respondError(c, http.StatusInternalServerError, "cannot create workspace", err)
	}
	defer os.RemoveAll(tmpDir)

	inPath := filepath.Join(tmpDir, "input.csv")
	outPath := filepath.Join(tmpDir, "output.xlsx")
	in, err := os.Create(inPath)
	if err != nil {
		return respondError(c, http.StatusInternalServerError, "cannot stage upload", err)
	}
	if _, err := io.Copy(in, src); err != nil {
		in.Close()
		return respondError(c, http.StatusInternalServerError, "cannot stage upload", err)
	}
	if err := in.Close(); err != nil {
		return respondError(c, http.StatusInternalServerError, "cannot stage upload", err)
	}

	rows, cols, err := xlsxport.ConvertCSV(inPath, outPath,
		xlsxport.WithSheetName(sheetName),
		xlsxport.WithDateOrder(order),
	)
	if err != nil {
		return respondError(c, http.StatusUnprocessableEntity, "conversion failed", err)
	}

	logger.InfoLog(ctx, "converted %s: %d rows, %d cols", fileHeader.Filename, rows, cols)
	c.Response().Header().Set("X-Row-Count", fmt.Sprintf("%d", rows))
	c.Response().Header().Set("X-Column-Count", fmt.Sprintf("%d", cols))
	return c.Attachment(outPath, "converted.xlsx")
}

// Health handles GET /healthz.
func (h *ConvertHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, APIResponse{Success: true, Message: "ok"})
}
