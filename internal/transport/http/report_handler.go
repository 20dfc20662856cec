package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "jpxcli/internal/errors"
	"jpxcli/internal/exporter"
	"jpxcli/internal/services"
	"jpxcli/pkg/contracts/domain"
)

const (
	defaultUploadName = "upload.xlsx"
	multipartMemory   = 8 << 20
)

// ReportHandler handles workbook uploads.
type ReportHandler struct {
	reports  ReportParser
	exporter *exporter.Writer
	errs     *apperrors.ErrorHandler
	logger   *slog.Logger
}

// NewReportHandler creates a report handler.
func NewReportHandler(reports ReportParser, ex *exporter.Writer, errs *apperrors.ErrorHandler, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		reports:  reports,
		exporter: ex,
		errs:     errs,
		logger:   logger.With(slog.String("handler", "reports")),
	}
}

// Routes sets up the report routes
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/{kind}", h.Parse)
	return r
}

// BatchItem is one workbook of a multi-file upload.
type BatchItem struct {
	Name   string                 `json:"name"`
	Report *services.ParsedReport `json:"report,omitempty"`
	Error  *BatchError            `json:"error,omitempty"`
}

// BatchError is the problem summary of a failed workbook.
type BatchError struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

// Parse handles POST /api/v1/reports/{kind}. The body is either the raw
// workbook or a multipart form whose "file" parts are parsed concurrently.
func (h *ReportHandler) Parse(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseReportKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.errs.HandleError(w, r, apperrors.ErrUnsupportedReport.WithDetails(err.Error(),
			map[string]interface{}{"supported": []domain.ReportKind{
				domain.ReportFuturesOI, domain.ReportOptionOI, domain.ReportVolume, domain.ReportDailyOI,
			}}))
		return
	}
	format, download, err := exportFormat(r)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	inputs, err := readWorkbooks(r, kind)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	if len(inputs) > 1 {
		if download {
			h.errs.HandleError(w, r, apperrors.ErrValidation("format", "export is available for single workbook uploads only"))
			return
		}
		render.JSON(w, r, h.batch(r, inputs))
		return
	}

	report, err := h.reports.Parse(r.Context(), inputs[0])
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	if download {
		ds := reportDataset(report)
		if err := writeExport(w, h.exporter, format, ds); err != nil {
			h.errs.HandleError(w, r, err)
		}
		return
	}
	render.JSON(w, r, report)
}

func (h *ReportHandler) batch(r *http.Request, inputs []services.ReportInput) []BatchItem {
	results := h.reports.ParseBatch(r.Context(), inputs)
	items := make([]BatchItem, len(results))
	for i, res := range results {
		items[i] = BatchItem{Name: res.Name, Report: res.Report}
		if res.Err != nil {
			p := h.errs.ErrorToProblem(res.Err, r)
			items[i].Error = &BatchError{Type: p.Type, Title: p.Title, Status: p.Status, Detail: p.Detail}
		}
	}
	h.logger.DebugContext(r.Context(), "batch upload parsed", slog.Int("files", len(items)))
	return items
}

// readWorkbooks reads the raw body, or every "file" part of a multipart
// form.
func readWorkbooks(r *http.Request, kind domain.ReportKind) ([]services.ReportInput, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return nil, bodyError(err)
		}
		defer r.MultipartForm.RemoveAll()
		files := r.MultipartForm.File["file"]
		if len(files) == 0 {
			return nil, apperrors.ErrValidation("file", "multipart upload needs at least one \"file\" part")
		}
		inputs := make([]services.ReportInput, 0, len(files))
		for _, fh := range files {
			data, err := readPart(fh)
			if err != nil {
				return nil, bodyError(err)
			}
			inputs = append(inputs, services.ReportInput{Name: fh.Filename, Kind: kind, Data: data})
		}
		return inputs, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, bodyError(err)
	}
	if len(data) == 0 {
		return nil, apperrors.New(http.StatusBadRequest, "INVALID_REQUEST", "Request body is empty")
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = defaultUploadName
	}
	return []services.ReportInput{{Name: name, Kind: kind, Data: data}}, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.ErrPayloadTooLarge
	}
	return apperrors.InvalidRequestWithError(err)
}

func reportDataset(rep *services.ParsedReport) exporter.Dataset {
	switch rep.Kind {
	case domain.ReportVolume:
		return exporter.VolumeRecords(rep.Volumes)
	case domain.ReportDailyOI:
		return exporter.DailyOIBalances(rep.Balances)
	}
	return exporter.PositionRecords(rep.Positions)
}

// exportFormat reads ?format=. download is false when no format was asked
// for and the JSON envelope should be rendered.
func exportFormat(r *http.Request) (exporter.Format, bool, error) {
	raw := r.URL.Query().Get("format")
	if raw == "" {
		return "", false, nil
	}
	f, err := exporter.ParseFormat(raw)
	if err != nil {
		return "", false, apperrors.ErrValidation("format", err.Error())
	}
	return f, true, nil
}

// writeExport renders ds fully before writing so a failure can still
// become a problem response.
func writeExport(w http.ResponseWriter, ex *exporter.Writer, f exporter.Format, ds exporter.Dataset) error {
	var buf bytes.Buffer
	if err := ex.Write(&buf, f, ds); err != nil {
		return err
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ds.Name()+"."+string(f)))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
	return nil
}
