package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/api/responses"
	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/core/corrispettivi"
	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/core/normalize"
	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/domain"
	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/report"
	"github.com/gin-gonic/gin"
)

// ReconcileHandler serves the reconciliation endpoints.
type ReconcileHandler struct {
	service  corrispettivi.Service
	settings report.Settings
	defaults corrispettivi.Options
}

// NewReconcileHandler creates the handler. defaults apply when a request
// does not choose a variant or an invalid-row policy.
func NewReconcileHandler(service corrispettivi.Service, settings report.Settings, defaults corrispettivi.Options) *ReconcileHandler {
	return &ReconcileHandler{
		service:  service,
		settings: settings,
		defaults: defaults,
	}
}

// ReconcileResponse is the JSON body of HandleReconcile.
type ReconcileResponse struct {
	Result  *domain.Result `json:"result"`
	Preview report.Preview `json:"preview"`
}

// HandleReconcile returns the reconciled days and the on-screen tables.
func (h *ReconcileHandler) HandleReconcile(c *gin.Context) {
	result, ok := h.reconcile(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ReconcileResponse{
		Result:  result,
		Preview: report.NewPreview(result, h.settings),
	})
}

// HandlePDF returns the report as a downloadable PDF.
func (h *ReconcileHandler) HandlePDF(c *gin.Context) {
	result, ok := h.reconcile(c)
	if !ok {
		return
	}
	pdf, err := report.BuildPDF(result, h.settings)
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Errore nella generazione del PDF", err.Error())
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+report.FileName(result, "pdf"))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// HandleCSV returns the reconciled days as CSV for the accounting software.
func (h *ReconcileHandler) HandleCSV(c *gin.Context) {
	result, ok := h.reconcile(c)
	if !ok {
		return
	}
	out, err := report.WriteCSV(result)
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Errore nella generazione del CSV", err.Error())
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+report.FileName(result, "csv"))
	c.Data(http.StatusOK, "text/csv; charset=windows-1252", out)
}

// reconcile reads the uploads and runs the service. On failure it has
// already written the error response.
func (h *ReconcileHandler) reconcile(c *gin.Context) (*domain.Result, bool) {
	opts, ok := h.options(c)
	if !ok {
		return nil, false
	}

	ownFile, ownName, ok := openUpload(c, "ownFile", "File delle note (.csv) non trovato o non valido")
	if !ok {
		return nil, false
	}
	defer ownFile.Close()

	ledgerFile, ledgerName, ok := openUpload(c, "ledgerFile", "File Billy (.xlsx) non trovato o non valido")
	if !ok {
		return nil, false
	}
	defer ledgerFile.Close()

	in := corrispettivi.Input{
		Own:     corrispettivi.Source{Reader: ownFile, Filename: ownName},
		Ledger:  corrispettivi.Source{Reader: ledgerFile, Filename: ledgerName},
		Options: opts,
	}

	if _, err := c.FormFile("posFile"); err == nil {
		posFile, posName, ok := openUpload(c, "posFile", "File SumUp non valido")
		if !ok {
			return nil, false
		}
		defer posFile.Close()
		in.POS = &corrispettivi.Source{Reader: posFile, Filename: posName}
	}

	result, err := h.service.Reconcile(c.Request.Context(), in)
	if err != nil {
		writeRunError(c, err)
		return nil, false
	}
	return result, true
}

func (h *ReconcileHandler) options(c *gin.Context) (corrispettivi.Options, bool) {
	opts := h.defaults

	if v := c.PostForm("variant"); v != "" {
		variant, err := corrispettivi.ParseVariant(v)
		if err != nil {
			responses.Error(c, http.StatusBadRequest, "Variante non valida", err.Error())
			return opts, false
		}
		opts.Variant = variant
	}
	if p := c.PostForm("onInvalidRow"); p != "" {
		policy, err := normalize.ParsePolicy(p)
		if err != nil {
			responses.Error(c, http.StatusBadRequest, "Politica per le righe non valide sconosciuta", err.Error())
			return opts, false
		}
		opts.OnInvalidRow = policy
	}
	return opts, true
}

func openUpload(c *gin.Context, field, missingMsg string) (multipart.File, string, bool) {
	header, err := c.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			responses.Error(c, http.StatusRequestEntityTooLarge, "File troppo grande", fmt.Sprintf("limite %d byte", tooLarge.Limit))
			return nil, "", false
		}
		responses.Error(c, http.StatusBadRequest, missingMsg)
		return nil, "", false
	}
	file, err := header.Open()
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Impossibile aprire il file caricato", field)
		return nil, "", false
	}
	return file, header.Filename, true
}

func writeRunError(c *gin.Context, err error) {
	var (
		schemaErr   *domain.ErrSchemaNotFound
		rejectedErr *domain.ErrRowRejected
		formatErr   *domain.ErrUnsupportedFormat
	)
	switch {
	case errors.As(err, &schemaErr):
		responses.Error(c, http.StatusUnprocessableEntity, "Struttura del file non riconosciuta", err.Error())
	case errors.As(err, &rejectedErr):
		responses.Error(c, http.StatusUnprocessableEntity, "Riga con data non valida", err.Error())
	case errors.As(err, &formatErr):
		responses.Error(c, http.StatusUnprocessableEntity, "Formato del file non supportato", err.Error())
	default:
		responses.Error(c, http.StatusInternalServerError, "Errore imprevisto durante l'elaborazione dei file")
	}
}
