package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/core/corrispettivi"
	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/observability"
	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/report"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const numbersCSV = "Data,Metodo,Importo\n01/01/2024,Contanti,\"100,00\"\n01/01/2024,POS,\"50,00\"\n"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	metrics := observability.NewMetrics()
	svc := corrispettivi.NewService(zap.NewNop(), metrics)
	h := NewReconcileHandler(svc, report.DefaultSettings, corrispettivi.Options{})
	return NewRouter(h, metrics, zap.NewNop(), 1<<20)
}

func billyXLSX(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "Corrispettivi"))
	require.NoError(t, f.SetSheetRow("Corrispettivi", "A1", &[]any{"Data", "Totale", "POS", "Contanti"}))
	require.NoError(t, f.SetSheetRow("Corrispettivi", "A2", &[]any{"01/01/2024", 140, 50, 90}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

type upload struct {
	field, name string
	content     []byte
}

func multipartRequest(t *testing.T, path string, fields map[string]string, files ...upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestHandleReconcile(t *testing.T) {
	router := newTestRouter(t)
	req := multipartRequest(t, "/api/v1/reconcile", nil,
		upload{"ownFile", "numbers.csv", []byte(numbersCSV)},
		upload{"ledgerFile", "billy.xlsx", billyXLSX(t)},
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var resp struct {
		Result struct {
			RunID string `json:"run_id"`
			Rows  []struct {
				DiffCash  string `json:"diff_cash"`
				DiffTotal string `json:"diff_total"`
			} `json:"rows"`
		} `json:"result"`
		Preview report.Preview `json:"preview"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Result.RunID)
	require.Len(t, resp.Result.Rows, 1)
	require.Equal(t, "10", resp.Result.Rows[0].DiffCash)
	require.Equal(t, "10", resp.Result.Rows[0].DiffTotal)
	require.Equal(t, "Report Corrispettivi - gennaio 2024", resp.Preview.Title)
	require.Equal(t, "€ 10.00", resp.Preview.PeriodTotal)
}

func TestHandleReconcile_MissingLedger(t *testing.T) {
	router := newTestRouter(t)
	req := multipartRequest(t, "/api/v1/reconcile", nil, upload{"ownFile", "numbers.csv", []byte(numbersCSV)})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "File Billy")
}

func TestHandleReconcile_InvalidVariant(t *testing.T) {
	router := newTestRouter(t)
	req := multipartRequest(t, "/api/v1/reconcile", map[string]string{"variant": "weekly"},
		upload{"ownFile", "numbers.csv", []byte(numbersCSV)},
		upload{"ledgerFile", "billy.xlsx", billyXLSX(t)},
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleReconcile_UploadTooLarge(t *testing.T) {
	router := newTestRouter(t)
	req := multipartRequest(t, "/api/v1/reconcile", nil,
		upload{"ownFile", "numbers.csv", bytes.Repeat([]byte("01/01/2024,POS,1\n"), 1<<17)},
		upload{"ledgerFile", "billy.xlsx", billyXLSX(t)},
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Contains(t, rec.Body.String(), "File troppo grande")
}

func TestHandleReconcile_SchemaError(t *testing.T) {
	router := newTestRouter(t)
	req := multipartRequest(t, "/api/v1/reconcile", nil,
		upload{"ownFile", "numbers.csv", []byte("Data,Note\n01/01/2024,x\n")},
		upload{"ledgerFile", "billy.xlsx", billyXLSX(t)},
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "Struttura del file non riconosciuta")
}

func TestHandleReconcile_FailPolicy(t *testing.T) {
	router := newTestRouter(t)
	req := multipartRequest(t, "/api/v1/reconcile", map[string]string{"onInvalidRow": "fail"},
		upload{"ownFile", "numbers.csv", []byte(numbersCSV + "boh,POS,1\n")},
		upload{"ledgerFile", "billy.xlsx", billyXLSX(t)},
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandleReconcile_UnexpectedError(t *testing.T) {
	router := newTestRouter(t)
	req := multipartRequest(t, "/api/v1/reconcile", nil,
		upload{"ownFile", "numbers.csv", []byte(numbersCSV)},
		upload{"ledgerFile", "billy.xlsx", []byte("not a workbook")},
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "zip")
}

func TestHandlePDF(t *testing.T) {
	router := newTestRouter(t)
	req := multipartRequest(t, "/api/v1/reconcile/pdf", nil,
		upload{"ownFile", "numbers.csv", []byte(numbersCSV)},
		upload{"ledgerFile", "billy.xlsx", billyXLSX(t)},
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "corrispettivi_gennaio_2024.pdf")
	require.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestHandleCSV(t *testing.T) {
	router := newTestRouter(t)
	req := multipartRequest(t, "/api/v1/reconcile/csv", nil,
		upload{"ownFile", "numbers.csv", []byte(numbersCSV)},
		upload{"ledgerFile", "billy.xlsx", billyXLSX(t)},
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.HasPrefix(rec.Body.String(), "Data;"))
}

func TestHealthAndMetrics(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"UP"}`, rec.Body.String())

	run := multipartRequest(t, "/api/v1/reconcile", nil,
		upload{"ownFile", "numbers.csv", []byte(numbersCSV)},
		upload{"ledgerFile", "billy.xlsx", billyXLSX(t)},
	)
	router.ServeHTTP(httptest.NewRecorder(), run)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `corrispettivi_runs_total{outcome="ok"} 1`)
}
