package web

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synaptica-ai/hospital/pkg/common/config"
	"github.com/synaptica-ai/hospital/pkg/common/database"
	"github.com/synaptica-ai/hospital/pkg/observability/metrics"
	"github.com/synaptica-ai/hospital/pkg/records"
	"github.com/synaptica-ai/hospital/pkg/web/middleware"
)

// newStoreRouter serves the handlers over a real sqlite store.
func newStoreRouter(t *testing.T) (*mux.Router, *metrics.Metrics) {
	t.Helper()
	cfg := config.Default()
	cfg.DBDSN = filepath.Join(t.TempDir(), "hospital.db")

	db, err := database.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, records.AutoMigrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)

	m := metrics.New()
	store := records.NewStore(db, records.Options{
		OnMutation: m.RecordMutation,
		Now: func() time.Time {
			return time.Date(2024, time.March, 5, 9, 30, 0, 0, time.UTC)
		},
	})

	views, err := NewViews("US")
	require.NoError(t, err)
	handler := NewHandler(Repositories{
		Doctors:       store.Doctors,
		Patients:      store.Patients,
		Prescriptions: store.Prescriptions,
		Audit:         store.Audit,
	}, views, Options{})

	router := NewRouter(RouterConfig{
		Handler:        handler,
		Ready:          sqlDB,
		Metrics:        m.Handler(),
		Observer:       m,
		MaxRequestBody: cfg.MaxRequestBody,
	})
	return router, m
}

func post(router http.Handler, target string, form url.Values, actor string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if actor != "" {
		req.Header.Set(middleware.ActorHeader, actor)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func get(router http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestStoreBackedWorkflow(t *testing.T) {
	router, _ := newStoreRouter(t)

	require.Equal(t, http.StatusSeeOther, post(router, "/add_doctor",
		url.Values{"name": {"Meredith Grey"}, "specialization": {"Surgery"}, "phone": {"+1 202 555 0143"}}, "frontdesk").Code)
	require.Equal(t, http.StatusSeeOther, post(router, "/add_patient",
		url.Values{"name": {"Izzie Stevens"}, "age": {""}, "gender": {"F"}, "phone": {""}}, "").Code)
	require.Equal(t, http.StatusSeeOther, post(router, "/add_prescription",
		url.Values{"doctor_id": {"1"}, "patient_id": {"1"}, "medicine": {"Ibuprofen"}, "dosage": {"200mg"}}, "").Code)

	body := get(router, "/prescriptions").Body.String()
	assert.Contains(t, body, "Meredith Grey")
	assert.Contains(t, body, "Izzie Stevens")
	assert.Contains(t, body, "2024-03-05")

	body = get(router, "/prescriptions?query=Izzie").Body.String()
	assert.Contains(t, body, "Ibuprofen")
	body = get(router, "/prescriptions?query=Nobody").Body.String()
	assert.NotContains(t, body, "Ibuprofen")

	// Referenced records cannot be removed.
	assert.Equal(t, http.StatusConflict, post(router, "/delete_doctor/1", url.Values{}, "").Code)
	assert.Equal(t, http.StatusConflict, post(router, "/delete_patient/1", url.Values{}, "").Code)

	// Unknown doctor on a new prescription.
	assert.Equal(t, http.StatusConflict, post(router, "/add_prescription",
		url.Values{"doctor_id": {"42"}, "patient_id": {"1"}, "medicine": {"x"}, "dosage": {"x"}}, "").Code)

	assert.Equal(t, http.StatusSeeOther, post(router, "/delete_prescription/1", url.Values{}, "").Code)
	assert.Equal(t, http.StatusSeeOther, post(router, "/delete_doctor/1", url.Values{}, "").Code)
	assert.Equal(t, http.StatusNotFound, get(router, "/edit_doctor/1").Code)

	audit := get(router, "/audit?entity=doctor").Body.String()
	assert.Contains(t, audit, "doctor_created")
	assert.Contains(t, audit, "doctor_deleted")
	assert.Contains(t, audit, "frontdesk")
	assert.NotContains(t, audit, "patient_created")
}

func TestStoreBackedProbesAndMetrics(t *testing.T) {
	router, _ := newStoreRouter(t)

	assert.Equal(t, http.StatusOK, get(router, "/ready").Code)
	require.Equal(t, http.StatusSeeOther, post(router, "/add_doctor", url.Values{"name": {"x"}, "specialization": {""}, "phone": {""}}, "").Code)
	get(router, "/doctors")

	rec := get(router, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `hospital_records_mutations_total{action="created",entity="doctor"} 1`)
	assert.Contains(t, body, `route="/doctors"`)
}
