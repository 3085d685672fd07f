package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synaptica-ai/hospital/pkg/common/models"
	"github.com/synaptica-ai/hospital/pkg/records"
)

// memRepo is an in-memory Repository used to exercise the handlers.
type memRepo[T records.Entity, I any] struct {
	items   map[int64]T
	nextID  int64
	build   func(id int64, in I) T
	match   func(item T, query string) bool
	deleteE error
}

func newMemRepo[T records.Entity, I any](build func(int64, I) T, match func(T, string) bool) *memRepo[T, I] {
	return &memRepo[T, I]{items: map[int64]T{}, build: build, match: match}
}

func (m *memRepo[T, I]) List(_ context.Context, query string) ([]T, error) {
	out := []T{}
	for _, item := range m.items {
		if query == "" || m.match(item, query) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID() < out[j].EntityID() })
	return out, nil
}

func (m *memRepo[T, I]) Get(_ context.Context, id int64) (T, error) {
	item, ok := m.items[id]
	if !ok {
		var zero T
		return zero, records.ErrNotFound
	}
	return item, nil
}

func (m *memRepo[T, I]) Create(_ context.Context, in I) (T, error) {
	m.nextID++
	item := m.build(m.nextID, in)
	m.items[m.nextID] = item
	return item, nil
}

func (m *memRepo[T, I]) Update(_ context.Context, id int64, in I) (T, error) {
	if _, ok := m.items[id]; !ok {
		var zero T
		return zero, records.ErrNotFound
	}
	item := m.build(id, in)
	m.items[id] = item
	return item, nil
}

func (m *memRepo[T, I]) Delete(_ context.Context, id int64) error {
	if m.deleteE != nil {
		return m.deleteE
	}
	if _, ok := m.items[id]; !ok {
		return records.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type memAudit struct{}

func (memAudit) List(context.Context, string, int) ([]models.AuditLog, error) {
	return nil, nil
}

type observation struct {
	route  string
	method string
	code   int
}

type recordingObserver struct {
	seen []observation
}

func (o *recordingObserver) ObserveRequest(route, method string, code int, _ time.Duration) {
	o.seen = append(o.seen, observation{route, method, code})
}

type testEnv struct {
	router        *mux.Router
	handler       *Handler
	observer      *recordingObserver
	doctors       *memRepo[models.Doctor, models.DoctorInput]
	patients      *memRepo[models.Patient, models.PatientInput]
	prescriptions *memRepo[models.Prescription, models.PrescriptionInput]
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	env := &testEnv{
		doctors: newMemRepo(func(id int64, in models.DoctorInput) models.Doctor {
			return models.Doctor{ID: id, Name: in.Name, Specialization: in.Specialization, Phone: in.Phone}
		}, func(d models.Doctor, q string) bool { return strings.Contains(d.Name, q) }),
		patients: newMemRepo(func(id int64, in models.PatientInput) models.Patient {
			return models.Patient{ID: id, Name: in.Name, Age: in.Age, Gender: in.Gender, Phone: in.Phone}
		}, func(p models.Patient, q string) bool { return strings.Contains(p.Name, q) }),
		prescriptions: newMemRepo(func(id int64, in models.PrescriptionInput) models.Prescription {
			return models.Prescription{ID: id, DoctorID: in.DoctorID, PatientID: in.PatientID, Medicine: in.Medicine, Dosage: in.Dosage, Date: "2024-03-05"}
		}, func(p models.Prescription, q string) bool { return strings.Contains(p.Medicine, q) }),
	}

	views, err := NewViews("US")
	require.NoError(t, err)
	env.handler = NewHandler(Repositories{
		Doctors:       env.doctors,
		Patients:      env.patients,
		Prescriptions: env.prescriptions,
		Audit:         memAudit{},
	}, views, opts)
	env.observer = &recordingObserver{}
	env.router = NewRouter(RouterConfig{Handler: env.handler, Observer: env.observer})
	return env
}

func (e *testEnv) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestAddDoctorRedirectsAndLists(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(http.MethodPost, "/add_doctor", url.Values{"name": {"Gregory House"}, "specialization": {"Diagnostics"}, "phone": {""}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/doctors", rec.Header().Get("Location"))

	rec = env.do(http.MethodGet, "/doctors", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, strings.Count(rec.Body.String(), "Gregory House"))

	rec = env.do(http.MethodGet, "/doctors?query=House", nil)
	assert.Contains(t, rec.Body.String(), "Gregory House")

	rec = env.do(http.MethodGet, "/doctors?query=Cuddy", nil)
	assert.NotContains(t, rec.Body.String(), "Gregory House")
}

func TestAddDoctorMissingName(t *testing.T) {
	env := newTestEnv(t, Options{})
	rec := env.do(http.MethodPost, "/add_doctor", url.Values{"specialization": {""}, "phone": {"555"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, env.doctors.items)
}

func TestEditPatientFlow(t *testing.T) {
	env := newTestEnv(t, Options{})
	age := 40
	p, _ := env.patients.Create(context.Background(), models.PatientInput{Name: "Ann", Age: &age, Gender: "F", Phone: "1"})

	rec := env.do(http.MethodGet, "/edit_patient/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="Ann"`)
	assert.Contains(t, rec.Body.String(), `value="40"`)

	rec = env.do(http.MethodPost, "/edit_patient/1", url.Values{"name": {"Anna"}, "age": {"41"}, "gender": {"Female"}, "phone": {"2"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/patients", rec.Header().Get("Location"))

	got := env.patients.items[p.ID]
	assert.Equal(t, "Anna", got.Name)
	require.NotNil(t, got.Age)
	assert.Equal(t, 41, *got.Age)
	assert.Equal(t, "Female", got.Gender)
	assert.Equal(t, "2", got.Phone)

	rec = env.do(http.MethodPost, "/edit_patient/1", url.Values{"name": {"Anna"}, "age": {"old"}, "gender": {"F"}, "phone": {""}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotFoundLookups(t *testing.T) {
	env := newTestEnv(t, Options{})

	for _, target := range []string{"/edit_doctor/9", "/edit_patient/9", "/edit_prescription/9"} {
		rec := env.do(http.MethodGet, target, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}
	rec := env.do(http.MethodPost, "/edit_doctor/9", url.Values{"name": {"x"}, "specialization": {""}, "phone": {""}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(http.MethodPost, "/delete_prescription/9", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(http.MethodGet, "/edit_doctor/abc", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteVerbs(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()
	env.doctors.Create(ctx, models.DoctorInput{Name: "a"})
	env.doctors.Create(ctx, models.DoctorInput{Name: "b"})

	rec := env.do(http.MethodGet, "/delete_doctor/1", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Len(t, env.doctors.items, 2)

	rec = env.do(http.MethodPost, "/delete_doctor/1", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/doctors", rec.Header().Get("Location"))

	rec = env.do(http.MethodDelete, "/delete_doctor/2", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, env.doctors.items)

	_, err := env.doctors.Get(ctx, 1)
	assert.ErrorIs(t, err, records.ErrNotFound)
}

func TestLegacyGetDelete(t *testing.T) {
	env := newTestEnv(t, Options{LegacyGetDelete: true})
	env.patients.Create(context.Background(), models.PatientInput{Name: "a"})

	rec := env.do(http.MethodGet, "/delete_patient/1", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, env.patients.items)
}

func TestDeleteInUseConflicts(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.doctors.Create(context.Background(), models.DoctorInput{Name: "a"})
	env.doctors.deleteE = records.ErrInUse

	rec := env.do(http.MethodPost, "/delete_doctor/1", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAddPrescriptionIgnoresSubmittedDate(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(http.MethodPost, "/add_prescription", url.Values{
		"doctor_id": {"1"}, "patient_id": {"2"}, "medicine": {"Aspirin"}, "dosage": {"1/day"}, "date": {"1999-12-31"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/prescriptions", rec.Header().Get("Location"))
	assert.Equal(t, "2024-03-05", env.prescriptions.items[1].Date)

	rec = env.do(http.MethodPost, "/add_prescription", url.Values{"doctor_id": {"x"}, "patient_id": {"2"}, "medicine": {""}, "dosage": {""}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHomeHealthAndAudit(t *testing.T) {
	env := newTestEnv(t, Options{})

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/ready", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/audit?entity=doctor&limit=5", nil).Code)
}

func TestUnmatchedRequestsAreObserved(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(http.MethodGet, "/delete_doctor/1", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = env.do(http.MethodGet, "/no_such_page", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	require.Len(t, env.observer.seen, 2)
	assert.Equal(t, observation{"unmatched", http.MethodGet, http.StatusMethodNotAllowed}, env.observer.seen[0])
	assert.Equal(t, observation{"unmatched", http.MethodGet, http.StatusNotFound}, env.observer.seen[1])
}

func TestOversizedFormIsRejected(t *testing.T) {
	env := newTestEnv(t, Options{})
	router := NewRouter(RouterConfig{Handler: env.handler, MaxRequestBody: 32})

	form := url.Values{"name": {strings.Repeat("x", 64)}, "specialization": {""}, "phone": {""}}
	req := httptest.NewRequest(http.MethodPost, "/add_doctor", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, env.doctors.items)
}
