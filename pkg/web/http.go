package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/synaptica-ai/hospital/pkg/common/logger"
	"github.com/synaptica-ai/hospital/pkg/common/models"
	"github.com/synaptica-ai/hospital/pkg/records"
)

type AuditLister interface {
	List(ctx context.Context, entity string, limit int) ([]models.AuditLog, error)
}

// Repositories are the persistence dependencies of the handlers.
type Repositories struct {
	Doctors       records.DoctorRepository
	Patients      records.PatientRepository
	Prescriptions records.PrescriptionRepository
	Audit         AuditLister
}

type Options struct {
	// LegacyGetDelete keeps GET /delete_* links working for old bookmarks.
	LegacyGetDelete bool
}

type Handler struct {
	repos Repositories
	views *Views
	opts  Options
}

func NewHandler(repos Repositories, views *Views, opts Options) *Handler {
	return &Handler{repos: repos, views: views, opts: opts}
}

type listPage struct {
	Query         string
	Doctors       []models.Doctor
	Patients      []models.Patient
	Prescriptions []models.Prescription
}

type editPage struct {
	Doctor       models.Doctor
	Patient      models.Patient
	Prescription models.Prescription
}

type auditPage struct {
	Entity  string
	Entries []models.AuditLog
}

func (h *Handler) Register(r *mux.Router) {
	deleteMethods := []string{http.MethodPost, http.MethodDelete}
	if h.opts.LegacyGetDelete {
		deleteMethods = append(deleteMethods, http.MethodGet)
	}

	r.HandleFunc("/", h.handleHome).Methods(http.MethodGet)

	r.HandleFunc("/doctors", h.handleListDoctors).Methods(http.MethodGet)
	r.HandleFunc("/add_doctor", h.handleAddDoctor).Methods(http.MethodPost)
	r.HandleFunc("/edit_doctor/{id:[0-9]+}", h.handleEditDoctorForm).Methods(http.MethodGet)
	r.HandleFunc("/edit_doctor/{id:[0-9]+}", h.handleEditDoctor).Methods(http.MethodPost)
	r.HandleFunc("/delete_doctor/{id:[0-9]+}", h.handleDeleteDoctor).Methods(deleteMethods...)

	r.HandleFunc("/patients", h.handleListPatients).Methods(http.MethodGet)
	r.HandleFunc("/add_patient", h.handleAddPatient).Methods(http.MethodPost)
	r.HandleFunc("/edit_patient/{id:[0-9]+}", h.handleEditPatientForm).Methods(http.MethodGet)
	r.HandleFunc("/edit_patient/{id:[0-9]+}", h.handleEditPatient).Methods(http.MethodPost)
	r.HandleFunc("/delete_patient/{id:[0-9]+}", h.handleDeletePatient).Methods(deleteMethods...)

	r.HandleFunc("/prescriptions", h.handleListPrescriptions).Methods(http.MethodGet)
	r.HandleFunc("/add_prescription", h.handleAddPrescription).Methods(http.MethodPost)
	r.HandleFunc("/edit_prescription/{id:[0-9]+}", h.handleEditPrescriptionForm).Methods(http.MethodGet)
	r.HandleFunc("/edit_prescription/{id:[0-9]+}", h.handleEditPrescription).Methods(http.MethodPost)
	r.HandleFunc("/delete_prescription/{id:[0-9]+}", h.handleDeletePrescription).Methods(deleteMethods...)

	r.HandleFunc("/audit", h.handleAudit).Methods(http.MethodGet)
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, "home", nil)
}

// Doctors

func (h *Handler) handleListDoctors(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	doctors, err := h.repos.Doctors.List(r.Context(), query)
	if err != nil {
		h.fail(w, err, "failed to list doctors")
		return
	}
	h.views.Render(w, "doctors", listPage{Query: query, Doctors: doctors})
}

func (h *Handler) handleAddDoctor(w http.ResponseWriter, r *http.Request) {
	form, err := parseForm(r)
	if err != nil {
		h.fail(w, err, "invalid doctor form")
		return
	}
	input, err := doctorInput(form)
	if err != nil {
		h.fail(w, err, "invalid doctor form")
		return
	}
	if _, err := h.repos.Doctors.Create(r.Context(), input); err != nil {
		h.fail(w, err, "failed to create doctor")
		return
	}
	redirect(w, r, "/doctors")
}

func (h *Handler) handleEditDoctorForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	doctor, err := h.repos.Doctors.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err, "failed to get doctor")
		return
	}
	h.views.Render(w, "edit_doctor", editPage{Doctor: doctor})
}

func (h *Handler) handleEditDoctor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	// An unknown id is a 404 even when the form is incomplete.
	if _, err := h.repos.Doctors.Get(r.Context(), id); err != nil {
		h.fail(w, err, "failed to get doctor")
		return
	}
	form, err := parseForm(r)
	if err != nil {
		h.fail(w, err, "invalid doctor form")
		return
	}
	input, err := doctorInput(form)
	if err != nil {
		h.fail(w, err, "invalid doctor form")
		return
	}
	if _, err := h.repos.Doctors.Update(r.Context(), id, input); err != nil {
		h.fail(w, err, "failed to update doctor")
		return
	}
	redirect(w, r, "/doctors")
}

func (h *Handler) handleDeleteDoctor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.repos.Doctors.Delete(r.Context(), id); err != nil {
		h.fail(w, err, "failed to delete doctor")
		return
	}
	redirect(w, r, "/doctors")
}

// Patients

func (h *Handler) handleListPatients(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	patients, err := h.repos.Patients.List(r.Context(), query)
	if err != nil {
		h.fail(w, err, "failed to list patients")
		return
	}
	h.views.Render(w, "patients", listPage{Query: query, Patients: patients})
}

func (h *Handler) handleAddPatient(w http.ResponseWriter, r *http.Request) {
	form, err := parseForm(r)
	if err != nil {
		h.fail(w, err, "invalid patient form")
		return
	}
	input, err := patientInput(form)
	if err != nil {
		h.fail(w, err, "invalid patient form")
		return
	}
	if _, err := h.repos.Patients.Create(r.Context(), input); err != nil {
		h.fail(w, err, "failed to create patient")
		return
	}
	redirect(w, r, "/patients")
}

func (h *Handler) handleEditPatientForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	patient, err := h.repos.Patients.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err, "failed to get patient")
		return
	}
	h.views.Render(w, "edit_patient", editPage{Patient: patient})
}

func (h *Handler) handleEditPatient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := h.repos.Patients.Get(r.Context(), id); err != nil {
		h.fail(w, err, "failed to get patient")
		return
	}
	form, err := parseForm(r)
	if err != nil {
		h.fail(w, err, "invalid patient form")
		return
	}
	input, err := patientInput(form)
	if err != nil {
		h.fail(w, err, "invalid patient form")
		return
	}
	if _, err := h.repos.Patients.Update(r.Context(), id, input); err != nil {
		h.fail(w, err, "failed to update patient")
		return
	}
	redirect(w, r, "/patients")
}

func (h *Handler) handleDeletePatient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.repos.Patients.Delete(r.Context(), id); err != nil {
		h.fail(w, err, "failed to delete patient")
		return
	}
	redirect(w, r, "/patients")
}

// Prescriptions

func (h *Handler) handleListPrescriptions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	prescriptions, err := h.repos.Prescriptions.List(r.Context(), query)
	if err != nil {
		h.fail(w, err, "failed to list prescriptions")
		return
	}
	h.views.Render(w, "prescriptions", listPage{Query: query, Prescriptions: prescriptions})
}

func (h *Handler) handleAddPrescription(w http.ResponseWriter, r *http.Request) {
	form, err := parseForm(r)
	if err != nil {
		h.fail(w, err, "invalid prescription form")
		return
	}
	input, err := prescriptionInput(form)
	if err != nil {
		h.fail(w, err, "invalid prescription form")
		return
	}
	if _, err := h.repos.Prescriptions.Create(r.Context(), input); err != nil {
		h.fail(w, err, "failed to create prescription")
		return
	}
	redirect(w, r, "/prescriptions")
}

func (h *Handler) handleEditPrescriptionForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	prescription, err := h.repos.Prescriptions.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err, "failed to get prescription")
		return
	}
	h.views.Render(w, "edit_prescription", editPage{Prescription: prescription})
}

func (h *Handler) handleEditPrescription(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := h.repos.Prescriptions.Get(r.Context(), id); err != nil {
		h.fail(w, err, "failed to get prescription")
		return
	}
	form, err := parseForm(r)
	if err != nil {
		h.fail(w, err, "invalid prescription form")
		return
	}
	input, err := prescriptionInput(form)
	if err != nil {
		h.fail(w, err, "invalid prescription form")
		return
	}
	if _, err := h.repos.Prescriptions.Update(r.Context(), id, input); err != nil {
		h.fail(w, err, "failed to update prescription")
		return
	}
	redirect(w, r, "/prescriptions")
}

func (h *Handler) handleDeletePrescription(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.repos.Prescriptions.Delete(r.Context(), id); err != nil {
		h.fail(w, err, "failed to delete prescription")
		return
	}
	redirect(w, r, "/prescriptions")
}

// Audit

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	entity := r.URL.Query().Get("entity")
	entries, err := h.repos.Audit.List(r.Context(), entity, parseLimit(r, 100))
	if err != nil {
		h.fail(w, err, "failed to list audit logs")
		return
	}
	h.views.Render(w, "audit", auditPage{Entity: entity, Entries: entries})
}

// fail maps repository and form errors onto HTTP status codes. Only
// unexpected errors are logged.
func (h *Handler) fail(w http.ResponseWriter, err error, msg string) {
	var formErr *FormError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
	case errors.As(err, &formErr):
		http.Error(w, formErr.Error(), http.StatusBadRequest)
	case errors.Is(err, records.ErrNotFound):
		http.Error(w, "Not Found", http.StatusNotFound)
	case errors.Is(err, records.ErrInUse):
		http.Error(w, "record is still referenced by prescriptions", http.StatusConflict)
	case errors.Is(err, records.ErrConstraint):
		http.Error(w, "referenced doctor or patient does not exist", http.StatusConflict)
	default:
		logger.Log.WithError(err).Error(msg)
		http.Error(w, msg, http.StatusInternalServerError)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return 0, false
	}
	return id, true
}

func parseLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	if v, err := strconv.Atoi(raw); err == nil && v > 0 {
		return v
	}
	return fallback
}

func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}
