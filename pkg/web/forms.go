package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/synaptica-ai/hospital/pkg/common/models"
)

// FormError reports a missing or malformed form field. Handlers answer it
// with 400 Bad Request.
type FormError struct {
	Field  string
	Reason string
}

func (e *FormError) Error() string {
	return fmt.Sprintf("form field %q %s", e.Field, e.Reason)
}

// parseForm passes an oversized body through as *http.MaxBytesError.
func parseForm(r *http.Request) (url.Values, error) {
	if err := r.ParseForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, &FormError{Field: "body", Reason: "could not be parsed"}
	}
	return r.PostForm, nil
}

// required returns the submitted value of key. Present-but-empty values are
// accepted; only an absent key is an error.
func required(form url.Values, key string) (string, error) {
	values, ok := form[key]
	if !ok || len(values) == 0 {
		return "", &FormError{Field: key, Reason: "is required"}
	}
	return values[0], nil
}

func requiredID(form url.Values, key string) (int64, error) {
	raw, err := required(form, key)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, &FormError{Field: key, Reason: "must be an integer"}
	}
	return id, nil
}

// nullableInt requires key to be present. An empty value is NULL.
func nullableInt(form url.Values, key string) (*int, error) {
	raw, err := required(form, key)
	if err != nil {
		return nil, err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, &FormError{Field: key, Reason: "must be an integer"}
	}
	return &v, nil
}

// requiredAll returns the values of keys in order, failing on the first
// absent key.
func requiredAll(form url.Values, keys ...string) ([]string, error) {
	values := make([]string, 0, len(keys))
	for _, key := range keys {
		v, err := required(form, key)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func doctorInput(form url.Values) (models.DoctorInput, error) {
	v, err := requiredAll(form, "name", "specialization", "phone")
	if err != nil {
		return models.DoctorInput{}, err
	}
	return models.DoctorInput{Name: v[0], Specialization: v[1], Phone: v[2]}, nil
}

func patientInput(form url.Values) (models.PatientInput, error) {
	name, err := required(form, "name")
	if err != nil {
		return models.PatientInput{}, err
	}
	age, err := nullableInt(form, "age")
	if err != nil {
		return models.PatientInput{}, err
	}
	v, err := requiredAll(form, "gender", "phone")
	if err != nil {
		return models.PatientInput{}, err
	}
	return models.PatientInput{Name: name, Age: age, Gender: v[0], Phone: v[1]}, nil
}

// prescriptionInput ignores any submitted date; the repository stamps it.
func prescriptionInput(form url.Values) (models.PrescriptionInput, error) {
	doctorID, err := requiredID(form, "doctor_id")
	if err != nil {
		return models.PrescriptionInput{}, err
	}
	patientID, err := requiredID(form, "patient_id")
	if err != nil {
		return models.PrescriptionInput{}, err
	}
	v, err := requiredAll(form, "medicine", "dosage")
	if err != nil {
		return models.PrescriptionInput{}, err
	}
	return models.PrescriptionInput{
		DoctorID:  doctorID,
		PatientID: patientID,
		Medicine:  v[0],
		Dosage:    v[1],
	}, nil
}
