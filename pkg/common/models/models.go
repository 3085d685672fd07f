package models

import (
	"strconv"
	"time"
)

// Record entities
type Doctor struct {
	ID             int64  `json:"doctor_id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	Phone          string `json:"phone"`
}

func (d Doctor) EntityID() int64 { return d.ID }

type Patient struct {
	ID     int64  `json:"patient_id"`
	Name   string `json:"name"`
	Age    *int   `json:"age,omitempty"`
	Gender string `json:"gender"`
	Phone  string `json:"phone"`
}

func (p Patient) EntityID() int64 { return p.ID }

// AgeString renders the optional age for form fields.
func (p Patient) AgeString() string {
	if p.Age == nil {
		return ""
	}
	return strconv.Itoa(*p.Age)
}

type Prescription struct {
	ID          int64  `json:"prescription_id"`
	DoctorID    int64  `json:"doctor_id"`
	PatientID   int64  `json:"patient_id"`
	DoctorName  string `json:"doctor_name,omitempty"`
	PatientName string `json:"patient_name,omitempty"`
	Medicine    string `json:"medicine"`
	Dosage      string `json:"dosage"`
	Date        string `json:"date"` // YYYY-MM-DD
}

func (p Prescription) EntityID() int64 { return p.ID }

// Write inputs. Every field is overwritten on update.
type DoctorInput struct {
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	Phone          string `json:"phone"`
}

type PatientInput struct {
	Name   string `json:"name"`
	Age    *int   `json:"age,omitempty"`
	Gender string `json:"gender"`
	Phone  string `json:"phone"`
}

type PrescriptionInput struct {
	DoctorID  int64  `json:"doctor_id"`
	PatientID int64  `json:"patient_id"`
	Medicine  string `json:"medicine"`
	Dosage    string `json:"dosage"`
}

// Audit trail
type AuditLog struct {
	ID        int64                  `json:"id"`
	Entity    string                 `json:"entity"`
	EntityID  int64                  `json:"entity_id"`
	Action    string                 `json:"action"`
	Actor     string                 `json:"actor"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Event Bus models
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // doctor.created, patient.deleted, ...
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}
