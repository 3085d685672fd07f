package records

import (
	"context"

	"github.com/synaptica-ai/hospital/pkg/common/models"
)

// Entity is implemented by every stored record type.
type Entity interface {
	EntityID() int64
}

// Repository is the query/mutate contract shared by doctors, patients and
// prescriptions. Get, Update and Delete return ErrNotFound for unknown ids.
type Repository[T Entity, I any] interface {
	List(ctx context.Context, query string) ([]T, error)
	Get(ctx context.Context, id int64) (T, error)
	Create(ctx context.Context, input I) (T, error)
	Update(ctx context.Context, id int64, input I) (T, error)
	Delete(ctx context.Context, id int64) error
}

type (
	DoctorRepository       = Repository[models.Doctor, models.DoctorInput]
	PatientRepository      = Repository[models.Patient, models.PatientInput]
	PrescriptionRepository = Repository[models.Prescription, models.PrescriptionInput]
)

// Entity names used in audit entries, events and cache keys.
const (
	EntityDoctor       = "doctor"
	EntityPatient      = "patient"
	EntityPrescription = "prescription"
)

// Mutation actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)
