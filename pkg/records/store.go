package records

import (
	"time"

	"github.com/synaptica-ai/hospital/pkg/common/models"
	"gorm.io/gorm"
)

type Options struct {
	// Cache enables the read-through cache for doctors and patients.
	Cache    CacheClient
	CacheTTL time.Duration
	// Events receives change events. Nil disables publishing.
	Events     Publisher
	OnMutation func(entity, action string)
	// Now overrides the clock used for prescription issue dates.
	Now func() time.Time
}

// Store bundles the fully decorated repositories the web layer consumes.
type Store struct {
	Doctors       DoctorRepository
	Patients      PatientRepository
	Prescriptions PrescriptionRepository
	Audit         *AuditLogs
}

func NewStore(db *gorm.DB, opts Options) *Store {
	audit := NewAuditLogs(db)
	hooks := Hooks{Audit: audit, Events: opts.Events, OnMutation: opts.OnMutation}

	var doctors DoctorRepository = NewDoctors(db)
	var patients PatientRepository = NewPatients(db)
	prescriptionRepo := NewPrescriptions(db)
	if opts.Now != nil {
		prescriptionRepo.WithClock(opts.Now)
	}

	if opts.Cache != nil {
		doctors = NewCached(doctors, opts.Cache, EntityDoctor, opts.CacheTTL)
		patients = NewCached(patients, opts.Cache, EntityPatient, opts.CacheTTL)
	}

	return &Store{
		Doctors:       NewService(doctors, EntityDoctor, hooks),
		Patients:      NewService(patients, EntityPatient, hooks),
		Prescriptions: NewService[models.Prescription, models.PrescriptionInput](prescriptionRepo, EntityPrescription, hooks),
		Audit:         audit,
	}
}
