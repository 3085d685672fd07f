package records

import (
	"context"
	"fmt"
	"time"

	"github.com/synaptica-ai/hospital/pkg/common/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DateLayout is the ISO-8601 calendar date stored on prescriptions.
const DateLayout = "2006-01-02"

type Prescriptions struct {
	db  *gorm.DB
	now func() time.Time
}

func NewPrescriptions(db *gorm.DB) *Prescriptions {
	return &Prescriptions{db: db, now: time.Now}
}

// WithClock replaces the clock used to stamp issue dates.
func (r *Prescriptions) WithClock(now func() time.Time) *Prescriptions {
	r.now = now
	return r
}

// List matches query against the linked doctor's or patient's name.
// Filtered results only include prescriptions whose doctor and patient
// both exist.
func (r *Prescriptions) List(ctx context.Context, query string) ([]models.Prescription, error) {
	tx := r.db.WithContext(ctx).
		Model(&prescriptionModel{}).
		Preload("Doctor").
		Preload("Patient")
	if query != "" {
		like := "%" + query + "%"
		tx = tx.Select("prescription.*").
			Joins("JOIN doctor ON doctor.doctor_id = prescription.doctor_id").
			Joins("JOIN patient ON patient.patient_id = prescription.patient_id").
			Where("doctor.name LIKE ? OR patient.name LIKE ?", like, like)
	}
	var rows []prescriptionModel
	if err := tx.Order("prescription.prescription_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list prescriptions: %w", err)
	}
	out := make([]models.Prescription, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

func (r *Prescriptions) Get(ctx context.Context, id int64) (models.Prescription, error) {
	var row prescriptionModel
	err := r.db.WithContext(ctx).
		Preload("Doctor").
		Preload("Patient").
		First(&row, "prescription_id = ?", id).Error
	if err != nil {
		return models.Prescription{}, translate(err)
	}
	return row.toModel(), nil
}

// Create stamps the issue date from the repository clock. Doctor and
// patient ids are not checked up front; the store's foreign keys are the
// only guard.
func (r *Prescriptions) Create(ctx context.Context, input models.PrescriptionInput) (models.Prescription, error) {
	row := prescriptionModel{
		DoctorID:  input.DoctorID,
		PatientID: input.PatientID,
		Medicine:  input.Medicine,
		Dosage:    input.Dosage,
		Date:      r.now().Format(DateLayout),
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error; err != nil {
		return models.Prescription{}, translate(err)
	}
	return row.toModel(), nil
}

// Update overwrites the references and text fields; the issue date is kept.
func (r *Prescriptions) Update(ctx context.Context, id int64, input models.PrescriptionInput) (models.Prescription, error) {
	var row prescriptionModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, "prescription_id = ?", id).Error; err != nil {
			return err
		}
		row.DoctorID = input.DoctorID
		row.PatientID = input.PatientID
		row.Medicine = input.Medicine
		row.Dosage = input.Dosage
		return tx.Model(&row).
			Omit(clause.Associations).
			Select("doctor_id", "patient_id", "medicine", "dosage").
			Updates(&row).Error
	})
	if err != nil {
		return models.Prescription{}, translate(err)
	}
	return row.toModel(), nil
}

func (r *Prescriptions) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&prescriptionModel{}, "prescription_id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (m prescriptionModel) toModel() models.Prescription {
	p := models.Prescription{
		ID:        m.ID,
		DoctorID:  m.DoctorID,
		PatientID: m.PatientID,
		Medicine:  m.Medicine,
		Dosage:    m.Dosage,
		Date:      m.Date,
	}
	if m.Doctor != nil {
		p.DoctorName = m.Doctor.Name
	}
	if m.Patient != nil {
		p.PatientName = m.Patient.Name
	}
	return p
}
