package records

import (
	"context"
	"fmt"

	"github.com/synaptica-ai/hospital/pkg/common/models"
	"gorm.io/gorm"
)

type Patients struct {
	db *gorm.DB
}

func NewPatients(db *gorm.DB) *Patients {
	return &Patients{db: db}
}

func (r *Patients) List(ctx context.Context, query string) ([]models.Patient, error) {
	tx := r.db.WithContext(ctx).Order("patient_id")
	if query != "" {
		tx = tx.Where("name LIKE ?", "%"+query+"%")
	}
	var rows []patientModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	patients := make([]models.Patient, 0, len(rows))
	for _, row := range rows {
		patients = append(patients, row.toModel())
	}
	return patients, nil
}

func (r *Patients) Get(ctx context.Context, id int64) (models.Patient, error) {
	var row patientModel
	if err := r.db.WithContext(ctx).First(&row, "patient_id = ?", id).Error; err != nil {
		return models.Patient{}, translate(err)
	}
	return row.toModel(), nil
}

func (r *Patients) Create(ctx context.Context, input models.PatientInput) (models.Patient, error) {
	row := patientModel{
		Name:   input.Name,
		Age:    input.Age,
		Gender: input.Gender,
		Phone:  input.Phone,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.Patient{}, translate(err)
	}
	return row.toModel(), nil
}

func (r *Patients) Update(ctx context.Context, id int64, input models.PatientInput) (models.Patient, error) {
	var row patientModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, "patient_id = ?", id).Error; err != nil {
			return err
		}
		row.Name = input.Name
		row.Age = input.Age
		row.Gender = input.Gender
		row.Phone = input.Phone
		return tx.Model(&row).Select("name", "age", "gender", "phone").Updates(&row).Error
	})
	if err != nil {
		return models.Patient{}, translate(err)
	}
	return row.toModel(), nil
}

// Delete refuses to remove a patient that prescriptions still reference.
func (r *Patients) Delete(ctx context.Context, id int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row patientModel
		if err := tx.First(&row, "patient_id = ?", id).Error; err != nil {
			return err
		}
		var refs int64
		if err := tx.Model(&prescriptionModel{}).Where("patient_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return ErrInUse
		}
		return tx.Delete(&row).Error
	})
	return translate(err)
}

func (m patientModel) toModel() models.Patient {
	return models.Patient{
		ID:     m.ID,
		Name:   m.Name,
		Age:    m.Age,
		Gender: m.Gender,
		Phone:  m.Phone,
	}
}
