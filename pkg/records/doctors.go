package records

import (
	"context"
	"fmt"

	"github.com/synaptica-ai/hospital/pkg/common/models"
	"gorm.io/gorm"
)

type Doctors struct {
	db *gorm.DB
}

func NewDoctors(db *gorm.DB) *Doctors {
	return &Doctors{db: db}
}

func (r *Doctors) List(ctx context.Context, query string) ([]models.Doctor, error) {
	tx := r.db.WithContext(ctx).Order("doctor_id")
	if query != "" {
		tx = tx.Where("name LIKE ?", "%"+query+"%")
	}
	var rows []doctorModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	doctors := make([]models.Doctor, 0, len(rows))
	for _, row := range rows {
		doctors = append(doctors, row.toModel())
	}
	return doctors, nil
}

func (r *Doctors) Get(ctx context.Context, id int64) (models.Doctor, error) {
	var row doctorModel
	if err := r.db.WithContext(ctx).First(&row, "doctor_id = ?", id).Error; err != nil {
		return models.Doctor{}, translate(err)
	}
	return row.toModel(), nil
}

func (r *Doctors) Create(ctx context.Context, input models.DoctorInput) (models.Doctor, error) {
	row := doctorModel{
		Name:           input.Name,
		Specialization: input.Specialization,
		Phone:          input.Phone,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.Doctor{}, translate(err)
	}
	return row.toModel(), nil
}

func (r *Doctors) Update(ctx context.Context, id int64, input models.DoctorInput) (models.Doctor, error) {
	var row doctorModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, "doctor_id = ?", id).Error; err != nil {
			return err
		}
		row.Name = input.Name
		row.Specialization = input.Specialization
		row.Phone = input.Phone
		return tx.Model(&row).Select("name", "specialization", "phone").Updates(&row).Error
	})
	if err != nil {
		return models.Doctor{}, translate(err)
	}
	return row.toModel(), nil
}

// Delete refuses to remove a doctor that prescriptions still reference.
func (r *Doctors) Delete(ctx context.Context, id int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row doctorModel
		if err := tx.First(&row, "doctor_id = ?", id).Error; err != nil {
			return err
		}
		var refs int64
		if err := tx.Model(&prescriptionModel{}).Where("doctor_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return ErrInUse
		}
		return tx.Delete(&row).Error
	})
	return translate(err)
}

func (m doctorModel) toModel() models.Doctor {
	return models.Doctor{
		ID:             m.ID,
		Name:           m.Name,
		Specialization: m.Specialization,
		Phone:          m.Phone,
	}
}
