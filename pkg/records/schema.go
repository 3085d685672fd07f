package records

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Table and column names match the databases created by earlier releases
// so an existing hospital.db opens as is.

type doctorModel struct {
	ID             int64  `gorm:"primaryKey;autoIncrement;column:doctor_id"`
	Name           string `gorm:"column:name;size:50;not null"`
	Specialization string `gorm:"column:specialization;size:50"`
	Phone          string `gorm:"column:phone;size:20"`
}

func (doctorModel) TableName() string { return "doctor" }

type patientModel struct {
	ID     int64  `gorm:"primaryKey;autoIncrement;column:patient_id"`
	Name   string `gorm:"column:name;size:50;not null"`
	Age    *int   `gorm:"column:age"`
	Gender string `gorm:"column:gender;size:10"`
	Phone  string `gorm:"column:phone;size:20"`
}

func (patientModel) TableName() string { return "patient" }

type prescriptionModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement;column:prescription_id"`
	DoctorID  int64  `gorm:"column:doctor_id;index"`
	PatientID int64  `gorm:"column:patient_id;index"`
	Medicine  string `gorm:"column:medicine;size:50"`
	Dosage    string `gorm:"column:dosage;size:50"`
	Date      string `gorm:"column:date;size:20"`

	Doctor  *doctorModel  `gorm:"foreignKey:DoctorID;references:ID;constraint:OnDelete:RESTRICT"`
	Patient *patientModel `gorm:"foreignKey:PatientID;references:ID;constraint:OnDelete:RESTRICT"`
}

func (prescriptionModel) TableName() string { return "prescription" }

type auditLogModel struct {
	ID        int64          `gorm:"primaryKey;column:id"`
	Entity    string         `gorm:"column:entity;size:32;index"`
	EntityID  int64          `gorm:"column:entity_id"`
	Action    string         `gorm:"column:action;size:64"`
	Actor     string         `gorm:"column:actor;size:128"`
	Payload   datatypes.JSON `gorm:"column:payload"`
	CreatedAt time.Time      `gorm:"column:created_at;index"`
}

func (auditLogModel) TableName() string { return "audit_log" }

// AutoMigrate creates missing tables. Record tables that already exist are
// left untouched so databases written by earlier releases, whose foreign
// keys are unnamed, open as is. Delete restriction does not depend on the
// schema constraint; the repositories check references themselves.
func AutoMigrate(db *gorm.DB) error {
	migrator := db.Migrator()
	for _, model := range []interface{}{&doctorModel{}, &patientModel{}, &prescriptionModel{}} {
		if migrator.HasTable(model) {
			continue
		}
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("migrate %T: %w", model, err)
		}
	}
	if err := db.AutoMigrate(&auditLogModel{}); err != nil {
		return fmt.Errorf("migrate audit log: %w", err)
	}
	return nil
}
