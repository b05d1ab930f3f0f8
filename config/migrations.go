package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"p9e.in/fieldreport/models"
)

// normalWorkTriggerSQL keeps quantity_normal_work = total - extra on every
// hauling line item write.
const normalWorkTriggerSQL = `
CREATE OR REPLACE FUNCTION hauling_items_normal_work() RETURNS trigger AS $$
BEGIN
	NEW.quantity_normal_work := NEW.quantity_total - COALESCE(NEW.quantity_extra_work, 0);
	RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS hauling_items_normal_work ON hauling_request_items;
CREATE TRIGGER hauling_items_normal_work
	BEFORE INSERT OR UPDATE ON hauling_request_items
	FOR EACH ROW EXECUTE FUNCTION hauling_items_normal_work();
`

func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "01032026_enable_pgcrypto",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec("CREATE EXTENSION IF NOT EXISTS pgcrypto").Error
			},
		},
		{
			ID: "01032026_create_core_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Organization{}, &models.User{}, &models.Employee{}, &models.Project{})
			},
		},
		{
			ID: "02032026_create_form_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&models.PreTaskPlan{}, &models.PTPTask{}, &models.PTPWorker{}, &models.PTPPhoto{},
					&models.TimeCard{}, &models.TimeCardWorker{},
					&models.ActivityLog{}, &models.ActivityPhoto{}, &models.VoiceMemo{},
					&models.EquipmentInspection{},
					&models.ExtraWorkTicket{}, &models.ExtraWorkLabor{}, &models.ExtraWorkMaterial{},
				)
			},
		},
		{
			ID: "03032026_create_hauling_tables",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&models.HaulingCompany{}, &models.HaulingRequest{}, &models.HaulingRequestItem{}); err != nil {
					return err
				}
				stmts := []string{
					"ALTER TABLE hauling_request_items ADD COLUMN IF NOT EXISTS quantity_normal_work integer NOT NULL DEFAULT 0",
					`ALTER TABLE hauling_request_items DROP CONSTRAINT IF EXISTS hauling_items_quantities`,
					`ALTER TABLE hauling_request_items ADD CONSTRAINT hauling_items_quantities
						CHECK (quantity_total > 0 AND quantity_extra_work BETWEEN 0 AND quantity_total)`,
					normalWorkTriggerSQL,
				}
				for _, s := range stmts {
					if err := tx.Exec(s).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				if err := tx.Exec("DROP TRIGGER IF EXISTS hauling_items_normal_work ON hauling_request_items").Error; err != nil {
					return err
				}
				return tx.Exec("DROP FUNCTION IF EXISTS hauling_items_normal_work()").Error
			},
		},
		{
			ID: "03032026_create_injury_tables",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(
					&models.InjuryReport{}, &models.InjuryPhoto{},
					&models.InjuredEmployeeRecord{}, &models.InjuredExternalWorker{},
					&models.InjuryBodyPart{}, &models.InjuryFirstAid{}, &models.InjuryTask{},
					&models.InjuryWitness{}, &models.InjuryEquipment{}, &models.InjuryMaterial{},
				); err != nil {
					return err
				}
				return tx.Exec(`ALTER TABLE injury_body_parts DROP CONSTRAINT IF EXISTS injury_body_parts_one_person;
					ALTER TABLE injury_body_parts ADD CONSTRAINT injury_body_parts_one_person CHECK (
						(injured_person_type = 'employee' AND injured_employee_id IS NOT NULL AND injured_external_worker_id IS NULL) OR
						(injured_person_type = 'external' AND injured_external_worker_id IS NOT NULL AND injured_employee_id IS NULL))`).Error
			},
		},
		{
			ID: "04032026_add_latest_submission_indexes",
			Migrate: func(tx *gorm.DB) error {
				stmts := []string{
					"CREATE INDEX IF NOT EXISTS idx_ptp_latest ON pre_task_plans (project_id, submitted_by_employee_id, submitted_at DESC)",
					"CREATE INDEX IF NOT EXISTS idx_time_cards_latest ON time_cards (project_id, submitted_by_employee_id, submitted_at DESC)",
				}
				for _, s := range stmts {
					if err := tx.Exec(s).Error; err != nil {
						return err
					}
				}
				return nil
			},
		},
	})
	return m.Migrate()
}
