package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yungbote/complaintdesk-backend/internal/pkg/logger"
	"github.com/yungbote/complaintdesk-backend/internal/types"
	"github.com/yungbote/complaintdesk-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	host := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	port := utils.GetEnv("POSTGRES_PORT", "5432", log)
	user := utils.GetEnv("POSTGRES_USER", "postgres", log)
	password := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	name := utils.GetEnv("POSTGRES_NAME", "complaintdesk", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)

	serviceLog.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return nil, fmt.Errorf("enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Hub{},
		&types.Complaint{},
		&types.Message{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	s.log.Info("Configuring foreign key relationships for postgres tables...")
	constraints := []struct {
		name string
		stmt string
	}{
		{"fk_user_token_user_id", `
			ALTER TABLE "user_token"
			ADD CONSTRAINT "fk_user_token_user_id"
			FOREIGN KEY ("user_id") REFERENCES "user"("id")
			ON DELETE CASCADE`},
		{"fk_complaint_submitter_id", `
			ALTER TABLE "complaint"
			ADD CONSTRAINT "fk_complaint_submitter_id"
			FOREIGN KEY ("submitter_id") REFERENCES "user"("id")
			ON DELETE CASCADE`},
		{"fk_message_complaint_id", `
			ALTER TABLE "message"
			ADD CONSTRAINT "fk_message_complaint_id"
			FOREIGN KEY ("complaint_id") REFERENCES "complaint"("id")
			ON DELETE CASCADE`},
		{"fk_message_sender_id", `
			ALTER TABLE "message"
			ADD CONSTRAINT "fk_message_sender_id"
			FOREIGN KEY ("sender_id") REFERENCES "user"("id")
			ON DELETE CASCADE`},
	}
	for _, c := range constraints {
		var exists bool
		s.db.Raw(`SELECT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = ?)`, c.name).Scan(&exists)
		if exists {
			continue
		}
		if err := s.db.Exec(c.stmt).Error; err != nil {
			return fmt.Errorf("add %s: %w", c.name, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
