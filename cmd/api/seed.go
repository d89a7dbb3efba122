package main

import (
	"context"
	"fmt"
	"os"

	"dailyreport/internal/database"
	"dailyreport/internal/model"
	"dailyreport/internal/repository"
	"dailyreport/internal/service"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

var seedFile string

// SeedFile is the directory fixture loaded by the seed command.
type SeedFile struct {
	Projects []struct {
		Code       string `yaml:"code"`
		Name       string `yaml:"name"`
		Department string `yaml:"department"`
		Inactive   bool   `yaml:"inactive"`
	} `yaml:"projects"`
	Users []struct {
		EmployeeNo string `yaml:"employee_no"`
		Name       string `yaml:"name"`
		Email      string `yaml:"email"`
		Department string `yaml:"department"`
		Role       string `yaml:"role"`
		Password   string `yaml:"password"`
	} `yaml:"users"`
	// Supervisors maps a supervisor's employee number to the employee numbers reporting to them.
	Supervisors map[string][]string `yaml:"supervisors"`
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load projects, users and supervisor links from a YAML fixture",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(seedFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", seedFile, err)
		}
		var fixture SeedFile
		if err := yaml.Unmarshal(raw, &fixture); err != nil {
			return fmt.Errorf("failed to parse %s: %w", seedFile, err)
		}

		_, log, db, err := bootstrap()
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return err
		}
		return seed(cmd.Context(), db, log, &fixture)
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "configs/seed.yaml", "path to the seed fixture")
}

func seed(ctx context.Context, db *gorm.DB, log *logrus.Logger, fixture *SeedFile) error {
	projects := repository.NewProjectRepository(db)
	users := repository.NewUserRepository(db)
	directory := repository.NewDirectoryRepository(db)

	return repository.NewTransactionManager(db).RunInTx(ctx, func(txCtx context.Context) error {
		for _, p := range fixture.Projects {
			project := &model.Project{Code: p.Code, Name: p.Name, Department: p.Department, IsActive: !p.Inactive}
			if err := projects.Upsert(txCtx, project); err != nil {
				return fmt.Errorf("failed to seed project %s: %w", p.Code, err)
			}
		}

		ids := make(map[string]*model.User, len(fixture.Users))
		for _, u := range fixture.Users {
			if !service.ValidRole(u.Role) {
				return fmt.Errorf("user %s has unknown role %q", u.EmployeeNo, u.Role)
			}
			hashed, err := service.HashPassword(u.Password)
			if err != nil {
				return err
			}
			user := &model.User{
				EmployeeNo: u.EmployeeNo,
				Name:       u.Name,
				Email:      u.Email,
				Department: u.Department,
				Role:       u.Role,
				Password:   hashed,
				IsActive:   true,
			}
			if err := users.Upsert(txCtx, user); err != nil {
				return fmt.Errorf("failed to seed user %s: %w", u.EmployeeNo, err)
			}
			ids[u.EmployeeNo] = user
		}

		links := 0
		for supervisorNo, employeeNos := range fixture.Supervisors {
			supervisor, ok := ids[supervisorNo]
			if !ok {
				return fmt.Errorf("supervisor %s is not in the users list", supervisorNo)
			}
			for _, no := range employeeNos {
				employee, ok := ids[no]
				if !ok {
					return fmt.Errorf("employee %s is not in the users list", no)
				}
				if err := directory.Link(txCtx, supervisor.ID, employee.ID); err != nil {
					return fmt.Errorf("failed to link %s to %s: %w", no, supervisorNo, err)
				}
				links++
			}
		}

		log.WithFields(logrus.Fields{
			"projects": len(fixture.Projects),
			"users":    len(fixture.Users),
			"links":    links,
		}).Info("seed data loaded")
		return nil
	})
}
