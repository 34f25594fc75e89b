// Package seed loads bootstrap data (staff accounts, clinic services and
// settings) from a YAML file into the database.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medika/medika/internal/authz"
	"github.com/medika/medika/internal/patients"
	"github.com/medika/medika/internal/platform/db"
	"github.com/medika/medika/internal/users"
)

// File is the seed document.
type File struct {
	Users    []User            `yaml:"users"`
	Services []Service         `yaml:"services"`
	Settings map[string]string `yaml:"settings"`
}

// User is a staff account. Doctor is read only for the doctor role.
type User struct {
	Name     string  `yaml:"name"`
	Email    string  `yaml:"email"`
	Password string  `yaml:"password"`
	Role     string  `yaml:"role"`
	Doctor   *Doctor `yaml:"doctor"`
}

// Doctor carries the clinical profile of a doctor account.
type Doctor struct {
	Specialization string `yaml:"specialization"`
	LicenseNumber  string `yaml:"license_number"`
}

// Service is a billable clinic service.
type Service struct {
	Name            string `yaml:"name"`
	Description     string `yaml:"description"`
	PriceCents      int64  `yaml:"price_cents"`
	DurationMinutes int    `yaml:"duration_minutes"`
}

// Summary counts the rows written by Apply.
type Summary struct {
	Users    int
	Doctors  int
	Services int
	Settings int
}

// Parse decodes and validates a seed document.
func Parse(r io.Reader) (*File, error) {
	var f File
	if err := yaml.NewDecoder(r, yaml.DisallowUnknownField()).Decode(&f); err != nil {
		return nil, fmt.Errorf("seed: decode: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate reports every problem in the document at once.
func (f *File) Validate() error {
	var errs []error
	emails := make(map[string]bool, len(f.Users))
	for i, u := range f.Users {
		at := fmt.Sprintf("users[%d]", i)
		email := strings.ToLower(strings.TrimSpace(u.Email))
		switch {
		case email == "":
			errs = append(errs, fmt.Errorf("%s: email is required", at))
		case emails[email]:
			errs = append(errs, fmt.Errorf("%s: duplicate email %s", at, email))
		}
		emails[email] = true
		if strings.TrimSpace(u.Name) == "" {
			errs = append(errs, fmt.Errorf("%s: name is required", at))
		}
		if len(u.Password) < 8 {
			errs = append(errs, fmt.Errorf("%s: password must be at least 8 characters", at))
		}
		role, err := authz.ParseRole(u.Role)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", at, err))
		}
		if u.Doctor != nil && role != authz.RoleDoctor {
			errs = append(errs, fmt.Errorf("%s: doctor profile on %s account", at, u.Role))
		}
	}
	names := make(map[string]bool, len(f.Services))
	for i, s := range f.Services {
		at := fmt.Sprintf("services[%d]", i)
		if strings.TrimSpace(s.Name) == "" {
			errs = append(errs, fmt.Errorf("%s: name is required", at))
		} else if names[strings.ToLower(s.Name)] {
			errs = append(errs, fmt.Errorf("%s: duplicate name %s", at, s.Name))
		}
		names[strings.ToLower(s.Name)] = true
		if s.PriceCents < 0 {
			errs = append(errs, fmt.Errorf("%s: price must not be negative", at))
		}
		if s.DurationMinutes <= 0 {
			errs = append(errs, fmt.Errorf("%s: duration must be positive", at))
		}
	}
	return errors.Join(errs...)
}

// Apply upserts the document in a single transaction. Existing accounts keep
// their id; names, roles and passwords are overwritten.
func Apply(ctx context.Context, pool *pgxpool.Pool, f *File, cost int) (Summary, error) {
	hashes := make([]string, len(f.Users))
	for i, u := range f.Users {
		hash, err := users.HashPassword(u.Password, cost)
		if err != nil {
			return Summary{}, fmt.Errorf("seed: hash password for %s: %w", u.Email, err)
		}
		hashes[i] = hash
	}

	var sum Summary
	err := db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		for i, u := range f.Users {
			var id int64
			err := tx.QueryRow(ctx, `INSERT INTO users (name, email, password_hash, role, is_active)
				VALUES ($1, $2, $3, $4, TRUE)
				ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, password_hash = EXCLUDED.password_hash,
					role = EXCLUDED.role, is_active = TRUE, updated_at = NOW()
				RETURNING id`,
				patients.NormalizeName(u.Name), strings.ToLower(strings.TrimSpace(u.Email)), hashes[i], strings.ToLower(u.Role)).Scan(&id)
			if err != nil {
				return fmt.Errorf("seed: user %s: %w", u.Email, err)
			}
			sum.Users++
			if u.Doctor == nil {
				continue
			}
			_, err = tx.Exec(ctx, `INSERT INTO doctors (user_id, specialization, license_number)
				VALUES ($1, NULLIF($2, ''), NULLIF($3, ''))
				ON CONFLICT (user_id) DO UPDATE SET specialization = EXCLUDED.specialization, license_number = EXCLUDED.license_number`,
				id, u.Doctor.Specialization, u.Doctor.LicenseNumber)
			if err != nil {
				return fmt.Errorf("seed: doctor profile %s: %w", u.Email, err)
			}
			sum.Doctors++
		}

		for _, s := range f.Services {
			_, err := tx.Exec(ctx, `INSERT INTO services (name, description, price_cents, duration_minutes, is_active)
				VALUES ($1, NULLIF($2, ''), $3, $4, TRUE)
				ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description, price_cents = EXCLUDED.price_cents,
					duration_minutes = EXCLUDED.duration_minutes, updated_at = NOW()`,
				s.Name, s.Description, s.PriceCents, s.DurationMinutes)
			if err != nil {
				return fmt.Errorf("seed: service %s: %w", s.Name, err)
			}
			sum.Services++
		}

		for key, value := range f.Settings {
			_, err := tx.Exec(ctx, `INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, NOW())
				ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`, key, value)
			if err != nil {
				return fmt.Errorf("seed: setting %s: %w", key, err)
			}
			sum.Settings++
		}
		return nil
	})
	return sum, err
}
