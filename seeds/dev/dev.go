package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Templates []templateEntry `yaml:"templates"`
	Users     []userEntry     `yaml:"users"`
	Rules     []ruleEntry     `yaml:"rules"`
}

type templateEntry struct {
	ID       string      `yaml:"id"`
	TenantID string      `yaml:"tenant_id"`
	Name     string      `yaml:"name"`
	Category string      `yaml:"category"`
	Steps    []stepEntry `yaml:"steps"`
}

type stepEntry struct {
	ID             string         `yaml:"id"`
	Name           string         `yaml:"name"`
	StepType       string         `yaml:"step_type"`
	Order          int            `yaml:"order"`
	Configuration  map[string]any `yaml:"configuration"`
	Dependencies   []string       `yaml:"dependencies"`
	IsRequired     *bool          `yaml:"is_required"`
	TimeoutMinutes *int           `yaml:"timeout_minutes"`
}

type userEntry struct {
	ID         string   `yaml:"id"`
	TenantID   string   `yaml:"tenant_id"`
	Name       string   `yaml:"name"`
	Email      string   `yaml:"email"`
	Department string   `yaml:"department"`
	Skills     []string `yaml:"skills"`
}

type ruleEntry struct {
	ID        string `yaml:"id"`
	TenantID  string `yaml:"tenant_id"`
	Name      string `yaml:"name"`
	Priority  int    `yaml:"priority"`
	Condition string `yaml:"condition"`
	Logic     struct {
		Type           string   `yaml:"type"`
		Department     string   `yaml:"department"`
		RequiredSkills []string `yaml:"required_skills"`
	} `yaml:"assignment_logic"`
}

// seedFilePath resolves templates.yaml relative to this source file so the
// seed works regardless of cwd.
func seedFilePath() string {
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(thisFile), "templates.yaml")
}

func loadSeedFile(path string) (*seedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &sf, nil
}

func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	sf, err := loadSeedFile(seedFilePath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	fmt.Println("Seeding flowline database...")

	fmt.Println("  Upserting users...")
	for _, u := range sf.Users {
		skills, _ := json.Marshal(u.Skills)
		_, err := pool.Exec(ctx,
			`INSERT INTO users (id, tenant_id, name, email, department, skills, is_active, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, true, now())
			 ON CONFLICT (id) DO UPDATE SET
			   name = EXCLUDED.name,
			   email = EXCLUDED.email,
			   department = EXCLUDED.department,
			   skills = EXCLUDED.skills`,
			u.ID, u.TenantID, u.Name, u.Email, u.Department, skills)
		if err != nil {
			fmt.Fprintf(os.Stderr, "upsert user %s: %v\n", u.ID, err)
			os.Exit(1)
		}
	}

	fmt.Println("  Upserting templates...")
	for _, t := range sf.Templates {
		fmt.Printf("    %s (%s)\n", t.ID, t.Name)
		_, err := pool.Exec(ctx,
			`INSERT INTO workflow_templates (id, tenant_id, name, category, version, is_active, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, 1, true, now(), now())
			 ON CONFLICT (id) DO UPDATE SET
			   name = EXCLUDED.name,
			   category = EXCLUDED.category,
			   updated_at = now()`,
			t.ID, t.TenantID, t.Name, t.Category)
		if err != nil {
			fmt.Fprintf(os.Stderr, "upsert template %s: %v\n", t.ID, err)
			os.Exit(1)
		}

		for _, s := range t.Steps {
			configuration, _ := json.Marshal(s.Configuration)
			dependencies, _ := json.Marshal(s.Dependencies)
			required := true
			if s.IsRequired != nil {
				required = *s.IsRequired
			}
			_, err := pool.Exec(ctx,
				`INSERT INTO workflow_steps (id, template_id, name, step_type, step_order, configuration, dependencies, is_required, timeout_minutes)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				 ON CONFLICT (id) DO UPDATE SET
				   name = EXCLUDED.name,
				   step_type = EXCLUDED.step_type,
				   step_order = EXCLUDED.step_order,
				   configuration = EXCLUDED.configuration,
				   dependencies = EXCLUDED.dependencies,
				   is_required = EXCLUDED.is_required,
				   timeout_minutes = EXCLUDED.timeout_minutes`,
				s.ID, t.ID, s.Name, s.StepType, s.Order, configuration, dependencies, required, s.TimeoutMinutes)
			if err != nil {
				fmt.Fprintf(os.Stderr, "upsert step %s: %v\n", s.ID, err)
				os.Exit(1)
			}
		}
	}

	fmt.Println("  Upserting assignment rules...")
	for _, r := range sf.Rules {
		logic, _ := json.Marshal(map[string]any{
			"type":                r.Logic.Type,
			"department":          r.Logic.Department,
			"required_skills":     r.Logic.RequiredSkills,
			"last_assigned_index": -1,
		})
		_, err := pool.Exec(ctx,
			`INSERT INTO assignment_rules (id, tenant_id, name, priority, is_active, condition, assignment_logic, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, true, $5, $6, now(), now())
			 ON CONFLICT (id) DO UPDATE SET
			   name = EXCLUDED.name,
			   priority = EXCLUDED.priority,
			   condition = EXCLUDED.condition,
			   updated_at = now()`,
			r.ID, r.TenantID, r.Name, r.Priority, r.Condition, logic)
		if err != nil {
			fmt.Fprintf(os.Stderr, "upsert rule %s: %v\n", r.ID, err)
			os.Exit(1)
		}
	}

	fmt.Println()
	fmt.Println("Seed complete!")
	fmt.Println()
	fmt.Println("  Tenant: tenant_dev_000000000000001")
	fmt.Println("  Templates: Employee onboarding (hr), Ticket escalation (support)")
	fmt.Println("  Try: POST /api/v1/templates/tpl_onboarding_dev_0000000001/instances")
}
