package main

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/msu-projects/sitio-portal/modules/registry/domain/project"
	"github.com/msu-projects/sitio-portal/modules/registry/domain/sitio"
	registrypersistence "github.com/msu-projects/sitio-portal/modules/registry/infrastructure/persistence"
	registryservices "github.com/msu-projects/sitio-portal/modules/registry/services"
	"github.com/msu-projects/sitio-portal/pkg/composables"
	"github.com/msu-projects/sitio-portal/pkg/configuration"
	"github.com/msu-projects/sitio-portal/pkg/eventbus"
)

type seedYearRecord struct {
	Population         int    `yaml:"population"`
	Households         int    `yaml:"households"`
	AverageDailyIncome string `yaml:"averageDailyIncome"`
	HasElectricity     bool   `yaml:"hasElectricity"`
	HasWaterSupply     bool   `yaml:"hasWaterSupply"`
	Notes              string `yaml:"notes"`
}

type seedProject struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Budget      string `yaml:"budget"`
	FundSource  string `yaml:"fundSource"`
	Status      string `yaml:"status"`
	StartDate   string `yaml:"startDate"`
	EndDate     string `yaml:"endDate"`
}

type seedSitio struct {
	Name         string                    `yaml:"name"`
	Barangay     string                    `yaml:"barangay"`
	Municipality string                    `yaml:"municipality"`
	Province     string                    `yaml:"province"`
	PSGCCode     string                    `yaml:"psgcCode"`
	EncodedBy    string                    `yaml:"encodedBy"`
	YearlyData   map[string]seedYearRecord `yaml:"yearlyData"`
	Projects     []seedProject             `yaml:"projects"`
}

type seedFile struct {
	Sitios []seedSitio `yaml:"sitios"`
}

func seedCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load registry fixtures from a YAML file",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runSeed(file)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "seed.yml", "path to the fixtures file")
	return cmd
}

func runSeed(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read fixtures")
	}
	var fixtures seedFile
	if err := yaml.Unmarshal(raw, &fixtures); err != nil {
		return errors.Wrap(err, "parse fixtures")
	}

	conf := configuration.Use()
	log := conf.Logger()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		return errors.Wrap(err, "create database pool")
	}
	defer pool.Close()
	ctx = composables.WithPool(ctx, pool)

	bus := eventbus.NewEventPublisher(log)
	sitios := registryservices.NewSitioService(registrypersistence.NewSitioRepository(), bus)
	projects := registryservices.NewProjectService(registrypersistence.NewProjectRepository(), bus)

	for _, entry := range fixtures.Sitios {
		yearly, err := convertYearly(entry.YearlyData)
		if err != nil {
			return errors.Wrapf(err, "sitio %q", entry.Name)
		}

		created, err := sitios.Create(ctx, registryservices.CreateSitioParams{
			Name:         entry.Name,
			Barangay:     entry.Barangay,
			Municipality: entry.Municipality,
			Province:     entry.Province,
			PSGCCode:     entry.PSGCCode,
			EncodedBy:    entry.EncodedBy,
			YearlyData:   yearly,
		})
		if err != nil {
			return errors.Wrapf(err, "create sitio %q", entry.Name)
		}

		for _, proj := range entry.Projects {
			params, err := convertProject(proj, created.ID)
			if err != nil {
				return errors.Wrapf(err, "project %q", proj.Name)
			}
			if _, err := projects.Create(ctx, params); err != nil {
				return errors.Wrapf(err, "create project %q", proj.Name)
			}
		}
		log.WithField("sitio", created.Name).Info("seeded")
	}
	return nil
}

func convertYearly(data map[string]seedYearRecord) (map[string]sitio.YearRecord, error) {
	if len(data) == 0 {
		return nil, nil
	}
	out := make(map[string]sitio.YearRecord, len(data))
	for year, rec := range data {
		income := decimal.Zero
		if rec.AverageDailyIncome != "" {
			var err error
			income, err = decimal.NewFromString(rec.AverageDailyIncome)
			if err != nil {
				return nil, errors.Wrapf(err, "year %s income", year)
			}
		}
		out[year] = sitio.YearRecord{
			Population:         rec.Population,
			Households:         rec.Households,
			AverageDailyIncome: income,
			HasElectricity:     rec.HasElectricity,
			HasWaterSupply:     rec.HasWaterSupply,
			Notes:              rec.Notes,
		}
	}
	return out, nil
}

func convertProject(proj seedProject, sitioID uuid.UUID) (registryservices.CreateProjectParams, error) {
	budget := decimal.Zero
	if proj.Budget != "" {
		var err error
		budget, err = decimal.NewFromString(proj.Budget)
		if err != nil {
			return registryservices.CreateProjectParams{}, errors.Wrap(err, "budget")
		}
	}

	parseDate := func(s string) (*time.Time, error) {
		if s == "" {
			return nil, nil
		}
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, err
		}
		return &t, nil
	}
	start, err := parseDate(proj.StartDate)
	if err != nil {
		return registryservices.CreateProjectParams{}, errors.Wrap(err, "start date")
	}
	end, err := parseDate(proj.EndDate)
	if err != nil {
		return registryservices.CreateProjectParams{}, errors.Wrap(err, "end date")
	}

	return registryservices.CreateProjectParams{
		SitioID:     sitioID,
		Name:        proj.Name,
		Description: proj.Description,
		Budget:      budget,
		FundSource:  proj.FundSource,
		Status:      project.Status(proj.Status),
		StartDate:   start,
		EndDate:     end,
	}, nil
}
