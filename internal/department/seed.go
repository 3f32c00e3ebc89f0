package department

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/bihar-gov/sevalink/internal/shared/types"
)

// seedDepartments is the default Bihar directory. IDs are deterministic so
// restarts upsert the same rows instead of duplicating them.
var seedDepartments = []Department{
	{
		Name:         "Bihar State Electricity Board",
		ShortName:    "BSEB",
		Email:        "complaints@bseb.bihar.gov.in",
		Phone:        "1912",
		Category:     CategoryUtilities,
		Locations:    []string{"patna", "bihar", LocationAll},
		ResponseTime: 48,
	},
	{
		Name:         "Indian Railways",
		ShortName:    "IR",
		Email:        "grievance@indianrailways.gov.in",
		Phone:        "139",
		Category:     CategoryTransportation,
		Locations:    []string{"patna", "bihar", LocationAll},
		ResponseTime: 72,
	},
	{
		Name:         "Patna Municipal Corporation",
		ShortName:    "PMC",
		Email:        "complaints@pmc.bihar.gov.in",
		Phone:        "0612-2224444",
		Category:     CategoryMunicipal,
		Locations:    []string{"patna", "bihar"},
		ResponseTime: 24,
	},
	{
		Name:         "Bihar Police",
		ShortName:    "BP",
		Email:        "complaints@biharpolice.gov.in",
		Phone:        "100",
		Category:     CategoryPolice,
		Locations:    []string{"patna", "bihar", LocationAll},
		ResponseTime: 12,
	},
	{
		Name:         "Public Health Engineering Department",
		ShortName:    "PHED",
		Email:        "complaints@phed.bihar.gov.in",
		Phone:        "0612-2215544",
		Category:     CategoryHealth,
		Locations:    []string{"patna", "bihar", LocationAll},
		ResponseTime: 36,
	},
	{
		Name:         "Bihar Education Project",
		ShortName:    "BEP",
		Email:        "complaints@bep.bihar.gov.in",
		Phone:        "0612-2232056",
		Category:     CategoryEducation,
		Locations:    []string{"patna", "bihar", LocationAll},
		ResponseTime: 48,
	},
}

// Seed upserts the default department directory. Idempotent.
func Seed(ctx context.Context, repo *Repository) error {
	for _, d := range seedDepartments {
		d.ID = types.NewDeterministicID("department", d.ShortName)
		d.IsActive = true

		if err := repo.Upsert(ctx, &d); err != nil {
			return err
		}
	}

	logrus.WithField("count", len(seedDepartments)).Info("department directory seeded")
	return nil
}
