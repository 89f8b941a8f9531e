package main

import (
	"github.com/spf13/cobra"
	"github.com/volatiletech/null/v8"

	"github.com/medatlas/medatlas/core/place"
)

func (cli *commandLine) addPlaceCmd() *cobra.Command {
	var np place.NewPlace
	var mcatAvg, gpaAvg, acceptanceRate float64

	cmd := &cobra.Command{
		Use:   "addplace",
		Short: "Add a school to the catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("mcat-avg") {
				np.Metrics.MCATAvg = null.Float64From(mcatAvg)
			}
			if flags.Changed("gpa-avg") {
				np.Metrics.GPAAvg = null.Float64From(gpaAvg)
			}
			if flags.Changed("acceptance-rate") {
				np.Metrics.AcceptanceRate = null.Float64From(acceptanceRate)
			}
			if err := np.Validate(cli.validate); err != nil {
				return err
			}

			p, err := cli.placeSvc.Create(cmd.Context(), np)
			if err != nil {
				return err
			}
			cli.printf("school %s added\n", p.ID)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&np.Name, "name", "", "The school's name.")
	flags.StringVar(&np.Type, "type", place.TypeMD, "One of md, do, caribbean, residency.")
	flags.StringVar(&np.City, "city", "", "")
	flags.StringVar(&np.State, "state", "", "")
	flags.StringVar(&np.Country, "country", "US", "")
	flags.StringVar(&np.Website, "website", "", "")
	flags.StringVar(&np.Description, "description", "", "")
	flags.StringSliceVar(&np.Tags, "tag", nil, "A tag; may be repeated.")
	flags.Float64Var(&mcatAvg, "mcat-avg", 0, "Average MCAT of admitted students.")
	flags.Float64Var(&gpaAvg, "gpa-avg", 0, "Average GPA of admitted students.")
	flags.Float64Var(&acceptanceRate, "acceptance-rate", 0, "Acceptance rate, in percent.")
	return cmd
}
