package main

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/medatlas/medatlas/core/payment"
)

func (cli *commandLine) grantPremiumCmd() *cobra.Command {
	var np payment.NewPayment
	var amount string

	cmd := &cobra.Command{
		Use:   "grantpremium",
		Short: "Record a payment & grant premium access to its user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if np.User == "" || amount == "" {
				_ = cmd.Usage()
				return errHelp
			}
			var err error
			if np.Amount, err = decimal.NewFromString(amount); err != nil {
				return errors.Wrapf(err, "parsing amount %q", amount)
			}
			if err = np.Validate(cli.validate); err != nil {
				return err
			}

			p, err := cli.paySvc.Record(cmd.Context(), np)
			if err != nil {
				return err
			}
			cli.printf("payment %s recorded: %s %s\n", p.ID, p.Amount.StringFixed(2), p.Currency)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&np.User, "user", "", "The user's username or email.")
	flags.StringVar(&amount, "amount", "", "The amount paid, e.g. 29.99.")
	flags.StringVar(&np.Currency, "currency", payment.DefaultCurrency, "ISO 4217 currency code.")
	flags.StringVar(&np.ProviderRef, "ref", "", "The payment provider's reference.")
	return cmd
}
