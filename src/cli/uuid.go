package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/username/mgscheck/src/uuidcodec"
)

func newUUIDCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uuid",
		Short: "Encode or decode gateway account uuids.",
	}

	var symbol, managed string
	encode := &cobra.Command{
		Use:   "encode ACCOUNT_ID ACCT_TYPE INST_TYPE INST_NUMBER",
		Short: "Print the account uuid for the given fields.",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := uuidcodec.NewAccountUUID(args[0], args[1], args[2], args[3])
			if symbol != "" {
				a.Symbol = symbol
			}
			if managed != "" {
				a.ManagedAccountType = managed
			}
			token, err := a.Encode()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	encode.Flags().StringVar(&symbol, "symbol", "", "stock plan symbol")
	encode.Flags().StringVar(&managed, "managed", "", "managed account type")

	decode := &cobra.Command{
		Use:   "decode UUID",
		Short: "Print the fields of an account uuid.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := uuidcodec.ParseAccountUUID(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "accountId:          %s\n", a.AccountID)
			fmt.Fprintf(out, "acctType:           %s\n", a.AcctType)
			fmt.Fprintf(out, "instType:           %s\n", a.InstType)
			fmt.Fprintf(out, "instNumber:         %s\n", a.InstNumber)
			fmt.Fprintf(out, "symbol:             %s\n", a.Symbol)
			fmt.Fprintf(out, "managedAccountType: %s\n", a.ManagedAccountType)
			return nil
		},
	}

	cmd.AddCommand(encode, decode)
	return cmd
}
