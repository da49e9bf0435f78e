package cli

import (
	"github.com/spf13/cobra"
)

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a document as its entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			e, err := s.db.Load(cmd.Context(), args[0])
			if err != nil {
				return classify(err)
			}
			return writeEntity(cmd.OutOrStdout(), e)
		},
	}
}
