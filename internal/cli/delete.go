package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Destroy an entity",
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
			label := e.String()
			if err := s.db.Destroy(cmd.Context(), e); err != nil {
				return classify(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", label)
			return nil
		},
	}
}
