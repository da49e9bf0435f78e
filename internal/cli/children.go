package cli

import (
	"github.com/spf13/cobra"
)

func newChildrenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "children <owner-id> <association>",
		Short: "List the items of an owner's has-many association",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			ctx := cmd.Context()

			owner, err := s.db.Load(ctx, args[0])
			if err != nil {
				return classify(err)
			}
			c, err := owner.Collection(args[1])
			if err != nil {
				return classify(err)
			}
			items, err := c.Items(ctx)
			if err != nil {
				return classify(err)
			}
			return writeEntities(cmd.OutOrStdout(), items)
		},
	}
}
