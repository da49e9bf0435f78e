package cli

import (
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var where []string
	cmd := &cobra.Command{
		Use:   "list <type>",
		Short: "List entities of a type",
		Long: `List prints the entities of a type in creation order. Filters are
key=value pairs compared for equality and ANDed together; a value of
null matches entities where the property is absent.

Example:
  settee list plate
  settee list plate --where food=sushi
  settee list item --where plate_id=null`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseAssignments(where)
			if err != nil {
				return err
			}
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			es, err := s.db.Find(cmd.Context(), args[0], filter)
			if err != nil {
				return classify(err)
			}
			return writeEntities(cmd.OutOrStdout(), es)
		},
	}
	cmd.Flags().StringArrayVar(&where, "where", nil, "equality filter key=value (repeatable)")
	return cmd
}
