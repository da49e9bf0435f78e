package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/settee/pkg/model"
	"github.com/mesh-intelligence/settee/pkg/types"
)

type putFlags struct {
	id   string
	sets []string
}

func newPutCmd() *cobra.Command {
	var pf putFlags
	cmd := &cobra.Command{
		Use:   "put <type>",
		Short: "Create or update an entity",
		Long: `Put sets properties on an entity and saves it. With --id an existing
entity is loaded first; when no property actually changes, nothing is
written and the entity is reported as unchanged.

Values that parse as JSON keep their type (numbers, booleans, lists);
anything else is stored as a string.

Example:
  settee put plate --set food=sushi --set 'tags=["raw"]'
  settee put plate --id 0193... --set food=burger`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPut(cmd, args[0], pf)
		},
	}
	cmd.Flags().StringVar(&pf.id, "id", "", "entity id; loads the entity when it exists")
	cmd.Flags().StringArrayVar(&pf.sets, "set", nil, "property assignment key=value (repeatable)")
	return cmd
}

func runPut(cmd *cobra.Command, docType string, pf putFlags) error {
	values, err := parseAssignments(pf.sets)
	if err != nil {
		return err
	}
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()
	ctx := cmd.Context()

	e, err := loadOrNew(cmd, s.db, docType, pf.id)
	if err != nil {
		return err
	}
	for k, v := range values {
		if err := e.Set(k, v); err != nil {
			return classify(err)
		}
	}

	changed := e.ChangedProperties()
	writes := e.IsNew() || len(changed) > 0
	if err := s.db.Save(ctx, e); err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			for _, fe := range verr.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", fe.Error())
			}
		}
		return classify(err)
	}

	if flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), struct {
			entityView
			Written bool     `json:"written"`
			Changed []string `json:"changed"`
		}{viewOf(e), writes, changed})
	}
	if !writes {
		fmt.Fprintf(cmd.OutOrStdout(), "unchanged %s\n", e)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved %s rev %s\n", e, e.Rev())
	return nil
}

// loadOrNew loads the entity with id, or builds a new one of docType that
// will be created under id.
func loadOrNew(cmd *cobra.Command, db *model.Database, docType, id string) (*model.Entity, error) {
	if id != "" {
		e, err := db.Load(cmd.Context(), id)
		switch {
		case err == nil:
			if e.Type() != docType {
				return nil, userError(fmt.Errorf("%s is a %s, not a %s", id, e.Type(), docType))
			}
			return e, nil
		case !errors.Is(err, types.ErrNotFound):
			return nil, classify(err)
		}
	}
	e, err := db.New(docType, nil)
	if err != nil {
		return nil, classify(err)
	}
	if id != "" {
		if err := e.SetID(id); err != nil {
			return nil, classify(err)
		}
	}
	return e, nil
}
