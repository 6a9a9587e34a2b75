package docs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/croftdb/croft/cmd/util"
	"github.com/croftdb/croft/lib/query"
	"github.com/spf13/cobra"
)

var (
	saveCmd = &cobra.Command{
		Use:   "save [type] [json]",
		Short: "Saves a record (creates it or updates it if the payload carries an id)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			typeID := args[0]
			payload := args[1]
			id, err := docStore.Save(typeID, util.GetTenantID(), []byte(payload))
			if err != nil {
				return err
			}
			fmt.Printf("saved successfully, id=%d\n", id)
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [type] [id]",
		Short: "Reads a record by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			typeID := args[0]
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("id must be a number: %w", err)
			}
			rec, found, err := docStore.Get(typeID, util.GetTenantID(), id)
			if err != nil {
				return err
			}
			if !found {
				fmt.Printf("type=%s, id=%d, found=false\n", typeID, id)
				return nil
			}
			fmt.Println(string(rec))
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [type] [id]",
		Short: "Deletes a record and all nested records it owns",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			typeID := args[0]
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("id must be a number: %w", err)
			}
			if err := docStore.Delete(typeID, util.GetTenantID(), id); err != nil {
				return err
			}
			fmt.Println("deleted successfully")
			return nil
		},
	}
	searchCmd = &cobra.Command{
		Use:   "search [type]",
		Short: "Searches records of a type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typeID := args[0]

			spec, err := buildSpec(cmd)
			if err != nil {
				return err
			}

			records, total, pages, err := docStore.Search(typeID, util.GetTenantID(), spec)
			if err != nil {
				return err
			}

			for _, rec := range records {
				fmt.Println(string(rec))
			}
			fmt.Printf("%d of %d hits (%d pages)\n", len(records), total, pages)
			return nil
		},
	}
	statsCmd = &cobra.Command{
		Use:   "stats [type]",
		Short: "Prints the index statistics of a type's namespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typeID := args[0]
			stats, err := docStore.Stats(typeID, util.GetTenantID())
			if err != nil {
				return err
			}
			fmt.Printf("docs=%d, total_index_time=%dms, avg_index_time=%.2fms\n",
				stats.DocCount, stats.TotalIndexTimeMs, stats.AvgIndexTimeMs)
			return nil
		},
	}
)

func init() {
	searchCmd.Flags().String("text", "", util.WrapString("Full text to search for across all fields"))
	searchCmd.Flags().StringArray("filter", nil, util.WrapString("Exact-match filter in the form field=value (repeatable)"))
	searchCmd.Flags().Int("limit", query.DefaultLimit, util.WrapString("Number of hits per page"))
	searchCmd.Flags().Int("page", 1, util.WrapString("Page number to fetch (1-based)"))
	searchCmd.Flags().Bool("all", false, util.WrapString("Fetch all hits instead of one page"))
	searchCmd.Flags().String("sort", "", util.WrapString("Field to sort by, prefix with '-' for descending (e.g. -amount)"))
}

// buildSpec assembles a search spec from the search command's flags
func buildSpec(cmd *cobra.Command) (query.Spec, error) {
	spec := query.Spec{}

	spec.Text, _ = cmd.Flags().GetString("text")
	spec.Limit, _ = cmd.Flags().GetInt("limit")
	spec.Page, _ = cmd.Flags().GetInt("page")
	spec.FetchAll, _ = cmd.Flags().GetBool("all")

	filters, _ := cmd.Flags().GetStringArray("filter")
	for _, f := range filters {
		parts := strings.SplitN(f, "=", 2)
		if len(parts) != 2 {
			return spec, fmt.Errorf("invalid filter format: %s (expected field=value)", f)
		}
		spec.Filters = append(spec.Filters, query.Filter{Field: parts[0], Value: parts[1]})
	}

	if sort, _ := cmd.Flags().GetString("sort"); sort != "" {
		asc := true
		if strings.HasPrefix(sort, "-") {
			asc = false
			sort = strings.TrimPrefix(sort, "-")
		}
		spec.Sort = &query.Sort{Field: sort, Type: query.SortString, Ascending: asc}
	}

	return spec, nil
}
