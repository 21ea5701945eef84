package cli

import (
	"github.com/spf13/cobra"

	"github.com/kroma-labs/httpfacade/httpclient"
)

// newURICmd builds the get and delete commands. Parameters go into the
// query string of every URL.
func newURICmd(
	o *options,
	use, short string,
	factory func(*httpclient.Client, string) *httpclient.URIRequest,
) *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:   use + " URL...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, urls []string) error {
			client, cfg, closeFn, err := o.newClient(cmd)
			if err != nil {
				return err
			}
			defer closeFn() //nolint:errcheck // best effort on exit

			pairs := make([][2]string, 0, len(params))
			for _, p := range params {
				name, value, err := parsePair(p)
				if err != nil {
					return err
				}
				pairs = append(pairs, [2]string{name, value})
			}

			return o.run(cmd.Context(), urls, func(url string) (doer, error) {
				r := factory(client, url)
				for _, p := range pairs {
					r.AddParameter(p[0], p[1])
				}
				return configure(r, o, cfg)
			})
		},
	}

	cmd.Flags().StringArrayVarP(&params, "query", "q", nil, "query parameter name=value (repeatable)")
	return cmd
}
