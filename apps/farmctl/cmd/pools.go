package cmd

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/devicefarm"
	"github.com/spf13/cobra"

	"github.com/mobiletest/farmctl/pkg/farm"
	"github.com/mobiletest/farmctl/pkg/fconf"
)

var poolsCmd = &cobra.Command{
	Use:   "pools",
	Short: "List device pools of a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig(cmd)
		if err != nil {
			return err
		}

		project := cfg.GetString(fconf.ProjectKey)
		if project == "" {
			return errors.New("a project is required (--project or config)")
		}

		ctx := cmd.Context()
		client, err := farm.NewClient(ctx, cfg.GetString(fconf.RegionKey))
		if err != nil {
			return fmt.Errorf("initializing Device Farm client: %w", err)
		}

		projectArn, err := farm.NewResolver(client).Project(ctx, farm.ParseRef(project))
		exitIfFarmError(err)

		var token *string
		for {
			out, err := client.ListDevicePools(ctx, &devicefarm.ListDevicePoolsInput{
				Arn:       aws.String(projectArn),
				NextToken: token,
			})
			if err != nil {
				return fmt.Errorf("listing device pools: %w", err)
			}
			for _, p := range out.DevicePools {
				fmt.Printf("%s\t%s\n", aws.ToString(p.Name), aws.ToString(p.Arn))
			}
			if out.NextToken == nil {
				return nil
			}
			token = out.NextToken
		}
	},
}

func init() {
	rootCmd.AddCommand(poolsCmd)
}
