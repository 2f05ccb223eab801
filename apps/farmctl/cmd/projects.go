package cmd

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/devicefarm"
	"github.com/spf13/cobra"

	"github.com/mobiletest/farmctl/pkg/farm"
	"github.com/mobiletest/farmctl/pkg/fconf"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List Device Farm projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		client, err := farm.NewClient(ctx, cfg.GetString(fconf.RegionKey))
		if err != nil {
			return fmt.Errorf("initializing Device Farm client: %w", err)
		}

		var token *string
		for {
			out, err := client.ListProjects(ctx, &devicefarm.ListProjectsInput{NextToken: token})
			if err != nil {
				return fmt.Errorf("listing projects: %w", err)
			}
			for _, p := range out.Projects {
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
	rootCmd.AddCommand(projectsCmd)
}
