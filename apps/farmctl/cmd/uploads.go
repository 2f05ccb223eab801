package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/devicefarm"
	"github.com/aws/aws-sdk-go-v2/service/devicefarm/types"
	"github.com/spf13/cobra"

	"github.com/mobiletest/farmctl/pkg/farm"
	"github.com/mobiletest/farmctl/pkg/fconf"
)

var uploadsCmd = &cobra.Command{
	Use:   "uploads",
	Short: "List uploads of a project",
	Long: `List the uploads registered in a Device Farm project, optionally filtered
by upload type (for example APPIUM_NODE_TEST_SPEC to see reusable test
specs).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig(cmd)
		if err != nil {
			return err
		}

		project := cfg.GetString(fconf.ProjectKey)
		if project == "" {
			return errors.New("a project is required (--project or config)")
		}
		typeFilter, _ := cmd.Flags().GetString("type")

		ctx := cmd.Context()
		client, err := farm.NewClient(ctx, cfg.GetString(fconf.RegionKey))
		if err != nil {
			return fmt.Errorf("initializing Device Farm client: %w", err)
		}

		projectArn, err := farm.NewResolver(client).Project(ctx, farm.ParseRef(project))
		exitIfFarmError(err)

		var token *string
		for {
			in := &devicefarm.ListUploadsInput{
				Arn:       aws.String(projectArn),
				NextToken: token,
			}
			if typeFilter != "" {
				in.Type = types.UploadType(strings.ToUpper(typeFilter))
			}
			out, err := client.ListUploads(ctx, in)
			if err != nil {
				return fmt.Errorf("listing uploads: %w", err)
			}
			for _, u := range out.Uploads {
				fmt.Printf("%s\t%s\t%s\t%s\n", aws.ToString(u.Name), u.Type, u.Status, aws.ToString(u.Arn))
			}
			if out.NextToken == nil {
				return nil
			}
			token = out.NextToken
		}
	},
}

func init() {
	rootCmd.AddCommand(uploadsCmd)
	uploadsCmd.Flags().String("type", "", "filter by upload type (e.g. ANDROID_APP, APPIUM_NODE_TEST_SPEC)")
}
