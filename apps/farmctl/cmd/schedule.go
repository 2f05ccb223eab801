package cmd

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/spf13/cobra"

	"github.com/mobiletest/farmctl/pkg/farm"
	"github.com/mobiletest/farmctl/pkg/fconf"
	"github.com/mobiletest/farmctl/pkg/flog"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Upload artifacts and schedule a test run",
	Long: `Schedule an Appium test run on Device Farm.

Project, device pool and test spec accept either a name or an ARN; names
are resolved by listing the remote resources. App and test package accept
an ARN of an existing upload or a local file path to upload.

Examples:
  # Schedule against named resources, uploading local artifacts
  farmctl schedule --project MyProj --device-pool Pixel-5 \
    --app build/app.apk --tests build/tests.zip --test-spec android-test.yml

  # Use a custom test spec file and a test filter
  farmctl schedule --project MyProj --device-pool Pixel-5 \
    --app build/app.ipa --tests build/tests.zip \
    --test-spec-file specs/ios.yml --filter smoke`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig(cmd)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		app, _ := flags.GetString("app")
		tests, _ := flags.GetString("tests")
		testSpec, _ := flags.GetString("test-spec")
		testSpecFile, _ := flags.GetString("test-spec-file")
		name, _ := flags.GetString("name")
		filter, _ := flags.GetString("filter")
		params, _ := flags.GetStringToString("parameter")
		verbose, _ := flags.GetBool("verbose")

		runCfg := farm.RunConfig{
			Project:      farm.ParseRef(cfg.GetString(fconf.ProjectKey)),
			DevicePool:   farm.ParseRef(cfg.GetString(fconf.DevicePoolKey)),
			App:          farm.ParseArtifact(app),
			TestPackage:  farm.ParseArtifact(tests),
			TestSpec:     farm.ParseRef(testSpec),
			TestSpecFile: testSpecFile,
			Name:         name,
			NamePrefix:   cfg.GetString(fconf.NamePrefixKey),
			Filter:       filter,
			Parameters:   params,
		}

		var overrides farm.ExecutionOverrides
		if flags.Changed("job-timeout") {
			v, _ := flags.GetInt32("job-timeout")
			overrides.JobTimeoutMinutes = &v
		}
		if flags.Changed("video-capture") {
			v, _ := flags.GetBool("video-capture")
			overrides.VideoCapture = &v
		}
		if flags.Changed("skip-app-resign") {
			v, _ := flags.GetBool("skip-app-resign")
			overrides.SkipAppResign = &v
		}
		if flags.Changed("app-packages-cleanup") {
			v, _ := flags.GetBool("app-packages-cleanup")
			overrides.AppPackagesCleanup = &v
		}
		if flags.Changed("accounts-cleanup") {
			v, _ := flags.GetBool("accounts-cleanup")
			overrides.AccountsCleanup = &v
		}
		if overrides != (farm.ExecutionOverrides{}) {
			runCfg.Execution = &overrides
		}

		log := flog.NewDefault()
		if verbose {
			log = flog.NewVerbose()
		}

		ctx := cmd.Context()
		client, err := farm.NewClient(ctx, cfg.GetString(fconf.RegionKey))
		if err != nil {
			return fmt.Errorf("initializing Device Farm client: %w", err)
		}

		launcher := farm.NewLauncher(client, log)
		if d := cfg.GetDuration(fconf.SettleDelayKey); d > 0 {
			launcher.SettleDelay = d
		}
		uploader := launcher.Uploader()
		if d := cfg.GetDuration(fconf.PollIntervalKey); d > 0 {
			uploader.PollInterval = d
		}
		if n := cfg.GetInt(fconf.PollAttemptsKey); n > 0 {
			uploader.MaxPollAttempts = n
		}

		run, err := launcher.Launch(ctx, runCfg)
		exitIfFarmError(err)

		fmt.Printf("\n✓ Run scheduled!\n")
		fmt.Printf("Name: %s\n", aws.ToString(run.Name))
		fmt.Printf("Run ARN: %s\n", aws.ToString(run.Arn))
		fmt.Printf("Status: %s\n", run.Status)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().String("device-pool", "", "device pool name or ARN (overrides config)")
	scheduleCmd.Flags().String("app", "", "app package: .apk/.ipa file or upload ARN")
	scheduleCmd.Flags().String("tests", "", "test package: zip file or upload ARN")
	scheduleCmd.Flags().String("test-spec", "", "existing test spec: upload name or ARN")
	scheduleCmd.Flags().String("test-spec-file", "", "local test spec YAML to upload instead of --test-spec")
	scheduleCmd.Flags().String("name", "", "run name (a unique one is generated when empty)")
	scheduleCmd.Flags().String("name-prefix", "", "prefix for the run name and upload names")
	scheduleCmd.Flags().String("filter", "", "test filter passed to the test run")
	scheduleCmd.Flags().StringToString("parameter", nil, "test parameter key=value (repeatable)")
	scheduleCmd.Flags().Int32("job-timeout", 0, "job timeout in minutes (remote default when omitted)")
	scheduleCmd.Flags().Bool("video-capture", true, "record video of the run")
	scheduleCmd.Flags().Bool("skip-app-resign", false, "skip re-signing the app (iOS)")
	scheduleCmd.Flags().Bool("app-packages-cleanup", false, "remove app packages from devices after the run")
	scheduleCmd.Flags().Bool("accounts-cleanup", false, "remove device accounts after the run")
	scheduleCmd.Flags().Duration("poll-interval", 0, "wait between upload status polls (overrides config)")
	scheduleCmd.Flags().Int("poll-attempts", 0, "maximum upload status polls (overrides config)")
	scheduleCmd.Flags().Duration("settle-delay", 0, "wait before run submission (overrides config)")

	scheduleCmd.MarkFlagRequired("app")
	scheduleCmd.MarkFlagRequired("tests")
}
