package farm

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/devicefarm"
	"github.com/aws/aws-sdk-go-v2/service/devicefarm/types"
	"github.com/google/uuid"

	"github.com/mobiletest/farmctl/pkg/ferr"
	"github.com/mobiletest/farmctl/pkg/flog"
)

// DefaultSettleDelay is the wait between the last upload finishing and run
// submission. Uploads that just reported SUCCEEDED can still be invisible
// to ScheduleRun for a few seconds.
const DefaultSettleDelay = 5 * time.Second

// ExecutionOverrides carries the optional execution-configuration fields of
// a run. Nil fields leave the Device Farm defaults untouched.
type ExecutionOverrides struct {
	JobTimeoutMinutes  *int32
	AccountsCleanup    *bool
	AppPackagesCleanup *bool
	VideoCapture       *bool
	SkipAppResign      *bool
}

// RunConfig is the fully parsed input for one scheduled run. Flag parsing
// builds it via ParseRef/ParseArtifact; Validate gates the pipeline.
type RunConfig struct {
	Project    Ref
	DevicePool Ref

	App         ArtifactRef
	TestPackage ArtifactRef

	// Exactly one of TestSpec (existing upload, by name or ARN) and
	// TestSpecFile (local file to upload) must be set.
	TestSpec     Ref
	TestSpecFile string

	Name       string
	NamePrefix string
	Filter     string
	Parameters map[string]string

	Execution *ExecutionOverrides
}

// Validate checks the configuration before any remote call is made.
func (c *RunConfig) Validate() error {
	switch {
	case c.Project.IsZero():
		return ferr.Newf(ferr.CodeInvalidConfig, "project is required")
	case c.DevicePool.IsZero():
		return ferr.Newf(ferr.CodeInvalidConfig, "device pool is required")
	case c.App.IsZero():
		return ferr.Newf(ferr.CodeInvalidConfig, "app package is required")
	case c.TestPackage.IsZero():
		return ferr.Newf(ferr.CodeInvalidConfig, "test package is required")
	case c.TestSpec.IsZero() && c.TestSpecFile == "":
		return ferr.Newf(ferr.CodeInvalidConfig, "a test spec or a custom test spec file is required")
	case !c.TestSpec.IsZero() && c.TestSpecFile != "":
		return ferr.Newf(ferr.CodeInvalidConfig, "test spec and custom test spec file are mutually exclusive")
	}
	return nil
}

// Launcher sequences resolution, uploads and submission for one run. The
// pipeline is strictly sequential; the first failure is terminal and
// already-created uploads are left for Device Farm to garbage-collect.
type Launcher struct {
	api      API
	resolver *Resolver
	uploader *Uploader
	log      *flog.Logger

	// SettleDelay is the wait inserted before submission. Default 5s.
	SettleDelay time.Duration

	sleep func(time.Duration)
}

func NewLauncher(api API, log *flog.Logger) *Launcher {
	return &Launcher{
		api:         api,
		resolver:    NewResolver(api),
		uploader:    NewUploader(api, log),
		log:         log,
		SettleDelay: DefaultSettleDelay,
		sleep:       time.Sleep,
	}
}

// Uploader exposes the uploader so callers can tune its poll knobs.
func (l *Launcher) Uploader() *Uploader {
	return l.uploader
}

// Launch resolves every reference, uploads local artifacts, and schedules
// the run. It returns the remote-assigned run handle.
func (l *Launcher) Launch(ctx context.Context, cfg RunConfig) (*types.Run, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	projectArn, err := l.resolver.Project(ctx, cfg.Project)
	if err != nil {
		return nil, err
	}
	l.log.Info("resolved project", "arn", projectArn)

	poolArn, err := l.resolver.DevicePool(ctx, projectArn, cfg.DevicePool)
	if err != nil {
		return nil, err
	}
	l.log.Info("resolved device pool", "arn", poolArn)

	specArn, err := l.testSpecArn(ctx, projectArn, cfg)
	if err != nil {
		return nil, err
	}
	l.log.Info("test spec ready", "arn", specArn)

	appArn, err := l.appArn(ctx, projectArn, cfg)
	if err != nil {
		return nil, err
	}
	l.log.Info("app package ready", "arn", appArn)

	pkgArn, err := l.testPackageArn(ctx, projectArn, cfg)
	if err != nil {
		return nil, err
	}
	l.log.Info("test package ready", "arn", pkgArn)

	// Fresh uploads are not always visible to ScheduleRun right away.
	l.log.Info("waiting for uploads to settle", "delay", l.SettleDelay.String())
	l.sleep(l.SettleDelay)

	in := &devicefarm.ScheduleRunInput{
		ProjectArn:    aws.String(projectArn),
		AppArn:        aws.String(appArn),
		DevicePoolArn: aws.String(poolArn),
		Name:          aws.String(runName(cfg)),
		Test: &types.ScheduleRunTest{
			Type:           types.TestTypeAppiumNode,
			TestPackageArn: aws.String(pkgArn),
			TestSpecArn:    aws.String(specArn),
		},
	}
	if cfg.Filter != "" {
		in.Test.Filter = aws.String(cfg.Filter)
	}
	if len(cfg.Parameters) > 0 {
		in.Test.Parameters = cfg.Parameters
	}
	in.ExecutionConfiguration = executionConfiguration(cfg.Execution)

	out, err := l.api.ScheduleRun(ctx, in)
	if err != nil {
		return nil, ferr.New(ferr.CodeSubmissionFailed, err)
	}
	l.log.Info("run scheduled", "arn", aws.ToString(out.Run.Arn))
	return out.Run, nil
}

// testSpecArn uploads the custom test spec file, or resolves the reference
// against the project's existing test spec uploads.
func (l *Launcher) testSpecArn(ctx context.Context, projectArn string, cfg RunConfig) (string, error) {
	if cfg.TestSpecFile != "" {
		return l.uploader.Upload(ctx, projectArn, cfg.NamePrefix, filepath.Base(cfg.TestSpecFile), types.UploadTypeAppiumNodeTestSpec, cfg.TestSpecFile)
	}
	return l.resolver.TestSpec(ctx, projectArn, cfg.TestSpec)
}

// appArn uploads the app package unless it was given as an existing ARN.
// The ARN is trusted as-is; its upload category is not re-checked.
func (l *Launcher) appArn(ctx context.Context, projectArn string, cfg RunConfig) (string, error) {
	if cfg.App.IsARN() {
		return cfg.App.ARN(), nil
	}
	path := cfg.App.Path()
	uploadType, err := appUploadType(path)
	if err != nil {
		return "", err
	}
	return l.uploader.Upload(ctx, projectArn, cfg.NamePrefix, filepath.Base(path), uploadType, path)
}

// testPackageArn uploads the test package unless it was given as an ARN.
func (l *Launcher) testPackageArn(ctx context.Context, projectArn string, cfg RunConfig) (string, error) {
	if cfg.TestPackage.IsARN() {
		return cfg.TestPackage.ARN(), nil
	}
	path := cfg.TestPackage.Path()
	return l.uploader.Upload(ctx, projectArn, cfg.NamePrefix, filepath.Base(path), types.UploadTypeAppiumNodeTestPackage, path)
}

// appUploadType maps the app package extension to its upload category.
func appUploadType(path string) (types.UploadType, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".apk":
		return types.UploadTypeAndroidApp, nil
	case ".ipa":
		return types.UploadTypeIosApp, nil
	default:
		return "", ferr.Newf(ferr.CodeUnsupportedArtifact, "app package %s: only .apk and .ipa are supported", filepath.Base(path))
	}
}

// runName prefers the user-supplied name and otherwise derives a unique one.
func runName(cfg RunConfig) string {
	if cfg.Name != "" {
		return cfg.NamePrefix + cfg.Name
	}
	timestamp := time.Now().UTC().Format("20060102-150405")
	return fmt.Sprintf("%srun-%s-%s", cfg.NamePrefix, timestamp, uuid.New().String()[:8])
}

// executionConfiguration translates the overrides, returning nil when every
// field is unset so remote defaults stay in force.
func executionConfiguration(o *ExecutionOverrides) *types.ExecutionConfiguration {
	if o == nil || *o == (ExecutionOverrides{}) {
		return nil
	}
	return &types.ExecutionConfiguration{
		JobTimeoutMinutes:  o.JobTimeoutMinutes,
		AccountsCleanup:    o.AccountsCleanup,
		AppPackagesCleanup: o.AppPackagesCleanup,
		VideoCapture:       o.VideoCapture,
		SkipAppResign:      o.SkipAppResign,
	}
}
