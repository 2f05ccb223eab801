// Package farm implements the Device Farm run-launch pipeline: reference
// resolution, artifact upload with processing polling, and run submission.
package farm

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/devicefarm"
)

// API is the subset of the Device Farm client the pipeline consumes. The
// real *devicefarm.Client satisfies it; tests substitute a fake.
type API interface {
	ListProjects(ctx context.Context, params *devicefarm.ListProjectsInput, optFns ...func(*devicefarm.Options)) (*devicefarm.ListProjectsOutput, error)
	ListDevicePools(ctx context.Context, params *devicefarm.ListDevicePoolsInput, optFns ...func(*devicefarm.Options)) (*devicefarm.ListDevicePoolsOutput, error)
	ListUploads(ctx context.Context, params *devicefarm.ListUploadsInput, optFns ...func(*devicefarm.Options)) (*devicefarm.ListUploadsOutput, error)
	CreateUpload(ctx context.Context, params *devicefarm.CreateUploadInput, optFns ...func(*devicefarm.Options)) (*devicefarm.CreateUploadOutput, error)
	GetUpload(ctx context.Context, params *devicefarm.GetUploadInput, optFns ...func(*devicefarm.Options)) (*devicefarm.GetUploadOutput, error)
	ScheduleRun(ctx context.Context, params *devicefarm.ScheduleRunInput, optFns ...func(*devicefarm.Options)) (*devicefarm.ScheduleRunOutput, error)
}

var _ API = (*devicefarm.Client)(nil)

// NewClient builds a Device Farm client from the default AWS credential
// chain (env, shared config, instance role).
func NewClient(ctx context.Context, region string) (*devicefarm.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return devicefarm.NewFromConfig(cfg), nil
}
