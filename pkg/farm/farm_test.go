package farm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/devicefarm"
	"github.com/aws/aws-sdk-go-v2/service/devicefarm/types"

	"github.com/mobiletest/farmctl/pkg/flog"
)

// fakeAPI implements API in memory and counts every call so tests can
// assert which remote operations ran.
type fakeAPI struct {
	projects []types.Project
	pools    []types.DevicePool
	specs    []types.Upload

	// projectPages, when set, overrides projects with paginated responses.
	projectPages [][]types.Project

	// statuses is served by GetUpload in order; once exhausted every
	// further poll reports SUCCEEDED.
	statuses        []types.UploadStatus
	failureMetadata string

	scheduleErr error

	listProjectsCalls int
	listPoolsCalls    int
	listUploadsCalls  int
	getUploadCalls    int
	createInputs      []*devicefarm.CreateUploadInput
	scheduleInputs    []*devicefarm.ScheduleRunInput
	lastPoolsInput    *devicefarm.ListDevicePoolsInput
	lastUploadsInput  *devicefarm.ListUploadsInput
}

func (f *fakeAPI) calls() int {
	return f.listProjectsCalls + f.listPoolsCalls + f.listUploadsCalls +
		f.getUploadCalls + len(f.createInputs) + len(f.scheduleInputs)
}

func (f *fakeAPI) ListProjects(_ context.Context, params *devicefarm.ListProjectsInput, _ ...func(*devicefarm.Options)) (*devicefarm.ListProjectsOutput, error) {
	f.listProjectsCalls++
	if len(f.projectPages) > 0 {
		page := 0
		if params.NextToken != nil {
			fmt.Sscanf(*params.NextToken, "%d", &page)
		}
		out := &devicefarm.ListProjectsOutput{Projects: f.projectPages[page]}
		if page+1 < len(f.projectPages) {
			out.NextToken = aws.String(fmt.Sprintf("%d", page+1))
		}
		return out, nil
	}
	return &devicefarm.ListProjectsOutput{Projects: f.projects}, nil
}

func (f *fakeAPI) ListDevicePools(_ context.Context, params *devicefarm.ListDevicePoolsInput, _ ...func(*devicefarm.Options)) (*devicefarm.ListDevicePoolsOutput, error) {
	f.listPoolsCalls++
	f.lastPoolsInput = params
	return &devicefarm.ListDevicePoolsOutput{DevicePools: f.pools}, nil
}

func (f *fakeAPI) ListUploads(_ context.Context, params *devicefarm.ListUploadsInput, _ ...func(*devicefarm.Options)) (*devicefarm.ListUploadsOutput, error) {
	f.listUploadsCalls++
	f.lastUploadsInput = params
	return &devicefarm.ListUploadsOutput{Uploads: f.specs}, nil
}

func (f *fakeAPI) CreateUpload(_ context.Context, params *devicefarm.CreateUploadInput, _ ...func(*devicefarm.Options)) (*devicefarm.CreateUploadOutput, error) {
	f.createInputs = append(f.createInputs, params)
	n := len(f.createInputs)
	return &devicefarm.CreateUploadOutput{
		Upload: &types.Upload{
			Arn:    aws.String(fmt.Sprintf("arn:upload:%d", n)),
			Name:   params.Name,
			Type:   params.Type,
			Status: types.UploadStatusInitialized,
			Url:    aws.String(fmt.Sprintf("https://uploads.example/%d", n)),
		},
	}, nil
}

func (f *fakeAPI) GetUpload(_ context.Context, params *devicefarm.GetUploadInput, _ ...func(*devicefarm.Options)) (*devicefarm.GetUploadOutput, error) {
	idx := f.getUploadCalls
	f.getUploadCalls++
	status := types.UploadStatusSucceeded
	if idx < len(f.statuses) {
		status = f.statuses[idx]
	}
	up := &types.Upload{Arn: params.Arn, Status: status}
	if status == types.UploadStatusFailed {
		up.Metadata = aws.String(f.failureMetadata)
	}
	return &devicefarm.GetUploadOutput{Upload: up}, nil
}

func (f *fakeAPI) ScheduleRun(_ context.Context, params *devicefarm.ScheduleRunInput, _ ...func(*devicefarm.Options)) (*devicefarm.ScheduleRunOutput, error) {
	f.scheduleInputs = append(f.scheduleInputs, params)
	if f.scheduleErr != nil {
		return nil, f.scheduleErr
	}
	return &devicefarm.ScheduleRunOutput{
		Run: &types.Run{
			Arn:    aws.String("arn:run:1"),
			Name:   params.Name,
			Status: types.ExecutionStatusScheduling,
		},
	}, nil
}

// fakeDoer records presigned PUTs and answers with a canned status.
type fakeDoer struct {
	status  int
	err     error
	urls    []string
	lengths []int64
}

func (d *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	d.urls = append(d.urls, req.URL.String())
	d.lengths = append(d.lengths, req.ContentLength)
	if d.err != nil {
		return nil, d.err
	}
	status := d.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

func newTestUploader(api *fakeAPI, doer *fakeDoer) (*Uploader, *[]time.Duration) {
	u := NewUploader(api, flog.Discard())
	u.HTTPClient = doer
	slept := &[]time.Duration{}
	u.sleep = func(d time.Duration) { *slept = append(*slept, d) }
	return u, slept
}

func tempArtifact(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("artifact bytes"), 0644); err != nil {
		t.Fatalf("writing fixture %s: %v", name, err)
	}
	return path
}
