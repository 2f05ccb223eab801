package farm

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/devicefarm"
	"github.com/aws/aws-sdk-go-v2/service/devicefarm/types"

	"github.com/mobiletest/farmctl/pkg/ferr"
	"github.com/mobiletest/farmctl/pkg/flog"
)

// Defaults for the upload-processing poll loop.
const (
	DefaultPollInterval    = 100 * time.Millisecond
	DefaultMaxPollAttempts = 100
)

const uploadContentType = "application/octet-stream"

// Doer issues the artifact byte transfer. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Uploader registers uploads with Device Farm, pushes the file bytes to the
// returned presigned URL, and polls until the remote side finishes
// processing the artifact. One Upload call owns its upload record from
// registration to the terminal status.
type Uploader struct {
	api API

	// HTTPClient performs the presigned PUT. Defaults to http.DefaultClient.
	HTTPClient Doer

	// PollInterval is the wait between GetUpload calls while Device Farm
	// validates an artifact. Default 100ms.
	PollInterval time.Duration

	// MaxPollAttempts bounds the poll loop so a stuck upload cannot hang
	// the launch forever. Default 100.
	MaxPollAttempts int

	log   *flog.Logger
	sleep func(time.Duration)
}

func NewUploader(api API, log *flog.Logger) *Uploader {
	return &Uploader{
		api:             api,
		HTTPClient:      http.DefaultClient,
		PollInterval:    DefaultPollInterval,
		MaxPollAttempts: DefaultMaxPollAttempts,
		log:             log,
		sleep:           time.Sleep,
	}
}

// Upload pushes a local file to Device Farm under prefix+displayName and
// blocks until the remote side reports the artifact processed. It returns
// the upload's ARN.
func (u *Uploader) Upload(ctx context.Context, projectArn, prefix, displayName string, uploadType types.UploadType, path string) (string, error) {
	name := prefix + displayName

	out, err := u.api.CreateUpload(ctx, &devicefarm.CreateUploadInput{
		ProjectArn:  aws.String(projectArn),
		Name:        aws.String(name),
		Type:        uploadType,
		ContentType: aws.String(uploadContentType),
	})
	if err != nil {
		return "", ferr.New(ferr.CodeUploadFailed, fmt.Errorf("registering upload %s: %w", name, err))
	}
	arn := aws.ToString(out.Upload.Arn)
	u.log.Debug("registered upload", "name", name, "type", string(uploadType), "arn", arn)

	if err := u.transfer(ctx, aws.ToString(out.Upload.Url), path); err != nil {
		return "", err
	}
	u.log.Debug("transferred bytes, waiting for processing", "name", name)

	return u.waitProcessed(ctx, arn, name)
}

// transfer streams the file to the presigned URL in a single blocking PUT.
func (u *Uploader) transfer(ctx context.Context, url, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return ferr.New(ferr.CodeTransferFailed, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return ferr.New(ferr.CodeTransferFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, f)
	if err != nil {
		return ferr.New(ferr.CodeTransferFailed, err)
	}
	// Presigned S3 PUTs reject chunked encoding; the length must be known.
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", uploadContentType)

	resp, err := u.HTTPClient.Do(req)
	if err != nil {
		return ferr.New(ferr.CodeTransferFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ferr.Newf(ferr.CodeTransferFailed, "uploading %s: status %s", filepath.Base(path), resp.Status)
	}
	return nil
}

// waitProcessed polls the upload until it reaches a terminal status or the
// attempt bound is exhausted. Non-terminal statuses just mean the remote
// side is still validating.
func (u *Uploader) waitProcessed(ctx context.Context, arn, name string) (string, error) {
	for attempt := 0; attempt < u.MaxPollAttempts; attempt++ {
		u.sleep(u.PollInterval)

		out, err := u.api.GetUpload(ctx, &devicefarm.GetUploadInput{Arn: aws.String(arn)})
		if err != nil {
			return "", ferr.New(ferr.CodeUploadFailed, fmt.Errorf("polling upload %s: %w", name, err))
		}

		switch out.Upload.Status {
		case types.UploadStatusSucceeded:
			return arn, nil
		case types.UploadStatusFailed:
			return "", ferr.Newf(ferr.CodeUploadFailed, "upload %s failed remotely: %s", name, uploadDiagnostic(out.Upload))
		}
	}
	return "", ferr.Newf(ferr.CodeProcessingTimeout, "upload %s still processing after %d polls", name, u.MaxPollAttempts)
}

// uploadDiagnostic extracts whatever failure detail Device Farm supplied.
func uploadDiagnostic(up *types.Upload) string {
	if m := aws.ToString(up.Metadata); m != "" {
		return m
	}
	if m := aws.ToString(up.Message); m != "" {
		return m
	}
	return "no diagnostic metadata"
}
