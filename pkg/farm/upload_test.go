package farm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/devicefarm/types"

	"github.com/mobiletest/farmctl/pkg/ferr"
)

func TestUploader_SucceedsAfterProcessing(t *testing.T) {
	api := &fakeAPI{statuses: []types.UploadStatus{
		types.UploadStatusProcessing,
		types.UploadStatusProcessing,
		types.UploadStatusSucceeded,
	}}
	doer := &fakeDoer{}
	u, slept := newTestUploader(api, doer)

	path := tempArtifact(t, "tests.zip")
	arn, err := u.Upload(context.Background(), "arn:proj:1", "ci-", "tests.zip", types.UploadTypeAppiumNodeTestPackage, path)
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if arn != "arn:upload:1" {
		t.Errorf("expected arn:upload:1, got %s", arn)
	}

	if api.getUploadCalls != 3 {
		t.Errorf("expected exactly 3 polls, got %d", api.getUploadCalls)
	}
	if len(*slept) != 3 {
		t.Errorf("expected 3 poll sleeps, got %d", len(*slept))
	}
	for _, d := range *slept {
		if d != DefaultPollInterval {
			t.Errorf("expected poll sleep of %s, got %s", DefaultPollInterval, d)
		}
	}

	if len(doer.urls) != 1 || doer.urls[0] != "https://uploads.example/1" {
		t.Errorf("expected a single PUT to the presigned URL, got %v", doer.urls)
	}
	if doer.lengths[0] != int64(len("artifact bytes")) {
		t.Errorf("PUT must carry the file length, got %d", doer.lengths[0])
	}

	if got := aws.ToString(api.createInputs[0].Name); got != "ci-tests.zip" {
		t.Errorf("upload name should carry the prefix, got %s", got)
	}
}

func TestUploader_ProcessingTimeout(t *testing.T) {
	statuses := make([]types.UploadStatus, 101)
	for i := range statuses {
		statuses[i] = types.UploadStatusProcessing
	}
	api := &fakeAPI{statuses: statuses}
	u, _ := newTestUploader(api, &fakeDoer{})

	path := tempArtifact(t, "app.apk")
	_, err := u.Upload(context.Background(), "arn:proj:1", "", "app.apk", types.UploadTypeAndroidApp, path)
	if !ferr.IsCode(err, ferr.CodeProcessingTimeout) {
		t.Fatalf("expected processing_timeout, got %v", err)
	}
	if api.getUploadCalls != 100 {
		t.Errorf("expected exactly 100 polls before giving up, got %d", api.getUploadCalls)
	}
}

func TestUploader_RemoteFailureCarriesMetadata(t *testing.T) {
	api := &fakeAPI{
		statuses:        []types.UploadStatus{types.UploadStatusFailed},
		failureMetadata: "manifest is missing a test package",
	}
	u, _ := newTestUploader(api, &fakeDoer{})

	path := tempArtifact(t, "tests.zip")
	_, err := u.Upload(context.Background(), "arn:proj:1", "", "tests.zip", types.UploadTypeAppiumNodeTestPackage, path)
	if !ferr.IsCode(err, ferr.CodeUploadFailed) {
		t.Fatalf("expected upload_failed, got %v", err)
	}
	if !strings.Contains(err.Error(), "manifest is missing a test package") {
		t.Errorf("error should carry the remote metadata, got %v", err)
	}
	if api.getUploadCalls != 1 {
		t.Errorf("FAILED is terminal, expected 1 poll, got %d", api.getUploadCalls)
	}
}

func TestUploader_TransferRejected(t *testing.T) {
	api := &fakeAPI{}
	u, _ := newTestUploader(api, &fakeDoer{status: 403})

	path := tempArtifact(t, "app.apk")
	_, err := u.Upload(context.Background(), "arn:proj:1", "", "app.apk", types.UploadTypeAndroidApp, path)
	if !ferr.IsCode(err, ferr.CodeTransferFailed) {
		t.Fatalf("expected transfer_failed, got %v", err)
	}
	if api.getUploadCalls != 0 {
		t.Errorf("no polling should happen after a failed transfer, got %d polls", api.getUploadCalls)
	}
}

func TestUploader_TransferNetworkError(t *testing.T) {
	api := &fakeAPI{}
	u, _ := newTestUploader(api, &fakeDoer{err: errors.New("connection reset")})

	path := tempArtifact(t, "app.apk")
	_, err := u.Upload(context.Background(), "arn:proj:1", "", "app.apk", types.UploadTypeAndroidApp, path)
	if !ferr.IsCode(err, ferr.CodeTransferFailed) {
		t.Fatalf("expected transfer_failed, got %v", err)
	}
}

func TestUploader_MissingLocalFile(t *testing.T) {
	api := &fakeAPI{}
	u, _ := newTestUploader(api, &fakeDoer{})

	_, err := u.Upload(context.Background(), "arn:proj:1", "", "app.apk", types.UploadTypeAndroidApp, "/nonexistent/app.apk")
	if !ferr.IsCode(err, ferr.CodeTransferFailed) {
		t.Fatalf("expected transfer_failed for a missing file, got %v", err)
	}
}
