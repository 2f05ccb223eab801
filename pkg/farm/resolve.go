package farm

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/devicefarm"
	"github.com/aws/aws-sdk-go-v2/service/devicefarm/types"

	"github.com/mobiletest/farmctl/pkg/ferr"
)

// Resolver turns name references into ARNs by listing the remote resources
// of the matching kind and comparing names case-insensitively. ARN
// references pass through without a service call.
type Resolver struct {
	api API
}

func NewResolver(api API) *Resolver {
	return &Resolver{api: api}
}

// entry is one listed candidate.
type entry struct {
	arn  string
	name string
}

// Project resolves a project reference against all projects in the account.
func (r *Resolver) Project(ctx context.Context, ref Ref) (string, error) {
	if ref.IsARN() {
		return ref.ARN(), nil
	}
	var entries []entry
	var token *string
	for {
		out, err := r.api.ListProjects(ctx, &devicefarm.ListProjectsInput{NextToken: token})
		if err != nil {
			return "", ferr.New(ferr.CodeUnknown, err)
		}
		for _, p := range out.Projects {
			entries = append(entries, entry{arn: aws.ToString(p.Arn), name: aws.ToString(p.Name)})
		}
		if out.NextToken == nil {
			break
		}
		token = out.NextToken
	}
	return matchOne("project", ref.Name(), entries)
}

// DevicePool resolves a device pool reference within the given project.
func (r *Resolver) DevicePool(ctx context.Context, projectArn string, ref Ref) (string, error) {
	if ref.IsARN() {
		return ref.ARN(), nil
	}
	var entries []entry
	var token *string
	for {
		out, err := r.api.ListDevicePools(ctx, &devicefarm.ListDevicePoolsInput{
			Arn:       aws.String(projectArn),
			NextToken: token,
		})
		if err != nil {
			return "", ferr.New(ferr.CodeUnknown, err)
		}
		for _, p := range out.DevicePools {
			entries = append(entries, entry{arn: aws.ToString(p.Arn), name: aws.ToString(p.Name)})
		}
		if out.NextToken == nil {
			break
		}
		token = out.NextToken
	}
	return matchOne("device pool", ref.Name(), entries)
}

// TestSpec resolves a test spec reference against the project's existing
// test spec uploads.
func (r *Resolver) TestSpec(ctx context.Context, projectArn string, ref Ref) (string, error) {
	if ref.IsARN() {
		return ref.ARN(), nil
	}
	var entries []entry
	var token *string
	for {
		out, err := r.api.ListUploads(ctx, &devicefarm.ListUploadsInput{
			Arn:       aws.String(projectArn),
			Type:      types.UploadTypeAppiumNodeTestSpec,
			NextToken: token,
		})
		if err != nil {
			return "", ferr.New(ferr.CodeUnknown, err)
		}
		for _, u := range out.Uploads {
			entries = append(entries, entry{arn: aws.ToString(u.Arn), name: aws.ToString(u.Name)})
		}
		if out.NextToken == nil {
			break
		}
		token = out.NextToken
	}
	return matchOne("test spec", ref.Name(), entries)
}

// matchOne selects the single entry whose name equals name ignoring case.
// A duplicate name is an error rather than a silent pick.
func matchOne(kind, name string, entries []entry) (string, error) {
	var matches []entry
	for _, e := range entries {
		if strings.EqualFold(e.name, name) {
			matches = append(matches, e)
		}
	}
	switch len(matches) {
	case 0:
		return "", ferr.Newf(ferr.CodeNotFound, "no %s named %q", kind, name)
	case 1:
		return matches[0].arn, nil
	default:
		return "", ferr.Newf(ferr.CodeAmbiguousMatch, "%d %ss named %q, pass the ARN instead", len(matches), kind, name)
	}
}
