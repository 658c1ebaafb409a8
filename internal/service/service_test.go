package service

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cw "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"
	iam "github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	lambda "github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/hashicorp/terraform-plugin-sdk/v2/diag"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/raywall/terraform-provider-hydroseg/internal/client"
	"github.com/raywall/terraform-provider-hydroseg/internal/client/mocks"
	"github.com/raywall/terraform-provider-hydroseg/internal/repository"
	dto "github.com/raywall/terraform-provider-hydroseg/pkg/types"
)

const repoURI = "123456789012.dkr.ecr.us-east-1.amazonaws.com/segment-water"

type call struct {
	args  []string
	stdin string
}

type fakeRunner struct {
	calls []call
	fail  string // subcommand that fails
}

func (f *fakeRunner) Run(ctx context.Context, stdin io.Reader, name string, args ...string) ([]byte, error) {
	c := call{args: append([]string{name}, args...)}
	if stdin != nil {
		b, _ := io.ReadAll(stdin)
		c.stdin = string(b)
	}
	f.calls = append(f.calls, c)
	if len(args) > 0 && args[0] == f.fail {
		return nil, errors.New("exit status 1")
	}
	return nil, nil
}

func apiErr(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: code}
}

func quietLogger() logrus.FieldLogger {
	l, _ := test.NewNullLogger()
	return l
}

func ecrToken() *ecr.GetAuthorizationTokenOutput {
	return &ecr.GetAuthorizationTokenOutput{
		AuthorizationData: []ecrtypes.AuthorizationData{{
			AuthorizationToken: aws.String(base64.StdEncoding.EncodeToString([]byte("AWS:pa55"))),
			ProxyEndpoint:      aws.String("https://123456789012.dkr.ecr.us-east-1.amazonaws.com"),
		}},
	}
}

func TestImageService_BuildAndPush(t *testing.T) {
	m := &mocks.MockECR{}
	m.On("GetAuthorizationToken", mock.Anything, mock.Anything).Return(ecrToken(), nil)
	runner := &fakeRunner{}

	s := &ImageService{
		ECRRepo: &repository.ECRRepository{Client: &client.AWSClient{ECR: m}},
		Runner:  runner,
		Log:     quietLogger(),
	}
	uri, err := s.BuildAndPush(context.Background(), &dto.ImageBuildConfig{
		ContextDir: "./handler",
		Dockerfile: "Dockerfile.lambda",
		Platform:   "linux/amd64",
		BuildArgs:  map[string]string{"VERSION": "1.2", "GOARCH": "amd64"},
	}, "segment-water", repoURI, "lambda-function")
	require.NoError(t, err)
	assert.Equal(t, repoURI+":lambda-function", uri)

	require.Len(t, runner.calls, 4)
	assert.Equal(t, []string{"docker", "build", "-t", "segment-water", "-f", "handler/Dockerfile.lambda",
		"--platform", "linux/amd64", "--build-arg", "GOARCH=amd64", "--build-arg", "VERSION=1.2", "./handler"}, runner.calls[0].args)
	assert.Equal(t, []string{"docker", "tag", "segment-water", repoURI + ":lambda-function"}, runner.calls[1].args)
	assert.Equal(t, []string{"docker", "login", "--username", "AWS", "--password-stdin",
		"https://123456789012.dkr.ecr.us-east-1.amazonaws.com"}, runner.calls[2].args)
	assert.Equal(t, "pa55", runner.calls[2].stdin)
	assert.NotContains(t, strings.Join(runner.calls[2].args, " "), "pa55")
	assert.Equal(t, []string{"docker", "push", repoURI + ":lambda-function"}, runner.calls[3].args)
}

func TestImageService_BuildFailureStops(t *testing.T) {
	runner := &fakeRunner{fail: "build"}
	s := &ImageService{Runner: runner, Docker: "podman", Log: quietLogger()}

	_, err := s.BuildAndPush(context.Background(), &dto.ImageBuildConfig{ContextDir: "."}, "repo", repoURI, "v1")
	assert.ErrorContains(t, err, "docker build failed")
	require.Len(t, runner.calls, 1)
	assert.Equal(t, "podman", runner.calls[0].args[0])
}

func TestImageService_BuildRequiresContext(t *testing.T) {
	s := &ImageService{Runner: &fakeRunner{}}
	assert.EqualError(t, s.Build(context.Background(), &dto.ImageBuildConfig{}, "x"), "build context is required")
}

func TestRedact(t *testing.T) {
	assert.Equal(t, []string{"login", "--password", "****", "host"}, redact([]string{"login", "--password", "secret", "host"}))
	assert.Equal(t, "b\nc", lastLines("a\nb\nc\n", 2))
}

type deployMocks struct {
	ecr    *mocks.MockECR
	iam    *mocks.MockIAM
	lambda *mocks.MockLambda
	cw     *mocks.MockCWLogs
}

func newDeploymentService(runner CommandRunner) (*LambdaDeploymentService, *deployMocks) {
	dm := &deployMocks{ecr: &mocks.MockECR{}, iam: &mocks.MockIAM{}, lambda: &mocks.MockLambda{}, cw: &mocks.MockCWLogs{}}
	c := &client.AWSClient{ECR: dm.ecr, IAM: dm.iam, Lambda: dm.lambda, CWLogs: dm.cw, AccountID: "123456789012", Region: "us-east-1"}
	ecrRepo := &repository.ECRRepository{Client: c}
	log := quietLogger()

	return &LambdaDeploymentService{
		IAMService:    &IAMService{IAMRepo: &repository.IAMRepository{Client: c}, Log: log},
		CWLogsService: &CWLogsService{CWLogsRepo: &repository.CWLogsRepository{Client: c, RetryDelay: time.Millisecond}},
		ImageService:  &ImageService{ECRRepo: ecrRepo, Runner: runner, Log: log},
		ECRRepo:       ecrRepo,
		LambdaRepo:    &repository.LambdaRepository{Client: c, Log: log, CreateRetryDelay: time.Millisecond},
		Client:        c,
		Log:           log,
	}, dm
}

func TestLambdaDeploymentService_EnsureDeployment(t *testing.T) {
	runner := &fakeRunner{}
	s, dm := newDeploymentService(runner)

	dm.ecr.On("DescribeRepositories", mock.Anything, mock.Anything).Return(nil, apiErr("RepositoryNotFoundException"))
	dm.ecr.On("CreateRepository", mock.Anything, mock.Anything).Return(&ecr.CreateRepositoryOutput{
		Repository: &ecrtypes.Repository{RepositoryUri: aws.String(repoURI)},
	}, nil)
	dm.ecr.On("GetAuthorizationToken", mock.Anything, mock.Anything).Return(ecrToken(), nil)
	dm.ecr.On("DescribeImages", mock.Anything, mock.Anything).Return(&ecr.DescribeImagesOutput{
		ImageDetails: []ecrtypes.ImageDetail{{ImageDigest: aws.String("sha256:feed")}},
	}, nil)

	dm.iam.On("GetRole", mock.Anything, mock.Anything).Return(nil, apiErr("NoSuchEntity"))
	dm.iam.On("CreateRole", mock.Anything, mock.MatchedBy(func(in *iam.CreateRoleInput) bool {
		return aws.ToString(in.RoleName) == "segment-water-execution-role"
	})).Return(&iam.CreateRoleOutput{Role: &iamtypes.Role{Arn: aws.String("arn:role")}}, nil)
	dm.iam.On("AttachRolePolicy", mock.Anything, mock.Anything).Return(&iam.AttachRolePolicyOutput{}, nil)

	dm.lambda.On("GetFunction", mock.Anything, mock.Anything).Return(nil, apiErr("ResourceNotFoundException"))
	dm.lambda.On("CreateFunction", mock.Anything, mock.MatchedBy(func(in *lambda.CreateFunctionInput) bool {
		return aws.ToString(in.Code.ImageUri) == repoURI+"@sha256:feed" &&
			aws.ToInt32(in.MemorySize) == 3008 &&
			aws.ToInt32(in.Timeout) == 900 &&
			aws.ToString(in.Role) == "arn:role"
	})).Return(&lambda.CreateFunctionOutput{FunctionArn: aws.String("arn:fn")}, nil)
	dm.lambda.On("GetFunctionConfiguration", mock.Anything, mock.Anything).Return(&lambda.GetFunctionConfigurationOutput{
		State: lambdatypes.StateActive,
	}, nil)

	dm.cw.On("CreateLogGroup", mock.Anything, mock.Anything).Return(&cw.CreateLogGroupOutput{}, nil)
	dm.cw.On("PutRetentionPolicy", mock.Anything, mock.Anything).Return(&cw.PutRetentionPolicyOutput{}, nil)

	st, err := s.EnsureDeployment(context.Background(), &dto.LambdaImageConfig{
		FunctionName: "segment-water",
		MemorySize:   3008,
		Timeout:      900,
		PolicyARNs:   []string{"arn:aws:iam::aws:policy/AmazonS3FullAccess"},
		Build:        &dto.ImageBuildConfig{ContextDir: "."},
	})
	require.NoError(t, err)

	assert.Equal(t, "segment-water-execution-role", st.RoleName)
	assert.Equal(t, "arn:role", st.RoleArn)
	assert.Equal(t, "arn:fn", aws.ToString(st.FunctionArn))
	assert.Equal(t, "segment-water", st.RepositoryName)
	assert.Equal(t, repoURI+":lambda-function", st.ImageURI)
	assert.Equal(t, "sha256:feed", st.ImageDigest)
	assert.Equal(t, "/aws/lambda/segment-water", st.LogGroup)
	assert.Len(t, runner.calls, 4)
	dm.iam.AssertNumberOfCalls(t, "AttachRolePolicy", 2)
}

func TestLambdaDeploymentService_EnsureDeploymentMissingImage(t *testing.T) {
	s, dm := newDeploymentService(&fakeRunner{})
	dm.ecr.On("DescribeRepositories", mock.Anything, mock.Anything).Return(&ecr.DescribeRepositoriesOutput{
		Repositories: []ecrtypes.Repository{{RepositoryUri: aws.String(repoURI)}},
	}, nil)
	dm.ecr.On("DescribeImages", mock.Anything, mock.Anything).Return(nil, apiErr("ImageNotFoundException"))

	_, err := s.EnsureDeployment(context.Background(), &dto.LambdaImageConfig{FunctionName: "segment-water"})
	assert.EqualError(t, err, "image "+repoURI+":lambda-function not found in registry")
	dm.lambda.AssertNotCalled(t, "CreateFunction", mock.Anything, mock.Anything)
}

func TestLambdaDeploymentService_EnsureDeploymentRequiresName(t *testing.T) {
	s, _ := newDeploymentService(&fakeRunner{})
	_, err := s.EnsureDeployment(context.Background(), &dto.LambdaImageConfig{})
	assert.EqualError(t, err, "function name is required")
}

func TestLambdaDeploymentService_CheckResourceExistence(t *testing.T) {
	s, dm := newDeploymentService(&fakeRunner{})
	dm.iam.On("GetRole", mock.Anything, mock.Anything).Return(&iam.GetRoleOutput{Role: &iamtypes.Role{}}, nil)
	dm.lambda.On("GetFunction", mock.Anything, mock.Anything).Return(&lambda.GetFunctionOutput{
		Configuration: &lambdatypes.FunctionConfiguration{},
	}, nil)
	dm.ecr.On("DescribeRepositories", mock.Anything, mock.Anything).Return(nil, apiErr("RepositoryNotFoundException"))

	exists, err := s.CheckResourceExistence(context.Background(), &dto.ResourceState{
		RoleName: "r", FunctionName: "f", RepositoryName: "repo",
	})
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLambdaDeploymentService_DeleteDeploymentJoinsErrors(t *testing.T) {
	s, dm := newDeploymentService(&fakeRunner{})
	dm.lambda.On("DeleteFunction", mock.Anything, mock.Anything).Return(nil, apiErr("ServiceException"))
	dm.iam.On("DetachRolePolicy", mock.Anything, mock.Anything).Return(&iam.DetachRolePolicyOutput{}, nil)
	dm.iam.On("DeleteRole", mock.Anything, mock.Anything).Return(&iam.DeleteRoleOutput{}, nil)
	dm.cw.On("DeleteLogGroup", mock.Anything, mock.Anything).Return(nil, apiErr("AccessDenied"))
	dm.ecr.On("DeleteRepository", mock.Anything, mock.MatchedBy(func(in *ecr.DeleteRepositoryInput) bool {
		return !in.Force
	})).Return(nil, apiErr("RepositoryNotEmptyException"))

	err := s.DeleteDeployment(context.Background(), &dto.ResourceState{
		RoleName:           "segment-water-execution-role",
		FunctionName:       "segment-water",
		RepositoryName:     "segment-water",
		LogGroup:           "/aws/lambda/segment-water",
		AttachedPolicyARNs: []string{"arn:p"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Lambda deletion failed")
	assert.Contains(t, err.Error(), "ECR repository deletion failed")
	assert.NotContains(t, err.Error(), "IAM")
	dm.iam.AssertNumberOfCalls(t, "DetachRolePolicy", 2)
}

func TestLambdaDeploymentService_DescribeDeployment(t *testing.T) {
	s, dm := newDeploymentService(&fakeRunner{})
	dm.lambda.On("GetFunction", mock.Anything, mock.Anything).Return(&lambda.GetFunctionOutput{
		Configuration: &lambdatypes.FunctionConfiguration{FunctionArn: aws.String("arn:fn")},
		Code:          &lambdatypes.FunctionCodeLocation{ImageUri: aws.String(repoURI + "@sha256:feed")},
	}, nil)
	dm.iam.On("GetRole", mock.Anything, mock.Anything).Return(&iam.GetRoleOutput{Role: &iamtypes.Role{Arn: aws.String("arn:role")}}, nil)
	dm.iam.On("ListAttachedRolePolicies", mock.Anything, mock.Anything).Return(&iam.ListAttachedRolePoliciesOutput{
		AttachedPolicies: []iamtypes.AttachedPolicy{
			{PolicyArn: aws.String(basePolicyArn)},
			{PolicyArn: aws.String("arn:aws:iam::aws:policy/AmazonS3FullAccess")},
		},
	}, nil)
	dm.ecr.On("DescribeRepositories", mock.Anything, mock.MatchedBy(func(in *ecr.DescribeRepositoriesInput) bool {
		return len(in.RepositoryNames) == 1 && in.RepositoryNames[0] == "segment-water"
	})).Return(&ecr.DescribeRepositoriesOutput{
		Repositories: []ecrtypes.Repository{{RepositoryUri: aws.String(repoURI)}},
	}, nil)

	st, err := s.DescribeDeployment(context.Background(), "segment-water")
	require.NoError(t, err)
	assert.Equal(t, "arn:fn", aws.ToString(st.FunctionArn))
	assert.Equal(t, "arn:role", st.RoleArn)
	assert.Equal(t, "segment-water-execution-role", st.RoleName)
	assert.Equal(t, "segment-water", st.RepositoryName)
	assert.Equal(t, repoURI, st.RepositoryURI)
	assert.Equal(t, repoURI+":lambda-function", st.ImageURI)
	assert.Equal(t, "sha256:feed", st.ImageDigest)
	assert.Equal(t, "/aws/lambda/segment-water", st.LogGroup)
	assert.Equal(t, []string{"arn:aws:iam::aws:policy/AmazonS3FullAccess"}, st.AttachedPolicyARNs)
}

func TestLambdaDeploymentService_DescribeDeploymentMissingFunction(t *testing.T) {
	s, dm := newDeploymentService(&fakeRunner{})
	dm.lambda.On("GetFunction", mock.Anything, mock.Anything).Return(nil, apiErr("ResourceNotFoundException"))

	_, err := s.DescribeDeployment(context.Background(), "gone")
	assert.EqualError(t, err, "function gone not found")
	dm.iam.AssertNotCalled(t, "GetRole", mock.Anything, mock.Anything)
}

func TestParseImageURI(t *testing.T) {
	repo, tag, digest := parseImageURI(repoURI + ":v1@sha256:abc")
	assert.Equal(t, "segment-water", repo)
	assert.Equal(t, "v1", tag)
	assert.Equal(t, "sha256:abc", digest)

	repo, tag, digest = parseImageURI("localhost:5000/team/model")
	assert.Equal(t, "team/model", repo)
	assert.Empty(t, tag)
	assert.Empty(t, digest)

	repo, _, _ = parseImageURI("")
	assert.Empty(t, repo)
}

func TestIAMService_EnsureRoleExistingSkipsWait(t *testing.T) {
	m := &mocks.MockIAM{}
	m.On("GetRole", mock.Anything, mock.Anything).Return(&iam.GetRoleOutput{Role: &iamtypes.Role{Arn: aws.String("arn:existing")}}, nil)
	m.On("AttachRolePolicy", mock.Anything, mock.Anything).Return(&iam.AttachRolePolicyOutput{}, nil)

	s := &IAMService{IAMRepo: &repository.IAMRepository{Client: &client.AWSClient{IAM: m}}, PropagationDelay: time.Hour}
	arn, err := s.EnsureRole(context.Background(), "fn", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "arn:existing", arn)
	m.AssertNotCalled(t, "DetachRolePolicy", mock.Anything, mock.Anything)
}

func TestIAMService_EnsureRoleDetachesRemovedPolicies(t *testing.T) {
	m := &mocks.MockIAM{}
	m.On("GetRole", mock.Anything, mock.Anything).Return(&iam.GetRoleOutput{Role: &iamtypes.Role{Arn: aws.String("arn:existing")}}, nil)
	m.On("AttachRolePolicy", mock.Anything, mock.Anything).Return(&iam.AttachRolePolicyOutput{}, nil)
	m.On("DetachRolePolicy", mock.Anything, mock.MatchedBy(func(in *iam.DetachRolePolicyInput) bool {
		return aws.ToString(in.PolicyArn) == "arn:a"
	})).Return(&iam.DetachRolePolicyOutput{}, nil).Once()

	s := &IAMService{IAMRepo: &repository.IAMRepository{Client: &client.AWSClient{IAM: m}}, Log: quietLogger()}
	_, err := s.EnsureRole(context.Background(), "fn", []string{"arn:b"}, []string{"arn:a", "arn:b", basePolicyArn})
	require.NoError(t, err)

	m.AssertNumberOfCalls(t, "DetachRolePolicy", 1)
	m.AssertExpectations(t)
}

func TestIAMService_EnsureRoleDetachFailure(t *testing.T) {
	m := &mocks.MockIAM{}
	m.On("GetRole", mock.Anything, mock.Anything).Return(&iam.GetRoleOutput{Role: &iamtypes.Role{Arn: aws.String("arn:existing")}}, nil)
	m.On("AttachRolePolicy", mock.Anything, mock.Anything).Return(&iam.AttachRolePolicyOutput{}, nil)
	m.On("DetachRolePolicy", mock.Anything, mock.Anything).Return(nil, apiErr("AccessDenied"))

	s := &IAMService{IAMRepo: &repository.IAMRepository{Client: &client.AWSClient{IAM: m}}, Log: quietLogger()}
	_, err := s.EnsureRole(context.Background(), "fn", nil, []string{"arn:a"})
	assert.ErrorContains(t, err, "failed to detach policy arn:a")
}

func TestRemovedPolicies(t *testing.T) {
	assert.Empty(t, removedPolicies(nil, []string{"arn:a"}))
	assert.Empty(t, removedPolicies([]string{basePolicyArn}, nil))
	assert.Equal(t, []string{"arn:a", "arn:c"}, removedPolicies([]string{"arn:a", "arn:b", "arn:c", "arn:a"}, []string{"arn:b"}))
}

type triggerMocks struct {
	lambda *mocks.MockLambda
	s3     *mocks.MockS3
}

func newTriggerService() (*S3TriggerService, *triggerMocks) {
	tm := &triggerMocks{lambda: &mocks.MockLambda{}, s3: &mocks.MockS3{}}
	c := &client.AWSClient{Lambda: tm.lambda, S3: tm.s3, AccountID: "123456789012"}
	return &S3TriggerService{
		LambdaRepo:       &repository.LambdaRepository{Client: c},
		NotificationRepo: &repository.S3NotificationRepository{Client: c},
		Client:           c,
		Log:              quietLogger(),
		RetryDelay:       time.Millisecond,
	}, tm
}

func TestS3TriggerService_EnsureTrigger(t *testing.T) {
	s, tm := newTriggerService()
	tm.lambda.On("GetFunction", mock.Anything, mock.Anything).Return(&lambda.GetFunctionOutput{
		Configuration: &lambdatypes.FunctionConfiguration{FunctionArn: aws.String("arn:fn")},
	}, nil)
	tm.lambda.On("AddPermission", mock.Anything, mock.MatchedBy(func(in *lambda.AddPermissionInput) bool {
		return aws.ToString(in.StatementId) == dto.TriggerID("river.frames", "segment-water", "uploads/", ".jpg") &&
			aws.ToString(in.Principal) == "s3.amazonaws.com" &&
			aws.ToString(in.SourceArn) == "arn:aws:s3:::river.frames" &&
			aws.ToString(in.SourceAccount) == "123456789012"
	})).Return(&lambda.AddPermissionOutput{}, nil)
	tm.s3.On("GetBucketNotificationConfiguration", mock.Anything, mock.Anything).Return(&s3.GetBucketNotificationConfigurationOutput{
		QueueConfigurations: []s3types.QueueConfiguration{{Id: aws.String("audit")}},
	}, nil)
	tm.s3.On("PutBucketNotificationConfiguration", mock.Anything, mock.Anything).
		Return(nil, &smithy.GenericAPIError{Code: "InvalidArgument", Message: "Unable to validate the following destination configurations"}).Once()
	tm.s3.On("PutBucketNotificationConfiguration", mock.Anything, mock.MatchedBy(func(in *s3.PutBucketNotificationConfigurationInput) bool {
		cfg := in.NotificationConfiguration
		if len(cfg.QueueConfigurations) != 1 || len(cfg.LambdaFunctionConfigurations) != 1 {
			return false
		}
		l := cfg.LambdaFunctionConfigurations[0]
		return aws.ToString(l.LambdaFunctionArn) == "arn:fn" &&
			l.Events[0] == s3types.Event("s3:ObjectCreated:*") &&
			len(l.Filter.Key.FilterRules) == 2
	})).Return(&s3.PutBucketNotificationConfigurationOutput{}, nil).Once()

	st, err := s.EnsureTrigger(context.Background(), &dto.TriggerConfig{
		Bucket:       "river.frames",
		FunctionName: "segment-water",
		FilterPrefix: "uploads/",
		FilterSuffix: ".jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, "arn:fn", st.FunctionArn)
	assert.Equal(t, dto.TriggerID("river.frames", "segment-water", "uploads/", ".jpg"), st.StatementID)
	assert.Equal(t, st.StatementID, st.NotificationID)
	assert.Equal(t, []string{"s3:ObjectCreated:*"}, st.Events)
	tm.s3.AssertNumberOfCalls(t, "PutBucketNotificationConfiguration", 2)
}

func TestS3TriggerService_EnsureTriggerOverlapIsPermanent(t *testing.T) {
	s, tm := newTriggerService()
	tm.lambda.On("GetFunction", mock.Anything, mock.Anything).Return(&lambda.GetFunctionOutput{
		Configuration: &lambdatypes.FunctionConfiguration{FunctionArn: aws.String("arn:fn")},
	}, nil)
	tm.lambda.On("AddPermission", mock.Anything, mock.Anything).Return(&lambda.AddPermissionOutput{}, nil)
	tm.s3.On("GetBucketNotificationConfiguration", mock.Anything, mock.Anything).Return(&s3.GetBucketNotificationConfigurationOutput{}, nil)
	tm.s3.On("PutBucketNotificationConfiguration", mock.Anything, mock.Anything).
		Return(nil, &smithy.GenericAPIError{Code: "InvalidArgument", Message: "Configurations overlap"})

	_, err := s.EnsureTrigger(context.Background(), &dto.TriggerConfig{Bucket: "frames", FunctionName: "fn"})
	assert.ErrorContains(t, err, "bucket notification failed")
	tm.s3.AssertNumberOfCalls(t, "PutBucketNotificationConfiguration", 1)
}

func TestS3TriggerService_EnsureTriggerMissingFunction(t *testing.T) {
	s, tm := newTriggerService()
	tm.lambda.On("GetFunction", mock.Anything, mock.Anything).Return(nil, apiErr("ResourceNotFoundException"))

	_, err := s.EnsureTrigger(context.Background(), &dto.TriggerConfig{Bucket: "frames", FunctionName: "fn"})
	assert.EqualError(t, err, "function fn not found")
	tm.lambda.AssertNotCalled(t, "AddPermission", mock.Anything, mock.Anything)
}

func TestS3TriggerService_CheckAndDelete(t *testing.T) {
	s, tm := newTriggerService()
	st := &dto.TriggerState{Bucket: "frames", FunctionName: "fn", FunctionArn: "arn:fn", StatementID: "s3-frames", NotificationID: "s3-frames"}

	tm.s3.On("HeadBucket", mock.Anything, mock.Anything).Return(&s3.HeadBucketOutput{}, nil)
	tm.s3.On("GetBucketNotificationConfiguration", mock.Anything, mock.Anything).Return(&s3.GetBucketNotificationConfigurationOutput{
		LambdaFunctionConfigurations: []s3types.LambdaFunctionConfiguration{
			{Id: aws.String("s3-frames"), LambdaFunctionArn: aws.String("arn:fn")},
			{Id: aws.String("someone-else"), LambdaFunctionArn: aws.String("arn:other")},
		},
	}, nil)
	tm.lambda.On("GetFunction", mock.Anything, mock.Anything).Return(&lambda.GetFunctionOutput{
		Configuration: &lambdatypes.FunctionConfiguration{},
	}, nil)
	tm.s3.On("PutBucketNotificationConfiguration", mock.Anything, mock.MatchedBy(func(in *s3.PutBucketNotificationConfigurationInput) bool {
		l := in.NotificationConfiguration.LambdaFunctionConfigurations
		return len(l) == 1 && aws.ToString(l[0].Id) == "someone-else"
	})).Return(&s3.PutBucketNotificationConfigurationOutput{}, nil)
	tm.lambda.On("RemovePermission", mock.Anything, mock.Anything).Return(&lambda.RemovePermissionOutput{}, nil)

	exists, err := s.CheckTrigger(context.Background(), st)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, s.DeleteTrigger(context.Background(), st))
	tm.s3.AssertExpectations(t)
	tm.lambda.AssertExpectations(t)
}

func TestS3TriggerService_DeleteWithoutBucket(t *testing.T) {
	s, tm := newTriggerService()
	tm.s3.On("HeadBucket", mock.Anything, mock.Anything).Return(nil, apiErr("NotFound"))
	tm.lambda.On("RemovePermission", mock.Anything, mock.Anything).Return(nil, apiErr("ResourceNotFoundException"))

	require.NoError(t, s.DeleteTrigger(context.Background(), &dto.TriggerState{Bucket: "gone", FunctionName: "fn", StatementID: "s3-gone"}))
	tm.s3.AssertNotCalled(t, "GetBucketNotificationConfiguration", mock.Anything, mock.Anything)
}

// memoryBucket guarda a configuração de notificação de um bucket em memória,
// como o S3 faria entre chamadas.
type memoryBucket struct {
	mocks.MockS3
	cfg s3types.NotificationConfiguration
}

func (b *memoryBucket) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, nil
}

func (b *memoryBucket) GetBucketNotificationConfiguration(ctx context.Context, in *s3.GetBucketNotificationConfigurationInput, _ ...func(*s3.Options)) (*s3.GetBucketNotificationConfigurationOutput, error) {
	return &s3.GetBucketNotificationConfigurationOutput{
		LambdaFunctionConfigurations: append([]s3types.LambdaFunctionConfiguration(nil), b.cfg.LambdaFunctionConfigurations...),
		QueueConfigurations:          b.cfg.QueueConfigurations,
	}, nil
}

func (b *memoryBucket) PutBucketNotificationConfiguration(ctx context.Context, in *s3.PutBucketNotificationConfigurationInput, _ ...func(*s3.Options)) (*s3.PutBucketNotificationConfigurationOutput, error) {
	b.cfg = *in.NotificationConfiguration
	return &s3.PutBucketNotificationConfigurationOutput{}, nil
}

func functionNamed(name string) interface{} {
	return mock.MatchedBy(func(in *lambda.GetFunctionInput) bool { return aws.ToString(in.FunctionName) == name })
}

func TestS3TriggerService_TwoTriggersOnOneBucket(t *testing.T) {
	s, tm := newTriggerService()
	bucket := &memoryBucket{}
	s.Client.S3 = bucket

	tm.lambda.On("GetFunction", mock.Anything, functionNamed("fn-a")).Return(&lambda.GetFunctionOutput{
		Configuration: &lambdatypes.FunctionConfiguration{FunctionArn: aws.String("arn:fn-a")},
	}, nil)
	tm.lambda.On("GetFunction", mock.Anything, functionNamed("fn-b")).Return(&lambda.GetFunctionOutput{
		Configuration: &lambdatypes.FunctionConfiguration{FunctionArn: aws.String("arn:fn-b")},
	}, nil)
	tm.lambda.On("AddPermission", mock.Anything, mock.Anything).Return(&lambda.AddPermissionOutput{}, nil)
	tm.lambda.On("RemovePermission", mock.Anything, mock.Anything).Return(&lambda.RemovePermissionOutput{}, nil)

	ctx := context.Background()
	a, err := s.EnsureTrigger(ctx, &dto.TriggerConfig{Bucket: "frames", FunctionName: "fn-a", FilterPrefix: "cam1/"})
	require.NoError(t, err)
	b, err := s.EnsureTrigger(ctx, &dto.TriggerConfig{Bucket: "frames", FunctionName: "fn-b", FilterPrefix: "cam2/"})
	require.NoError(t, err)

	assert.NotEqual(t, a.StatementID, b.StatementID)
	require.Len(t, bucket.cfg.LambdaFunctionConfigurations, 2)

	for _, st := range []*dto.TriggerState{a, b} {
		ok, err := s.CheckTrigger(ctx, st)
		require.NoError(t, err)
		assert.True(t, ok, st.FunctionName)
	}

	// remover A preserva B
	require.NoError(t, s.DeleteTrigger(ctx, a))
	require.Len(t, bucket.cfg.LambdaFunctionConfigurations, 1)
	assert.Equal(t, "arn:fn-b", aws.ToString(bucket.cfg.LambdaFunctionConfigurations[0].LambdaFunctionArn))

	ok, err := s.CheckTrigger(ctx, b)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.CheckTrigger(ctx, a)
	require.NoError(t, err)
	assert.False(t, ok)

	tm.lambda.AssertCalled(t, "RemovePermission", mock.Anything, mock.MatchedBy(func(in *lambda.RemovePermissionInput) bool {
		return aws.ToString(in.StatementId) == a.StatementID
	}))
}

func TestS3TriggerService_FindTrigger(t *testing.T) {
	s, tm := newTriggerService()
	tm.lambda.On("GetFunction", mock.Anything, mock.Anything).Return(&lambda.GetFunctionOutput{
		Configuration: &lambdatypes.FunctionConfiguration{FunctionArn: aws.String("arn:fn")},
	}, nil)
	tm.s3.On("GetBucketNotificationConfiguration", mock.Anything, mock.Anything).Return(&s3.GetBucketNotificationConfigurationOutput{
		LambdaFunctionConfigurations: []s3types.LambdaFunctionConfiguration{
			{Id: aws.String("other"), LambdaFunctionArn: aws.String("arn:other")},
			{
				Id:                aws.String("s3-frames-fn-1234abcd"),
				LambdaFunctionArn: aws.String("arn:fn"),
				Events:            []s3types.Event{"s3:ObjectCreated:Put"},
				Filter: &s3types.NotificationConfigurationFilter{Key: &s3types.S3KeyFilter{FilterRules: []s3types.FilterRule{
					{Name: "Prefix", Value: aws.String("cam1/")},
					{Name: "Suffix", Value: aws.String(".jpg")},
				}}},
			},
		},
	}, nil)

	st, err := s.FindTrigger(context.Background(), "frames", "fn", "")
	require.NoError(t, err)
	assert.Equal(t, "s3-frames-fn-1234abcd", st.StatementID)
	assert.Equal(t, st.StatementID, st.NotificationID)
	assert.Equal(t, []string{"s3:ObjectCreated:Put"}, st.Events)
	assert.Equal(t, "cam1/", st.FilterPrefix)
	assert.Equal(t, ".jpg", st.FilterSuffix)

	_, err = s.FindTrigger(context.Background(), "frames", "fn", "missing")
	assert.ErrorContains(t, err, "no notification on bucket frames")
}

func TestHCLStateService_HandleStateOperation(t *testing.T) {
	m := &mocks.MockS3{}
	m.On("CopyObject", mock.Anything, mock.Anything).Return(nil, errors.New("AccessDenied"))
	svc := &HCLStateService{StateRepo: &repository.StateRepository{
		Client: &client.AWSClient{S3: m, S3Bucket: "tf-state"},
		Log:    quietLogger(),
	}}

	diags := svc.HandleStateOperation(context.Background(), false)
	require.Len(t, diags, 1)
	assert.Equal(t, diag.Warning, diags[0].Severity)

	diags = svc.HandleStateOperation(context.Background(), true)
	assert.True(t, diags.HasError())
}
