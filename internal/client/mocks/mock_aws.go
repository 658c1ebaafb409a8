package mocks

import (
	"context"

	cw "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	iam "github.com/aws/aws-sdk-go-v2/service/iam"
	lambda "github.com/aws/aws-sdk-go-v2/service/lambda"
	s3 "github.com/aws/aws-sdk-go-v2/service/s3"
	sts "github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/mock"
)

// out returns the typed first return value, tolerating a nil placeholder.
func out[T any](args mock.Arguments) *T {
	if v, ok := args.Get(0).(*T); ok {
		return v
	}
	return nil
}

type MockECR struct {
	mock.Mock
}

func (m *MockECR) CreateRepository(ctx context.Context, in *ecr.CreateRepositoryInput, _ ...func(*ecr.Options)) (*ecr.CreateRepositoryOutput, error) {
	args := m.Called(ctx, in)
	return out[ecr.CreateRepositoryOutput](args), args.Error(1)
}

func (m *MockECR) DescribeRepositories(ctx context.Context, in *ecr.DescribeRepositoriesInput, _ ...func(*ecr.Options)) (*ecr.DescribeRepositoriesOutput, error) {
	args := m.Called(ctx, in)
	return out[ecr.DescribeRepositoriesOutput](args), args.Error(1)
}

func (m *MockECR) DeleteRepository(ctx context.Context, in *ecr.DeleteRepositoryInput, _ ...func(*ecr.Options)) (*ecr.DeleteRepositoryOutput, error) {
	args := m.Called(ctx, in)
	return out[ecr.DeleteRepositoryOutput](args), args.Error(1)
}

func (m *MockECR) DescribeImages(ctx context.Context, in *ecr.DescribeImagesInput, _ ...func(*ecr.Options)) (*ecr.DescribeImagesOutput, error) {
	args := m.Called(ctx, in)
	return out[ecr.DescribeImagesOutput](args), args.Error(1)
}

func (m *MockECR) GetAuthorizationToken(ctx context.Context, in *ecr.GetAuthorizationTokenInput, _ ...func(*ecr.Options)) (*ecr.GetAuthorizationTokenOutput, error) {
	args := m.Called(ctx, in)
	return out[ecr.GetAuthorizationTokenOutput](args), args.Error(1)
}

type MockLambda struct {
	mock.Mock
}

func (m *MockLambda) GetFunction(ctx context.Context, in *lambda.GetFunctionInput, _ ...func(*lambda.Options)) (*lambda.GetFunctionOutput, error) {
	args := m.Called(ctx, in)
	return out[lambda.GetFunctionOutput](args), args.Error(1)
}

func (m *MockLambda) GetFunctionConfiguration(ctx context.Context, in *lambda.GetFunctionConfigurationInput, _ ...func(*lambda.Options)) (*lambda.GetFunctionConfigurationOutput, error) {
	args := m.Called(ctx, in)
	return out[lambda.GetFunctionConfigurationOutput](args), args.Error(1)
}

func (m *MockLambda) CreateFunction(ctx context.Context, in *lambda.CreateFunctionInput, _ ...func(*lambda.Options)) (*lambda.CreateFunctionOutput, error) {
	args := m.Called(ctx, in)
	return out[lambda.CreateFunctionOutput](args), args.Error(1)
}

func (m *MockLambda) UpdateFunctionConfiguration(ctx context.Context, in *lambda.UpdateFunctionConfigurationInput, _ ...func(*lambda.Options)) (*lambda.UpdateFunctionConfigurationOutput, error) {
	args := m.Called(ctx, in)
	return out[lambda.UpdateFunctionConfigurationOutput](args), args.Error(1)
}

func (m *MockLambda) UpdateFunctionCode(ctx context.Context, in *lambda.UpdateFunctionCodeInput, _ ...func(*lambda.Options)) (*lambda.UpdateFunctionCodeOutput, error) {
	args := m.Called(ctx, in)
	return out[lambda.UpdateFunctionCodeOutput](args), args.Error(1)
}

func (m *MockLambda) DeleteFunction(ctx context.Context, in *lambda.DeleteFunctionInput, _ ...func(*lambda.Options)) (*lambda.DeleteFunctionOutput, error) {
	args := m.Called(ctx, in)
	return out[lambda.DeleteFunctionOutput](args), args.Error(1)
}

func (m *MockLambda) AddPermission(ctx context.Context, in *lambda.AddPermissionInput, _ ...func(*lambda.Options)) (*lambda.AddPermissionOutput, error) {
	args := m.Called(ctx, in)
	return out[lambda.AddPermissionOutput](args), args.Error(1)
}

func (m *MockLambda) RemovePermission(ctx context.Context, in *lambda.RemovePermissionInput, _ ...func(*lambda.Options)) (*lambda.RemovePermissionOutput, error) {
	args := m.Called(ctx, in)
	return out[lambda.RemovePermissionOutput](args), args.Error(1)
}

type MockIAM struct {
	mock.Mock
}

func (m *MockIAM) GetRole(ctx context.Context, in *iam.GetRoleInput, _ ...func(*iam.Options)) (*iam.GetRoleOutput, error) {
	args := m.Called(ctx, in)
	return out[iam.GetRoleOutput](args), args.Error(1)
}

func (m *MockIAM) CreateRole(ctx context.Context, in *iam.CreateRoleInput, _ ...func(*iam.Options)) (*iam.CreateRoleOutput, error) {
	args := m.Called(ctx, in)
	return out[iam.CreateRoleOutput](args), args.Error(1)
}

func (m *MockIAM) AttachRolePolicy(ctx context.Context, in *iam.AttachRolePolicyInput, _ ...func(*iam.Options)) (*iam.AttachRolePolicyOutput, error) {
	args := m.Called(ctx, in)
	return out[iam.AttachRolePolicyOutput](args), args.Error(1)
}

func (m *MockIAM) DetachRolePolicy(ctx context.Context, in *iam.DetachRolePolicyInput, _ ...func(*iam.Options)) (*iam.DetachRolePolicyOutput, error) {
	args := m.Called(ctx, in)
	return out[iam.DetachRolePolicyOutput](args), args.Error(1)
}

func (m *MockIAM) DeleteRole(ctx context.Context, in *iam.DeleteRoleInput, _ ...func(*iam.Options)) (*iam.DeleteRoleOutput, error) {
	args := m.Called(ctx, in)
	return out[iam.DeleteRoleOutput](args), args.Error(1)
}

func (m *MockIAM) ListAttachedRolePolicies(ctx context.Context, in *iam.ListAttachedRolePoliciesInput, _ ...func(*iam.Options)) (*iam.ListAttachedRolePoliciesOutput, error) {
	args := m.Called(ctx, in)
	return out[iam.ListAttachedRolePoliciesOutput](args), args.Error(1)
}

type MockCWLogs struct {
	mock.Mock
}

func (m *MockCWLogs) CreateLogGroup(ctx context.Context, in *cw.CreateLogGroupInput, _ ...func(*cw.Options)) (*cw.CreateLogGroupOutput, error) {
	args := m.Called(ctx, in)
	return out[cw.CreateLogGroupOutput](args), args.Error(1)
}

func (m *MockCWLogs) PutRetentionPolicy(ctx context.Context, in *cw.PutRetentionPolicyInput, _ ...func(*cw.Options)) (*cw.PutRetentionPolicyOutput, error) {
	args := m.Called(ctx, in)
	return out[cw.PutRetentionPolicyOutput](args), args.Error(1)
}

func (m *MockCWLogs) DeleteLogGroup(ctx context.Context, in *cw.DeleteLogGroupInput, _ ...func(*cw.Options)) (*cw.DeleteLogGroupOutput, error) {
	args := m.Called(ctx, in)
	return out[cw.DeleteLogGroupOutput](args), args.Error(1)
}

type MockS3 struct {
	mock.Mock
}

func (m *MockS3) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	args := m.Called(ctx, in)
	return out[s3.HeadBucketOutput](args), args.Error(1)
}

func (m *MockS3) GetBucketNotificationConfiguration(ctx context.Context, in *s3.GetBucketNotificationConfigurationInput, _ ...func(*s3.Options)) (*s3.GetBucketNotificationConfigurationOutput, error) {
	args := m.Called(ctx, in)
	return out[s3.GetBucketNotificationConfigurationOutput](args), args.Error(1)
}

func (m *MockS3) PutBucketNotificationConfiguration(ctx context.Context, in *s3.PutBucketNotificationConfigurationInput, _ ...func(*s3.Options)) (*s3.PutBucketNotificationConfigurationOutput, error) {
	args := m.Called(ctx, in)
	return out[s3.PutBucketNotificationConfigurationOutput](args), args.Error(1)
}

func (m *MockS3) CopyObject(ctx context.Context, in *s3.CopyObjectInput, _ ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	args := m.Called(ctx, in)
	return out[s3.CopyObjectOutput](args), args.Error(1)
}

type MockSTS struct {
	mock.Mock
}

func (m *MockSTS) GetCallerIdentity(ctx context.Context, in *sts.GetCallerIdentityInput, _ ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	args := m.Called(ctx, in)
	return out[sts.GetCallerIdentityOutput](args), args.Error(1)
}
