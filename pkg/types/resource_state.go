package types

// ResourceState é o estado interno gravado para um resource
// 'hydroseg_lambda_image'.
type ResourceState struct {
	RoleName              string   `json:"role_name"`
	RoleArn               string   `json:"role_arn"`
	FunctionName          string   `json:"function_name"`
	FunctionArn           *string  `json:"function_arn"`
	RepositoryName        string   `json:"repository_name"`
	RepositoryURI         string   `json:"repository_uri"`
	ImageURI              string   `json:"image_uri"`
	ImageDigest           string   `json:"image_digest"`
	LogGroup              string   `json:"log_group"`
	AttachedPolicyARNs    []string `json:"attached_policy_arns"`
	ForceDeleteRepository bool     `json:"force_delete_repository"`
}
