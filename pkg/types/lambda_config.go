package types

// Valores padrão aplicados quando um campo de LambdaImageConfig fica vazio.
const (
	DefaultImageTag     = "lambda-function"
	DefaultMemorySize   = 128
	DefaultTimeout      = 30
	DefaultArchitecture = "x86_64"
)

// LambdaImageConfig DTO reúne o necessário para publicar uma função Lambda
// por imagem de container.
type LambdaImageConfig struct {
	FunctionName          string
	RepositoryName        string
	ImageTag              string
	MemorySize            int32
	Timeout               int32
	Architecture          string
	PolicyARNs            []string          // attached_policy_arns
	PreviousPolicyARNs    []string          // aplicadas no apply anterior; as que saíram são desanexadas
	Environment           map[string]string // environment_variables
	Build                 *ImageBuildConfig // nil: the image is already in the registry
	ForceDeleteRepository bool
}

// ApplyDefaults preenche os campos vazios com os padrões do pacote.
func (lc *LambdaImageConfig) ApplyDefaults() {
	if lc.ImageTag == "" {
		lc.ImageTag = DefaultImageTag
	}
	if lc.MemorySize == 0 {
		lc.MemorySize = DefaultMemorySize
	}
	if lc.Timeout == 0 {
		lc.Timeout = DefaultTimeout
	}
	if lc.Architecture == "" {
		lc.Architecture = DefaultArchitecture
	}
	if lc.RepositoryName == "" {
		lc.RepositoryName = lc.FunctionName
	}
}

// RoleName é a role de execução criada para a função.
func RoleName(functionName string) string {
	return functionName + "-execution-role"
}

// LogGroupName é o log group do CloudWatch em que o Lambda escreve.
func LogGroupName(functionName string) string {
	return "/aws/lambda/" + functionName
}
