package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	lambda "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/sirupsen/logrus"

	"github.com/raywall/terraform-provider-hydroseg/internal/client"
	dto "github.com/raywall/terraform-provider-hydroseg/pkg/types"
)

// O Lambda rejeita uma role recém-criada até o IAM propagá-la.
const roleNotReadyMessage = "cannot be assumed by Lambda"

// LambdaRepository encapsula operações CRUD da AWS Lambda.
type LambdaRepository struct {
	Client *client.AWSClient
	Log    logrus.FieldLogger

	// WaitTimeout limita os waiters de active/updated. Zero vale 5 minutos.
	WaitTimeout time.Duration
	// CreateRetryDelay é o primeiro passo do backoff enquanto a role propaga.
	CreateRetryDelay time.Duration
}

// GetFunction busca uma função Lambda. Retorna nil se não for encontrada.
func (r *LambdaRepository) GetFunction(ctx context.Context, functionName string) (*types.FunctionConfiguration, error) {
	out, err := r.Client.Lambda.GetFunction(ctx, &lambda.GetFunctionInput{FunctionName: aws.String(functionName)})
	if err != nil {
		if client.IsAPIErrorCode(err, "ResourceNotFoundException") {
			return nil, nil
		}
		return nil, fmt.Errorf("GetFunction failed: %w", err)
	}
	return out.Configuration, nil
}

// GetImageFunction é GetFunction mais a URI da imagem em uso ("" para
// funções zip).
func (r *LambdaRepository) GetImageFunction(ctx context.Context, functionName string) (*types.FunctionConfiguration, string, error) {
	out, err := r.Client.Lambda.GetFunction(ctx, &lambda.GetFunctionInput{FunctionName: aws.String(functionName)})
	if err != nil {
		if client.IsAPIErrorCode(err, "ResourceNotFoundException") {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("GetFunction failed: %w", err)
	}
	image := ""
	if out.Code != nil {
		image = aws.ToString(out.Code.ImageUri)
	}
	return out.Configuration, image, nil
}

// EnsureImageFunction cria a função por imagem de container ou atualiza a
// configuração e a imagem. Retorna o ARN da função.
func (r *LambdaRepository) EnsureImageFunction(ctx context.Context, lc *dto.LambdaImageConfig, roleArn, imageURI string) (*string, error) {
	got, err := r.GetFunction(ctx, lc.FunctionName)
	if err != nil {
		return nil, err
	}

	if got != nil {
		if got.PackageType != "" && got.PackageType != types.PackageTypeImage {
			return nil, fmt.Errorf("function %s exists with package type %s, expected Image", lc.FunctionName, got.PackageType)
		}
		if err := r.updateFunctionConfiguration(ctx, lc, roleArn); err != nil {
			return nil, err
		}
		if err := r.waitForUpdated(ctx, lc.FunctionName); err != nil {
			return nil, err
		}
		if err := r.updateFunctionCode(ctx, lc.FunctionName, imageURI); err != nil {
			return nil, err
		}
		if err := r.waitForUpdated(ctx, lc.FunctionName); err != nil {
			return nil, err
		}
		return got.FunctionArn, nil
	}

	input := &lambda.CreateFunctionInput{
		FunctionName:  aws.String(lc.FunctionName),
		Role:          aws.String(roleArn),
		PackageType:   types.PackageTypeImage,
		Code:          &types.FunctionCode{ImageUri: aws.String(imageURI)},
		MemorySize:    aws.Int32(lc.MemorySize),
		Timeout:       aws.Int32(lc.Timeout),
		Architectures: []types.Architecture{types.Architecture(lc.Architecture)},
		Environment: &types.Environment{
			Variables: lc.Environment,
		},
	}

	var result *lambda.CreateFunctionOutput
	delay := r.CreateRetryDelay
	if delay == 0 {
		delay = 2 * time.Second
	}
	cerr := client.Retry(ctx, 6, delay, func() error {
		var err error
		result, err = r.Client.Lambda.CreateFunction(ctx, input)
		if err != nil && client.IsAPIErrorCode(err, "InvalidParameterValueException") && strings.Contains(err.Error(), roleNotReadyMessage) {
			r.log().WithField("function", lc.FunctionName).Debug("execution role not assumable yet, retrying")
			return err
		}
		return client.Permanent(err)
	})

	if cerr != nil {
		if client.IsAPIErrorCode(cerr, "ResourceConflictException") {
			g2, _ := r.GetFunction(ctx, lc.FunctionName)
			if g2 != nil {
				return g2.FunctionArn, nil
			}
		}
		return nil, fmt.Errorf("CreateFunction failed: %w", cerr)
	}

	if werr := r.waitForActive(ctx, lc.FunctionName); werr != nil {
		return nil, werr
	}

	if result != nil && result.FunctionArn != nil {
		return result.FunctionArn, nil
	}
	return nil, fmt.Errorf("lambda created but ARN not available")
}

// AddPermission adiciona permissão de invocação para principal. Um statement
// existente com o mesmo ID é mantido.
func (r *LambdaRepository) AddPermission(ctx context.Context, functionName, statementID, principal, sourceArn, sourceAccount string) error {
	input := &lambda.AddPermissionInput{
		FunctionName: aws.String(functionName),
		StatementId:  aws.String(statementID),
		Action:       aws.String("lambda:InvokeFunction"),
		Principal:    aws.String(principal),
		SourceArn:    aws.String(sourceArn),
	}
	if sourceAccount != "" {
		input.SourceAccount = aws.String(sourceAccount)
	}

	_, err := r.Client.Lambda.AddPermission(ctx, input)
	if err != nil && !client.IsAPIErrorCode(err, "ResourceConflictException") {
		return fmt.Errorf("AddPermission failed: %w", err)
	}
	return nil
}

// RemovePermission remove permissão. Statement inexistente não é erro.
func (r *LambdaRepository) RemovePermission(ctx context.Context, functionName, statementID string) error {
	_, err := r.Client.Lambda.RemovePermission(ctx, &lambda.RemovePermissionInput{
		FunctionName: aws.String(functionName),
		StatementId:  aws.String(statementID),
	})
	if err != nil && !client.IsAPIErrorCode(err, "ResourceNotFoundException") {
		return fmt.Errorf("RemovePermission failed: %w", err)
	}
	return nil
}

// DeleteFunction deleta a Lambda. Função inexistente não é erro.
func (r *LambdaRepository) DeleteFunction(ctx context.Context, functionName string) error {
	_, err := r.Client.Lambda.DeleteFunction(ctx, &lambda.DeleteFunctionInput{
		FunctionName: aws.String(functionName),
	})
	if err != nil && !client.IsAPIErrorCode(err, "ResourceNotFoundException") {
		return fmt.Errorf("DeleteFunction failed: %w", err)
	}
	return nil
}

// --- Métodos Privados ---

func (r *LambdaRepository) updateFunctionConfiguration(ctx context.Context, lc *dto.LambdaImageConfig, roleArn string) error {
	_, uerr := r.Client.Lambda.UpdateFunctionConfiguration(ctx, &lambda.UpdateFunctionConfigurationInput{
		FunctionName: aws.String(lc.FunctionName),
		Role:         aws.String(roleArn),
		MemorySize:   aws.Int32(lc.MemorySize),
		Timeout:      aws.Int32(lc.Timeout),
		Environment: &types.Environment{
			Variables: lc.Environment,
		},
	})
	if uerr != nil {
		return fmt.Errorf("failed to update lambda configuration: %w", uerr)
	}
	return nil
}

func (r *LambdaRepository) updateFunctionCode(ctx context.Context, functionName, imageURI string) error {
	_, err := r.Client.Lambda.UpdateFunctionCode(ctx, &lambda.UpdateFunctionCodeInput{
		FunctionName: aws.String(functionName),
		ImageUri:     aws.String(imageURI),
	})
	if err != nil {
		return fmt.Errorf("failed to update lambda image: %w", err)
	}
	return nil
}

func (r *LambdaRepository) waitTimeout() time.Duration {
	if r.WaitTimeout == 0 {
		return 5 * time.Minute
	}
	return r.WaitTimeout
}

func (r *LambdaRepository) waitForActive(ctx context.Context, functionName string) error {
	waiter := lambda.NewFunctionActiveWaiter(r.Client.Lambda)
	err := waiter.Wait(ctx, &lambda.GetFunctionConfigurationInput{FunctionName: aws.String(functionName)}, r.waitTimeout())
	if err != nil {
		return fmt.Errorf("waiting for function %s to become active: %w", functionName, err)
	}
	return nil
}

func (r *LambdaRepository) waitForUpdated(ctx context.Context, functionName string) error {
	waiter := lambda.NewFunctionUpdatedWaiter(r.Client.Lambda)
	err := waiter.Wait(ctx, &lambda.GetFunctionConfigurationInput{FunctionName: aws.String(functionName)}, r.waitTimeout())
	if err != nil {
		return fmt.Errorf("waiting for function %s update: %w", functionName, err)
	}
	return nil
}

func (r *LambdaRepository) log() logrus.FieldLogger {
	if r.Log == nil {
		return logrus.StandardLogger()
	}
	return r.Log
}
