package invoke

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
)

// MaxMemoryMB is the AWS Lambda memory ceiling used to prime newly
// discovered functions before any sampling invocation, mirroring the
// original implementation's AWSConfigManager.set_config(3008).
const MaxMemoryMB = 3008

// LambdaClient is the subset of the AWS Lambda SDK client used here.
type LambdaClient interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
	UpdateFunctionConfiguration(ctx context.Context, params *lambda.UpdateFunctionConfigurationInput, optFns ...func(*lambda.Options)) (*lambda.UpdateFunctionConfigurationOutput, error)
}

// LambdaInvoker invokes functions synchronously via AWS Lambda's
// RequestResponse invocation type.
type LambdaInvoker struct {
	Client LambdaClient
}

// NewLambdaInvoker wraps an AWS Lambda SDK client.
func NewLambdaInvoker(client LambdaClient) *LambdaInvoker {
	return &LambdaInvoker{Client: client}
}

func (l *LambdaInvoker) Invoke(ctx context.Context, functionName string, input string) (string, error) {
	out, err := l.Client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(functionName),
		InvocationType: types.InvocationTypeRequestResponse,
		Payload:        []byte(input),
	})
	if err != nil {
		return "", fmt.Errorf("lambda invoker: invoke %s: %w", functionName, err)
	}
	if out.FunctionError != nil {
		return "", fmt.Errorf("lambda invoker: %s returned a function error: %s", functionName, *out.FunctionError)
	}
	return string(out.Payload), nil
}

// Prime sets functionName's memory configuration to MaxMemoryMB, called once
// the first time a function is discovered while building a workflow, so the
// first sampled invocation is not skewed by a too-small starting memory.
func (l *LambdaInvoker) Prime(ctx context.Context, functionName string) error {
	_, err := l.Client.UpdateFunctionConfiguration(ctx, &lambda.UpdateFunctionConfigurationInput{
		FunctionName: aws.String(functionName),
		MemorySize:   aws.Int32(MaxMemoryMB),
	})
	if err != nil {
		return fmt.Errorf("lambda invoker: prime %s: %w", functionName, err)
	}
	return nil
}
