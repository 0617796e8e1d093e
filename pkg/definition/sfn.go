package definition

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"

	"github.com/parrotfish-oss/flowcost/pkg/workflow"
)

// StepFunctionsClient is the subset of the AWS Step Functions SDK client
// used here.
type StepFunctionsClient interface {
	DescribeStateMachine(ctx context.Context, params *sfn.DescribeStateMachineInput, optFns ...func(*sfn.Options)) (*sfn.DescribeStateMachineOutput, error)
}

// StepFunctionsLoader fetches a workflow definition straight from a live AWS
// Step Functions state machine, the production counterpart to FileLoader.
type StepFunctionsLoader struct {
	Client StepFunctionsClient
}

// NewStepFunctionsLoader wraps an AWS Step Functions SDK client.
func NewStepFunctionsLoader(client StepFunctionsClient) *StepFunctionsLoader {
	return &StepFunctionsLoader{Client: client}
}

func (s *StepFunctionsLoader) Load(ctx context.Context, arn string) (*workflow.Definition, error) {
	out, err := s.Client.DescribeStateMachine(ctx, &sfn.DescribeStateMachineInput{
		StateMachineArn: aws.String(arn),
	})
	if err != nil {
		return nil, fmt.Errorf("definition: describe state machine %s: %w", arn, err)
	}
	if out.Definition == nil {
		return nil, fmt.Errorf("definition: state machine %s returned no definition", arn)
	}
	return parseDefinition([]byte(*out.Definition))
}
