// Command optimize runs the memory-size optimization pipeline once (or on
// a schedule) for a single workflow definition against a list of
// representative payloads, printing the resulting per-function memory
// configuration.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/robfig/cron/v3"

	"github.com/parrotfish-oss/flowcost/internal/config"
	"github.com/parrotfish-oss/flowcost/internal/infrastructure/cache"
	"github.com/parrotfish-oss/flowcost/internal/infrastructure/logger"
	"github.com/parrotfish-oss/flowcost/pkg/definition"
	"github.com/parrotfish-oss/flowcost/pkg/invoke"
	"github.com/parrotfish-oss/flowcost/pkg/orchestrator"
	"github.com/parrotfish-oss/flowcost/pkg/runstore"
	"github.com/parrotfish-oss/flowcost/pkg/sampler"
)

func main() {
	definitionPath := flag.String("definition", "", "path to a local state machine definition JSON file (overrides FLOWCOST_ARN as a local file)")
	payloadsPath := flag.String("payloads", "", "path to a newline-delimited JSON payload file; defaults to stdin")
	memorySpace := flag.String("memory-space", "128,256,512,1024,1536,2048,3008", "comma-separated candidate memory sizes in MB, ascending")
	watch := flag.String("watch", "", "cron expression; if set, re-run the pipeline on this schedule instead of exiting after one run")
	flag.Parse()

	if err := run(*definitionPath, *payloadsPath, *memorySpace, *watch); err != nil {
		fmt.Fprintln(os.Stderr, "optimize:", err)
		os.Exit(1)
	}
}

func run(definitionPath, payloadsPath, memorySpaceFlag, watchCron string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Logging)

	space, err := parseMemorySpace(memorySpaceFlag)
	if err != nil {
		return err
	}

	loader, err := buildLoader(cfg, definitionPath)
	if err != nil {
		return err
	}

	invoker, err := buildInvoker(cfg)
	if err != nil {
		return err
	}

	samp, err := buildSampler(cfg, log, space)
	if err != nil {
		return err
	}

	var store *runstore.Store
	if cfg.Database.Enabled {
		db := runstore.OpenDB(cfg.Database.URL)
		store = runstore.NewStore(db)
		if err := store.Migrate(context.Background()); err != nil {
			return fmt.Errorf("migrate run store: %w", err)
		}
	}

	orch := orchestrator.New(invoker, samp, cfg.Escalator.MemorySizeIncrement, cfg.Escalator.ConstraintExecutionTimeThreshold)
	orch.OnFunctionSeen = func(functionName string) {
		if primer, ok := invoker.(invoke.Primer); ok {
			if err := primer.Prime(context.Background(), functionName); err != nil {
				log.Warn("failed to prime function memory", "function", functionName, "error", err)
			}
		}
	}

	execute := func() error {
		payloads, err := readPayloads(payloadsPath)
		if err != nil {
			return fmt.Errorf("read payloads: %w", err)
		}

		arn := cfg.Workflow.ARN
		if definitionPath != "" {
			arn = definitionPath
		}
		def, err := loader.Load(context.Background(), arn)
		if err != nil {
			return fmt.Errorf("load definition: %w", err)
		}

		summary, err := orch.Run(context.Background(), def, payloads)
		if err != nil {
			return fmt.Errorf("run pipeline: %w", err)
		}

		if store != nil {
			for _, r := range summary.PerPayload {
				run := &runstore.Run{
					WorkflowARN:        arn,
					Payload:            r.Payload,
					FunctionMemory:     r.FunctionMemory,
					CriticalPathTimeMs: r.CriticalPathTimeMs,
					CostMBMs:           r.Cost,
					ConstraintMet:      r.ConstraintMet,
				}
				if r.Err != nil {
					run.Err = r.Err.Error()
				}
				if err := store.Save(context.Background(), run); err != nil {
					log.Warn("failed to persist run", "error", err)
				}
			}
		}

		return json.NewEncoder(os.Stdout).Encode(summary)
	}

	if watchCron == "" {
		return execute()
	}

	c := cron.New()
	if _, err := c.AddFunc(watchCron, func() {
		if err := execute(); err != nil {
			log.Error("scheduled run failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid watch schedule %q: %w", watchCron, err)
	}
	c.Start()
	log.Info("watching", "schedule", watchCron)
	select {}
}

func parseMemorySpace(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	space := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		var m int
		if _, err := fmt.Sscanf(p, "%d", &m); err != nil {
			return nil, fmt.Errorf("invalid memory space entry %q: %w", p, err)
		}
		space = append(space, m)
	}
	if len(space) == 0 {
		return nil, fmt.Errorf("memory space must not be empty")
	}
	return space, nil
}

func readPayloads(path string) ([]string, error) {
	f := os.Stdin
	if path != "" {
		var err error
		f, err = os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
	}

	var payloads []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		payloads = append(payloads, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(payloads) == 0 {
		return nil, fmt.Errorf("no payloads provided")
	}
	return payloads, nil
}

func buildLoader(cfg *config.Config, definitionPath string) (definition.Loader, error) {
	if definitionPath != "" || !cfg.AWS.Enabled {
		return definition.NewFileLoader(), nil
	}

	awsCfg, err := loadAWSConfig(cfg)
	if err != nil {
		return nil, err
	}
	return definition.NewStepFunctionsLoader(sfn.NewFromConfig(awsCfg)), nil
}

func buildInvoker(cfg *config.Config) (invoke.Invoker, error) {
	var inv invoke.Invoker
	if cfg.AWS.Enabled {
		awsCfg, err := loadAWSConfig(cfg)
		if err != nil {
			return nil, err
		}
		inv = invoke.NewLambdaInvoker(lambda.NewFromConfig(awsCfg))
	} else {
		inv = invoke.NewHTTPInvoker(nil)
	}

	policy := invoke.DefaultRetryPolicy(cfg.Sampler.MaxNumberOfInvocationAttempts)
	return invoke.NewRetryingInvoker(inv, policy), nil
}

// loadAWSConfig resolves the AWS SDK config for Lambda/Step Functions calls,
// using FLOWCOST_AWS_* static credentials when set and falling back to the
// SDK's default credential chain otherwise.
func loadAWSConfig(cfg *config.Config) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Workflow.Region)}
	if cfg.AWS.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWS.AccessKeyID, cfg.AWS.SecretAccessKey, cfg.AWS.SessionToken,
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsCfg, nil
}

func buildSampler(cfg *config.Config, log *logger.Logger, space []int) (sampler.Sampler, error) {
	base := sampler.NewPowerLawSampler(space, nil)

	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, running without curve cache", "error", err)
		return base, nil
	}
	return sampler.NewCachingSampler(base, redisCache, 24*time.Hour), nil
}
