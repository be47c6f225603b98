package devops

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Config is the service configuration, loaded once per process. Sources,
// in order: the file named by CONFIG_FILE, otherwise the SSM parameter
// "attendance-config". DSN from the environment overrides either.
type Config struct {
	DSN            string `yaml:"dsn"`
	SigningSecret  string `yaml:"signingSecret"`
	MaxConnections int    `yaml:"maxConnections"`
	ListenAddr     string `yaml:"listenAddr"`
}

var (
	once    sync.Once
	cfg     *Config
	loadErr error
)

func Load(ctx context.Context) (*Config, error) {
	once.Do(func() {
		var raw []byte

		if path := os.Getenv("CONFIG_FILE"); path != "" {
			raw, loadErr = os.ReadFile(path)
			if loadErr != nil {
				loadErr = fmt.Errorf("read config file: %w", loadErr)
				return
			}
		} else {
			awsCfg, err := config.LoadDefaultConfig(ctx)
			if err != nil {
				loadErr = fmt.Errorf("load aws config: %w", err)
				return
			}

			client := ssm.NewFromConfig(awsCfg)
			out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
				Name:           aws.String("attendance-config"),
				WithDecryption: aws.Bool(true),
			})
			if err != nil {
				loadErr = fmt.Errorf("get parameter: %w", err)
				return
			}
			raw = []byte(*out.Parameter.Value)
		}

		var parsed Config
		if err := yaml.Unmarshal(raw, &parsed); err != nil {
			loadErr = fmt.Errorf("unmarshal yaml: %w", err)
			return
		}

		if dsn := os.Getenv("DSN"); dsn != "" {
			parsed.DSN = dsn
		}
		if parsed.MaxConnections == 0 {
			parsed.MaxConnections = 10
		}
		if parsed.ListenAddr == "" {
			parsed.ListenAddr = "0.0.0.0:8090"
		}

		cfg = &parsed
	})

	return cfg, loadErr
}
