package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "DIAG"

const (
	DefaultModelPath = "model.gob"
	DefaultPort      = 5000
	DefaultSeed      = 42
	DefaultTestSize  = 0.2
	DefaultMaxIter   = 5000
)

type Server struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ModelPath       string        `mapstructure:"model"`
	Environment     string        `mapstructure:"environment"`
	LogLevel        string        `mapstructure:"log_level"`
	LogFile         string        `mapstructure:"log_file"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	ExposeErrors    bool          `mapstructure:"expose_errors"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (s *Server) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

type Trainer struct {
	DataPath    string  `mapstructure:"data"`
	ModelPath   string  `mapstructure:"out"`
	Seed        int64   `mapstructure:"seed"`
	TestSize    float64 `mapstructure:"test_size"`
	MaxIter     int     `mapstructure:"max_iter"`
	C           float64 `mapstructure:"c"`
	Tol         float64 `mapstructure:"tol"`
	Standardize bool    `mapstructure:"standardize"`
	Curve       bool    `mapstructure:"curve"`
	CurvePoints int     `mapstructure:"curve_points"`
	CurveMin    int     `mapstructure:"curve_min"`
	CurveLog    bool    `mapstructure:"curve_log"`
	CurveImg    string  `mapstructure:"curve_out_img"`
	CurveCSV    string  `mapstructure:"curve_out_csv"`
	ROCImg      string  `mapstructure:"roc_out_img"`
	Environment string  `mapstructure:"environment"`
	LogLevel    string  `mapstructure:"log_level"`
	LogFile     string  `mapstructure:"log_file"`
}

type Analyzer struct {
	ModelPath   string  `mapstructure:"model"`
	DataPath    string  `mapstructure:"data"`
	Holdout     bool    `mapstructure:"holdout"`
	Seed        int64   `mapstructure:"seed"`
	TestSize    float64 `mapstructure:"test_size"`
	ROCImg      string  `mapstructure:"roc_out_img"`
	Environment string  `mapstructure:"environment"`
	LogLevel    string  `mapstructure:"log_level"`
	LogFile     string  `mapstructure:"log_file"`
}

// New cria uma instância de viper que lê variáveis DIAG_* (ex.: DIAG_PORT, DIAG_MAX_ITER).
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(`-`, `_`, `.`, `_`))
	v.AutomaticEnv()
	return v
}

func commonFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Arquivo de configuração YAML opcional")
	fs.String("env_file", ".env", "Arquivo .env opcional")
	fs.String("environment", "prod", "Ambiente: dev|prod|test")
	fs.String("log_level", "info", "Nível de log")
	fs.String("log_file", "", "Arquivo de log rotacionado (além do stdout)")
}

func ServerFlags(fs *pflag.FlagSet) {
	commonFlags(fs)
	fs.String("host", "0.0.0.0", "Endereço de escuta")
	fs.Int("port", DefaultPort, "Porta HTTP")
	fs.String("model", DefaultModelPath, "Caminho do artefato do modelo")
	fs.StringSlice("cors_origins", []string{"*"}, "Origens permitidas para CORS")
	fs.Bool("expose_errors", true, "Incluir o texto do erro nas respostas 500")
	fs.Duration("shutdown_timeout", 5*time.Second, "Tempo máximo para encerrar as requisições em andamento")
}

func TrainerFlags(fs *pflag.FlagSet) {
	commonFlags(fs)
	fs.String("data", "", "CSV do dataset (vazio usa o conjunto embutido)")
	fs.String("out", DefaultModelPath, "Caminho do artefato de saída")
	fs.Int64("seed", DefaultSeed, "Semente da separação treino/teste")
	fs.Float64("test_size", DefaultTestSize, "Fração reservada para teste")
	fs.Int("max_iter", DefaultMaxIter, "Máximo de iterações do L-BFGS")
	fs.Float64("c", 1.0, "Inverso da força de regularização")
	fs.Float64("tol", 1e-4, "Tolerância do gradiente")
	fs.Bool("standardize", true, "Padronizar as características antes do ajuste")
	fs.Bool("curve", false, "Gerar curva de aprendizagem (PNG e CSV)")
	fs.Int("curve_points", 10, "Quantidade de pontos na curva")
	fs.Int("curve_min", 50, "Tamanho mínimo inicial da curva")
	fs.Bool("curve_log", false, "Usar escala logarítmica para os tamanhos")
	fs.String("curve_out_img", "reports/learning_curve.png", "PNG da curva")
	fs.String("curve_out_csv", "reports/learning_curve.csv", "CSV da curva")
	fs.String("roc_out_img", "", "PNG da curva ROC no holdout (vazio desativa)")
}

func AnalyzerFlags(fs *pflag.FlagSet) {
	commonFlags(fs)
	fs.String("model", DefaultModelPath, "Caminho do artefato do modelo")
	fs.String("data", "", "CSV do dataset (vazio usa o conjunto embutido)")
	fs.Bool("holdout", true, "Avaliar só a partição de teste usada pelo trainer")
	fs.Int64("seed", DefaultSeed, "Semente da separação treino/teste")
	fs.Float64("test_size", DefaultTestSize, "Fração reservada para teste")
	fs.String("roc_out_img", "", "PNG da curva ROC (vazio desativa)")
}

// Bind liga as flags ao viper e carrega, nesta ordem de precedência menor, o .env e o YAML.
func Bind(v *viper.Viper, fs *pflag.FlagSet) error {
	if err := v.BindPFlags(fs); err != nil {
		return err
	}
	if envFile := v.GetString("env_file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("falha ao carregar %s: %w", envFile, err)
		}
	}
	if cfgFile := v.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("falha ao ler %s: %w", cfgFile, err)
		}
	}
	return nil
}

func LoadServer(v *viper.Viper) (*Server, error) {
	cfg := &Server{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("configuração inválida: %w", err)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("porta inválida: %d", cfg.Port)
	}
	if cfg.ModelPath == "" {
		return nil, errors.New("caminho do modelo vazio")
	}
	return cfg, nil
}

func LoadTrainer(v *viper.Viper) (*Trainer, error) {
	cfg := &Trainer{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("configuração inválida: %w", err)
	}
	if cfg.TestSize <= 0 || cfg.TestSize >= 1 {
		return nil, fmt.Errorf("test_size deve estar em (0,1), obtido %g", cfg.TestSize)
	}
	if cfg.MaxIter <= 0 {
		return nil, fmt.Errorf("max_iter deve ser positivo, obtido %d", cfg.MaxIter)
	}
	if cfg.C <= 0 {
		return nil, fmt.Errorf("c deve ser positivo, obtido %g", cfg.C)
	}
	if cfg.ModelPath == "" {
		return nil, errors.New("caminho de saída vazio")
	}
	return cfg, nil
}

func LoadAnalyzer(v *viper.Viper) (*Analyzer, error) {
	cfg := &Analyzer{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("configuração inválida: %w", err)
	}
	if cfg.Holdout && (cfg.TestSize <= 0 || cfg.TestSize >= 1) {
		return nil, fmt.Errorf("test_size deve estar em (0,1), obtido %g", cfg.TestSize)
	}
	return cfg, nil
}
