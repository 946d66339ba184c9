package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"robot-pick-system/internal/common/logger"
)

type Server struct {
	Port           int           `yaml:"port"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
}

type DB struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Pass     string `yaml:"password"`
	Name     string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`
}

func (d DB) Enabled() bool { return d.Host != "" }

type MQ struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Pass     string `yaml:"password"`
	VHost    string `yaml:"vhost"`
	Exchange string `yaml:"exchange"`
	Queue    string `yaml:"queue"`
}

func (m MQ) Enabled() bool { return m.Host != "" }

type Redis struct {
	URL     string        `yaml:"url"`
	Key     string        `yaml:"key"`
	Channel string        `yaml:"channel"`
	TTL     time.Duration `yaml:"ttl"`
}

func (r Redis) Enabled() bool { return r.URL != "" }

type Broadcast struct {
	QueueSize   int           `yaml:"queue_size"`
	SendTimeout time.Duration `yaml:"send_timeout"`
}

// Gateway is read from the environment only; values pass through to the
// inference backend with no validation beyond type coercion.
type Gateway struct {
	UseRealRobot   bool    `envconfig:"USE_REAL_ROBOT" default:"false"`
	PickDurationS  float64 `envconfig:"PICK_DURATION_S" default:"10.0"`
	PickFPS        int     `envconfig:"PICK_FPS" default:"30"`
	SimulatedPickS float64 `envconfig:"SIMULATED_PICK_S" default:"2"`
	InferenceURL   string  `envconfig:"INFERENCE_URL" default:"http://localhost:8100"`
	RobotPort      string  `envconfig:"ROBOT_PORT" default:"/dev/ttyACM0"`
	RobotID        string  `envconfig:"ROBOT_ID" default:"andrej"`
	CameraFront    string  `envconfig:"CAMERA_FRONT" default:"/dev/video4"`
	CameraWrist    string  `envconfig:"CAMERA_WRIST" default:"/dev/video6"`
}

func (g Gateway) PickDuration() time.Duration {
	return time.Duration(g.PickDurationS * float64(time.Second))
}

func (g Gateway) SimulatedPickTime() time.Duration {
	return time.Duration(g.SimulatedPickS * float64(time.Second))
}

type App struct {
	Server    Server        `yaml:"server"`
	Log       logger.Config `yaml:"log"`
	Database  DB            `yaml:"database"`
	Rabbit    MQ            `yaml:"rabbitmq"`
	Redis     Redis         `yaml:"redis"`
	Broadcast Broadcast     `yaml:"broadcast"`
	Gateway   Gateway       `yaml:"-"`
}

func Defaults() App {
	return App{
		Server: Server{
			Port:           8000,
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			ReadTimeout:    5 * time.Second,
			IdleTimeout:    120 * time.Second,
		},
		Log:       logger.Config{Level: "info", Format: "json", Output: "stdout"},
		Database:  DB{Port: 5432, SSLMode: "disable", MaxConns: 10},
		Rabbit:    MQ{Port: 5672, VHost: "/", Exchange: "robot_status_fanout", Queue: "robot_status.q"},
		Redis:     Redis{Key: "robot:status", Channel: "robot:status", TTL: time.Hour},
		Broadcast: Broadcast{QueueSize: 16, SendTimeout: 2 * time.Second},
	}
}

// Load reads the YAML file at path (a missing file keeps the defaults),
// then the optional .env file and the gateway environment.
func Load(path string) (App, error) {
	a := Defaults()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return App{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(b, &a); err != nil {
				return App{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return App{}, fmt.Errorf("load .env: %w", err)
	}
	if err := envconfig.Process("", &a.Gateway); err != nil {
		return App{}, fmt.Errorf("process gateway environment: %w", err)
	}

	if a.Broadcast.QueueSize <= 0 {
		a.Broadcast.QueueSize = 16
	}
	if a.Broadcast.SendTimeout <= 0 {
		a.Broadcast.SendTimeout = 2 * time.Second
	}
	return a, nil
}

func FindConfig() (string, error) {
	candidates := []string{"config.yaml", "config.yml", "deploy/config.example.yaml"}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fs.ErrNotExist
}
