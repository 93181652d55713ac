package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"rando/internal/render"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Render != render.DefaultSettings() {
		t.Errorf("render = %+v; want defaults", cfg.Render)
	}
	if cfg.Scene.Version != "1.0" || cfg.Fetch.Timeout != 30*time.Second {
		t.Errorf("scene.version=%q fetch.timeout=%v", cfg.Scene.Version, cfg.Fetch.Timeout)
	}
	if !reflect.DeepEqual(cfg.Kafka.Brokers, []string{"localhost:9092"}) {
		t.Errorf("kafka.brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.Minio.Enabled() {
		t.Error("minio enabled without endpoint")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	yaml := `
scene:
  version: "1.1"
  dem_url: https://geotrek.test/dem.json
  profile_url: https://geotrek.test/profile.json
  poi_url: https://geotrek.test/pois.geojson
render:
  trek_offset: 5
log:
  format: text
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RANDO_RENDER_TREK_OFFSET", "7.5")
	t.Setenv("RANDO_SCENE_DEMO", "true")
	t.Setenv("RANDO_VALKEY_TTL", "10m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Scene.Version != "1.1" || cfg.Scene.PoiURL != "https://geotrek.test/pois.geojson" {
		t.Errorf("scene = %+v", cfg.Scene)
	}
	if cfg.Render.TrekOffset != 7.5 || !cfg.Scene.Demo {
		t.Errorf("trek_offset=%v demo=%v; want env values", cfg.Render.TrekOffset, cfg.Scene.Demo)
	}
	if cfg.Valkey.TTL != 10*time.Minute || cfg.Log.Format != "text" {
		t.Errorf("valkey.ttl=%v log.format=%q", cfg.Valkey.TTL, cfg.Log.Format)
	}
}

func validConfig() Config {
	return Config{
		Scene:  SceneConfig{Version: "1.0"},
		Render: render.DefaultSettings(),
		Kafka:  KafkaConfig{Brokers: []string{"kafka:9092"}, Topic: "scene-builds"},
		Log:    LogConfig{Level: "info", Format: "json"},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr []string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{
			name: "version 1.1 needs pois",
			mutate: func(c *Config) {
				c.Scene = SceneConfig{Version: "1.1", DemURL: "a", ProfileURL: "b"}
			},
			wantErr: []string{"scene.poi_url"},
		},
		{
			name:    "unknown version",
			mutate:  func(c *Config) { c.Scene.Version = "2.0" },
			wantErr: []string{"scene.version"},
		},
		{
			name: "collects every problem",
			mutate: func(c *Config) {
				c.Scene.DemURL = "a"
				c.Render.TrekWidth = 0
				c.Kafka.Topic = ""
				c.Minio.Endpoint = "minio:9000"
				c.Log.Format = "xml"
			},
			wantErr: []string{"scene.profile_url", "render.trek_width", "kafka.topic", "minio.access_key", "log.format"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			err := c.Validate()
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Fatalf("Validate error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate returned nil")
			}
			for _, want := range tt.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error %q does not mention %s", err, want)
				}
			}
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "rando", Password: "p@ss", DBName: "rando", SSLMode: "disable"}
	want := "postgres://rando:p%40ss@db:5432/rando?sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("DSN() = %q; want %q", got, want)
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
