package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"

	"ledgernode/internal/testutil"
)

func TestLoadDefault(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()

	if err := os.Chdir("../.."); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Network.ID != "ledgernode-mainnet" {
		t.Fatalf("unexpected network id: %s", cfg.Network.ID)
	}
	if cfg.Snapshot.SnapshotHeightInterval != 2 {
		t.Fatalf("unexpected snapshot height interval: %d", cfg.Snapshot.SnapshotHeightInterval)
	}
	if cfg.Processing.MaxAcceptedCBHashesInMemory != 5000 {
		t.Fatalf("unexpected max accepted cb hashes: %d", cfg.Processing.MaxAcceptedCBHashesInMemory)
	}
}

func TestLoadOverride(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()

	if err := os.Chdir("../.."); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	cfg, err := Load("bootstrap")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Network.MaxPeers != 100 {
		t.Fatalf("expected MaxPeers 100, got %d", cfg.Network.MaxPeers)
	}
	if cfg.Network.ID != "ledgernode-bootstrap" {
		t.Fatalf("expected network id override, got %s", cfg.Network.ID)
	}
}

func TestLoadSandbox(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	if err := os.Mkdir(sb.Path("config"), 0700); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}
	data := []byte("network:\n  id: sandbox\n  max_peers: 42\nsnapshot:\n  snapshot_height_interval: 1\n")
	if err := sb.WriteFile("config/default.yaml", data, 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()

	if err := os.Chdir(sb.Root); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Network.ID != "sandbox" {
		t.Fatalf("expected network id sandbox, got %s", cfg.Network.ID)
	}
	if cfg.Network.MaxPeers != 42 {
		t.Fatalf("expected MaxPeers 42, got %d", cfg.Network.MaxPeers)
	}
	if cfg.Snapshot.SnapshotHeightInterval != 1 {
		t.Fatalf("expected snapshot height interval 1, got %d", cfg.Snapshot.SnapshotHeightInterval)
	}
}

func TestLoadFromEnvDefault(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()
	os.Unsetenv("LEDGER_ENV")

	if err := os.Chdir("../.."); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}
	if cfg.Network.ID != "ledgernode-mainnet" {
		t.Fatalf("unexpected network id: %s", cfg.Network.ID)
	}
}
